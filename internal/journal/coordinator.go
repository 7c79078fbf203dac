// Package journal bridges finalized recordings and the remote entry
// repository, and reconstructs playable entries by joining remote metadata
// with the device-local blob store.
package journal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mindmirror/mindmirror/internal/blobstore"
	"github.com/mindmirror/mindmirror/pkg/libmm"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A Repository is the remote metadata store of journal entries. It only ever
// sees blob key strings, never video payloads.
type Repository interface {
	// CreateEntry submits a new journal entry and returns the stored record.
	CreateEntry(ctx context.Context, params libmm.EntryParams) (*libmm.Entry, error)
	// ListEntries returns all entries, newest first.
	ListEntries(ctx context.Context) ([]*libmm.Entry, error)
	// GetEntry returns one entry by id.
	GetEntry(ctx context.Context, id string) (*libmm.Entry, error)
	// DeleteEntry removes one entry by id.
	DeleteEntry(ctx context.Context, id string) error
}

// A ValidationError blocks an entry submission. Nothing is sent to the
// repository when one is raised.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// A Playback is a temporary, revocable handle on a locally stored video.
type Playback struct {
	Key       string
	MediaType string

	mu   sync.Mutex
	data []byte
}

// Bytes returns the decoded payload, or nil once the handle is revoked.
func (p *Playback) Bytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}

// Close revokes the handle and drops the payload reference.
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = nil
	return nil
}

// An EntryView is a journal entry joined with its local video, when any.
type EntryView struct {
	Entry *libmm.Entry
	// Playback is nil for entries without a video and for unavailable ones.
	Playback *Playback
	// Unavailable reports an entry whose blob key does not resolve locally.
	Unavailable bool
}

// A Coordinator orchestrates the hand-off between a finalized capture
// (a blob key) and the entry repository (a metadata record referencing it).
//
// Entry creation moves through NoVideo <-> VideoPending -> Submitted:
// AttachVideo reaches VideoPending, a successful submission clears all
// pending state back to NoVideo.
type Coordinator struct {
	repo  Repository
	blobs *blobstore.Store
	log   logrus.FieldLogger

	updates chan struct{}

	mu              sync.Mutex
	pendingKey      string
	pendingDuration string
	listing         []EntryView
}

// NewCoordinator returns a Coordinator owning the given collaborators.
func NewCoordinator(repo Repository, blobs *blobstore.Store, log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Coordinator{
		repo:    repo,
		blobs:   blobs,
		log:     log,
		updates: make(chan struct{}, 1),
	}
}

// Updates signals listeners that the entry listing changed and should be
// refreshed.
func (c *Coordinator) Updates() <-chan struct{} {
	return c.updates
}

func (c *Coordinator) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// AttachVideo records the most recent capture as pending state to be included
// in the next submission.
func (c *Coordinator) AttachVideo(key, duration string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingKey = key
	c.pendingDuration = duration
}

// ClearVideo drops the pending capture without submitting it.
func (c *Coordinator) ClearVideo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingKey = ""
	c.pendingDuration = ""
}

// PendingVideo returns the blob key and duration of the pending capture.
func (c *Coordinator) PendingVideo() (key, duration string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingKey, c.pendingDuration, c.pendingKey != ""
}

// NormalizeTags splits a raw comma-separated input into tags: each part is
// trimmed and empty results are dropped. Input order is preserved and
// duplicates are allowed.
func NormalizeTags(raw string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// SubmitEntry validates and submits a journal entry referencing the pending
// capture, if any. Pending state is cleared on success only: a failed remote
// write leaves the already stored blob orphaned but resubmittable.
func (c *Coordinator) SubmitEntry(ctx context.Context, title, rawTags string) (*libmm.Entry, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	c.mu.Lock()
	videoKey := c.pendingKey
	duration := c.pendingDuration
	c.mu.Unlock()
	if videoKey == "" {
		videoKey = libmm.NoVideo
	}

	entry, err := c.repo.CreateEntry(ctx, libmm.EntryParams{
		Title:    title,
		Tags:     NormalizeTags(rawTags),
		VideoKey: videoKey,
		Duration: duration,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not submit entry")
	}

	c.ClearVideo()
	c.notify()
	return entry, nil
}

// ListEntries fetches all entries and joins each one with its local blob.
// Blobs resolve concurrently; a missing one marks its row unavailable and
// never fails the listing. When the repository is unreachable the previous
// successfully fetched listing is returned alongside the error.
func (c *Coordinator) ListEntries(ctx context.Context) ([]EntryView, error) {
	entries, err := c.repo.ListEntries(ctx)
	if err != nil {
		c.mu.Lock()
		listing := append([]EntryView(nil), c.listing...)
		c.mu.Unlock()
		return listing, errors.Wrap(err, "could not list entries")
	}

	// Resolution order is not guaranteed, the rendered order is: each view
	// lands at its entry's index.
	views := make([]EntryView, len(entries))
	g, _ := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			views[i] = c.resolve(entry)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	c.listing = append([]EntryView(nil), views...)
	c.mu.Unlock()
	return views, nil
}

func (c *Coordinator) resolve(entry *libmm.Entry) EntryView {
	view := EntryView{Entry: entry}
	if !entry.HasVideo() {
		return view
	}

	payload, mediaType, err := c.blobs.Get(entry.VideoKey)
	if err != nil {
		if errors.Cause(err) != blobstore.ErrBlobNotFound {
			c.log.WithError(err).WithField("key", entry.VideoKey).Warn("could not resolve local blob")
		}
		view.Unavailable = true
		return view
	}

	view.Playback = &Playback{Key: entry.VideoKey, MediaType: mediaType, data: payload}
	return view
}

// DeleteEntry removes the remote record and then its local blob. The order
// matters: a failed remote delete must never orphan-delete the video, while a
// failed local delete after a confirmed remote delete only leaves an orphaned
// blob behind.
func (c *Coordinator) DeleteEntry(ctx context.Context, id string) error {
	entry, err := c.repo.GetEntry(ctx, id)
	if err != nil {
		return errors.Wrap(err, "could not fetch entry")
	}

	if err := c.repo.DeleteEntry(ctx, id); err != nil {
		return errors.Wrap(err, "could not delete entry")
	}

	if entry.HasVideo() {
		if err := c.blobs.Delete(entry.VideoKey); err != nil {
			c.log.WithError(err).WithField("key", entry.VideoKey).Warn("could not delete local blob, leaving it orphaned")
		}
	}

	c.notify()
	return nil
}
