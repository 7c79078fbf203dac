package journal_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mindmirror/mindmirror/internal/blobstore"
	"github.com/mindmirror/mindmirror/internal/journal"
	"github.com/mindmirror/mindmirror/pkg/libmm"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	entries []*libmm.Entry

	createErr error
	listErr   error
	deleteErr error
}

func (r *memRepo) CreateEntry(_ context.Context, params libmm.EntryParams) (*libmm.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return nil, r.createErr
	}

	now := time.Now().UTC()
	entry := &libmm.Entry{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Title:     params.Title,
		Tags:      params.Tags,
		VideoKey:  params.VideoKey,
		Duration:  params.Duration,
		CreatedAt: &now,
	}
	r.entries = append([]*libmm.Entry{entry}, r.entries...)
	return entry, nil
}

func (r *memRepo) ListEntries(context.Context) ([]*libmm.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]*libmm.Entry(nil), r.entries...), nil
}

func (r *memRepo) GetEntry(_ context.Context, id string) (*libmm.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, &libmm.RemoteError{StatusCode: 404}
}

func (r *memRepo) DeleteEntry(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, entry := range r.entries {
		if entry.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return &libmm.RemoteError{StatusCode: 404}
}

func setup(t *testing.T) (*journal.Coordinator, *memRepo, *blobstore.Store) {
	t.Helper()

	repo := &memRepo{}
	blobs := blobstore.New(filepath.Join(t.TempDir(), "videos.db"), nil)
	t.Cleanup(func() {
		blobs.Close()
	})
	return journal.NewCoordinator(repo, blobs, nil), repo, blobs
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"mood", "daily", "mood"}, journal.NormalizeTags("mood, , daily,mood"))
	assert.Equal(t, []string{}, journal.NormalizeTags(""))
	assert.Equal(t, []string{}, journal.NormalizeTags(" , ,"))
	assert.Equal(t, []string{"a b"}, journal.NormalizeTags("  a b  "))
}

func TestSubmitEntryValidatesTitle(t *testing.T) {
	c, repo, _ := setup(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := c.SubmitEntry(context.Background(), title, "mood")
		var verr *journal.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "title", verr.Field)
	}

	// Nothing was sent.
	assert.Empty(t, repo.entries)
}

func TestSubmitEntryWithoutVideo(t *testing.T) {
	c, _, _ := setup(t)

	entry, err := c.SubmitEntry(context.Background(), "monday", "mood,daily")
	require.NoError(t, err)
	assert.Equal(t, "monday", entry.Title)
	assert.Equal(t, []string{"mood", "daily"}, entry.Tags)
	assert.Equal(t, libmm.NoVideo, entry.VideoKey)
	assert.False(t, entry.HasVideo())
}

func TestSubmitEntryWithPendingVideo(t *testing.T) {
	c, _, _ := setup(t)

	c.AttachVideo("key-1", "1:05")
	_, _, ok := c.PendingVideo()
	assert.True(t, ok)

	entry, err := c.SubmitEntry(context.Background(), "monday", "")
	require.NoError(t, err)
	assert.Equal(t, "key-1", entry.VideoKey)
	assert.Equal(t, "1:05", entry.Duration)

	// Submitted clears all pending state back to NoVideo.
	_, _, ok = c.PendingVideo()
	assert.False(t, ok)

	entry, err = c.SubmitEntry(context.Background(), "tuesday", "")
	require.NoError(t, err)
	assert.Equal(t, libmm.NoVideo, entry.VideoKey)
}

func TestSubmitEntryRemoteFailureKeepsPending(t *testing.T) {
	c, repo, _ := setup(t)
	repo.createErr = errors.New("network down")

	c.AttachVideo("key-1", "0:10")
	_, err := c.SubmitEntry(context.Background(), "monday", "")
	require.Error(t, err)

	key, _, ok := c.PendingVideo()
	assert.True(t, ok)
	assert.Equal(t, "key-1", key)
}

func TestListEntriesJoinsLocalBlobs(t *testing.T) {
	c, _, blobs := setup(t)

	require.NoError(t, blobs.Put("key-1", []byte("payload"), "video/webm", nil))

	c.AttachVideo("key-1", "0:10")
	_, err := c.SubmitEntry(context.Background(), "with video", "")
	require.NoError(t, err)

	c.AttachVideo("key-missing", "0:05")
	_, err = c.SubmitEntry(context.Background(), "blob is gone", "")
	require.NoError(t, err)

	_, err = c.SubmitEntry(context.Background(), "no video", "")
	require.NoError(t, err)

	views, err := c.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)

	// Newest first; one missing blob never hides the other rows.
	assert.Equal(t, "no video", views[0].Entry.Title)
	assert.Nil(t, views[0].Playback)
	assert.False(t, views[0].Unavailable)

	assert.Equal(t, "blob is gone", views[1].Entry.Title)
	assert.Nil(t, views[1].Playback)
	assert.True(t, views[1].Unavailable)

	assert.Equal(t, "with video", views[2].Entry.Title)
	require.NotNil(t, views[2].Playback)
	assert.Equal(t, []byte("payload"), views[2].Playback.Bytes())
	assert.Equal(t, "video/webm", views[2].Playback.MediaType)
	assert.False(t, views[2].Unavailable)

	// Revoking the handle drops the payload.
	require.NoError(t, views[2].Playback.Close())
	assert.Nil(t, views[2].Playback.Bytes())
}

func TestListEntriesRemoteFailurePreservesListing(t *testing.T) {
	c, repo, _ := setup(t)

	_, err := c.SubmitEntry(context.Background(), "monday", "")
	require.NoError(t, err)

	views, err := c.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)

	repo.listErr = errors.New("network down")
	views, err = c.ListEntries(context.Background())
	require.Error(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "monday", views[0].Entry.Title)
}

func TestDeleteEntryCascades(t *testing.T) {
	c, repo, blobs := setup(t)

	require.NoError(t, blobs.Put("key-1", []byte("payload"), "video/webm", nil))
	c.AttachVideo("key-1", "0:10")
	entry, err := c.SubmitEntry(context.Background(), "monday", "")
	require.NoError(t, err)

	require.NoError(t, c.DeleteEntry(context.Background(), entry.ID))

	assert.Empty(t, repo.entries)
	_, _, err = blobs.Get("key-1")
	assert.Equal(t, blobstore.ErrBlobNotFound, err)
}

func TestDeleteEntryRemoteFailureKeepsBlob(t *testing.T) {
	c, repo, blobs := setup(t)

	require.NoError(t, blobs.Put("key-1", []byte("payload"), "video/webm", nil))
	c.AttachVideo("key-1", "0:10")
	entry, err := c.SubmitEntry(context.Background(), "monday", "")
	require.NoError(t, err)

	repo.deleteErr = errors.New("network down")
	require.Error(t, c.DeleteEntry(context.Background(), entry.ID))

	// A failed remote delete must never orphan-delete the local blob.
	payload, _, err := blobs.Get("key-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)
}

func TestDeleteEntryMissingBlob(t *testing.T) {
	c, repo, _ := setup(t)

	c.AttachVideo("key-never-stored", "0:10")
	entry, err := c.SubmitEntry(context.Background(), "monday", "")
	require.NoError(t, err)

	// Local delete of an absent key is a no-op, not an error.
	require.NoError(t, c.DeleteEntry(context.Background(), entry.ID))
	assert.Empty(t, repo.entries)
}

func TestCoordinatorUpdates(t *testing.T) {
	c, _, _ := setup(t)

	_, err := c.SubmitEntry(context.Background(), "monday", "")
	require.NoError(t, err)

	select {
	case <-c.Updates():
	default:
		t.Fatal("expected a refresh signal after submission")
	}
}
