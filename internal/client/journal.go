// Package client implements the mmc commands: capture on this device, submit
// metadata to the MindMirror server, join both sides back at listing time.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mindmirror/mindmirror/internal/blobstore"
	"github.com/mindmirror/mindmirror/internal/capture"
	"github.com/mindmirror/mindmirror/internal/journal"
	"github.com/mindmirror/mindmirror/pkg/libmm"
	"github.com/pkg/errors"
)

func newCoordinator(cfg Config) (*journal.Coordinator, *blobstore.Store, error) {
	repo, err := libmm.NewDefaultClient(cfg.Endpoint)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not reach MindMirror endpoint")
	}
	repo.SetBearerToken(cfg.Token)

	store := blobstore.NewRegistry(cfg.StorageDir, nil).For(cfg.Identity)
	return journal.NewCoordinator(repo, store, nil), store, nil
}

// Record replays the given media file as if it were a live camera feed,
// stores the finalized blob in the local store and submits a journal entry
// referencing it.
func Record(path, title, tags string, length time.Duration) error {
	cfg, err := Load()
	if err != nil {
		return errors.Wrap(err, "could not load config")
	}

	coordinator, store, err := newCoordinator(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	session := capture.NewSession(capture.Config{
		Device: &capture.FileDevice{Path: path},
		Store:  store,
		Frames: capture.StillExtractor{},
	})
	defer session.Close()

	ctx := context.Background()
	if err := session.Start(ctx); err != nil {
		return err
	}

	timeout := time.After(length)
progress:
	for {
		select {
		case ev := <-session.Events():
			if ev.State == capture.StateRecording {
				fmt.Printf("\rRecording %s", capture.FormatTime(ev.Elapsed))
			}
		case <-timeout:
			break progress
		}
	}
	fmt.Println()

	recording, err := session.Stop(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %s (%s, %d bytes)\n", recording.Key, recording.Duration, recording.Size)

	coordinator.AttachVideo(recording.Key, recording.Duration)
	entry, err := coordinator.SubmitEntry(ctx, title, tags)
	if err != nil {
		return err
	}
	fmt.Println("Entry saved:", entry.ID)
	return nil
}

// List prints all entries joined with their locally stored videos.
func List() error {
	cfg, err := Load()
	if err != nil {
		return errors.Wrap(err, "could not load config")
	}

	coordinator, store, err := newCoordinator(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	views, err := coordinator.ListEntries(context.Background())
	if err != nil {
		if len(views) == 0 {
			return err
		}
		fmt.Println("Server unreachable, showing the last known listing.")
	}

	for _, view := range views {
		status := "no video"
		switch {
		case view.Unavailable:
			status = "video unavailable"
		case view.Playback != nil:
			status = fmt.Sprintf("video %s (%s)", view.Entry.Duration, view.Playback.MediaType)
			view.Playback.Close()
		}

		fmt.Printf("%s  %-30s [%s] %s\n  %s\n",
			view.Entry.CreatedAt.Local().Format("2006-01-02 15:04"),
			view.Entry.Title,
			strings.Join(view.Entry.Tags, ", "),
			status,
			view.Entry.ID,
		)
	}
	return nil
}

// Remove deletes an entry on the server, then cascades to its local video.
func Remove(id string) error {
	cfg, err := Load()
	if err != nil {
		return errors.Wrap(err, "could not load config")
	}

	coordinator, store, err := newCoordinator(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := coordinator.DeleteEntry(context.Background(), id); err != nil {
		return err
	}
	fmt.Println("Entry removed:", id)
	return nil
}
