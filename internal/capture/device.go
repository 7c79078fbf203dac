package capture

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMediaTypes is the preference-ordered list of container/codec
// combinations tried during negotiation.
var DefaultMediaTypes = []string{
	"video/webm;codecs=vp9",
	"video/webm;codecs=vp8",
	"video/webm",
	"video/mp4",
}

// A DeviceError reports a device acquisition failure, like a denied permission
// or a missing camera. It is surfaced to the caller and never retried.
type DeviceError struct {
	Reason string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// TrackKind discriminates the hardware tracks of a stream.
type TrackKind string

const (
	// TrackVideo is a camera track.
	TrackVideo TrackKind = "video"
	// TrackAudio is a microphone track.
	TrackAudio TrackKind = "audio"
)

// A Track is one hardware track of an acquired stream. Stopping it releases
// the underlying device indicator.
type Track struct {
	Kind TrackKind

	mu      sync.Mutex
	stopped bool
	release func()
}

// NewTrack returns a track calling release on its first Stop. release may be nil.
func NewTrack(kind TrackKind, release func()) *Track {
	return &Track{Kind: kind, release: release}
}

// Stop releases the track. Subsequent calls are no-ops.
func (t *Track) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	if t.release != nil {
		t.release()
	}
}

// Stopped returns true once the track has been released.
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type (
	// A Device can be acquired to produce a media stream.
	Device interface {
		// Supports returns true when the device can encode the given media type.
		Supports(mediaType string) bool
		// Acquire requests access to the device. An empty mediaType selects the
		// device's default encoding.
		Acquire(ctx context.Context, mediaType string) (Stream, error)
	}

	// A Stream delivers encoded media chunks from an acquired device.
	Stream interface {
		// Read returns the data captured since the previous call. A nil chunk
		// means no data is currently available.
		Read() ([]byte, error)
		// Pause suspends the underlying capture. No data is produced while paused.
		Pause() error
		// Resume resumes a paused capture.
		Resume() error
		// MediaType returns the negotiated media type of the produced chunks.
		MediaType() string
		// Tracks returns the hardware tracks backing this stream.
		Tracks() []*Track
	}
)

// NegotiateMediaType returns the first preferred media type the device
// supports, or an empty string to fall back to the device's default.
func NegotiateMediaType(d Device, preferred []string) string {
	for _, mediaType := range preferred {
		if d.Supports(mediaType) {
			return mediaType
		}
	}
	return ""
}
