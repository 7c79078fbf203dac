// Package capture owns the lifecycle of a single recording: device
// acquisition, chunk buffering, and finalization of the buffered data into a
// blob persisted in the local blob store.
package capture

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/mindmirror/mindmirror/internal/blobstore"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A State is a step of the session lifecycle.
type State int

// Session states. Legal transitions:
// Idle -> Acquiring -> Recording <-> Paused -> Finalizing -> Idle.
const (
	StateIdle State = iota
	StateAcquiring
	StateRecording
	StatePaused
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	case StateFinalizing:
		return "finalizing"
	}
	return "unknown"
}

var (
	// ErrSessionActive is returned when Start is called while a capture is in
	// progress. Only one session may hold the device at a time.
	ErrSessionActive = errors.New("capture session already active")
	// ErrInvalidState is returned for operations called outside their legal states.
	ErrInvalidState = errors.New("invalid session state")
)

// An Event reports a state transition or an elapsed-time tick.
type Event struct {
	State   State
	Elapsed int // seconds
}

// A Recording is the outcome of a finalized session.
type Recording struct {
	Key       string
	Duration  string
	MediaType string
	Size      int
}

// A Config gathers the collaborators of a Session.
type Config struct {
	Device Device
	Store  *blobstore.Store
	// Frames is the optional thumbnail source. A nil extractor disables
	// thumbnail derivation.
	Frames FrameExtractor
	Logger logrus.FieldLogger
	// ChunkInterval is the fixed interval at which chunks are buffered.
	// Defaults to 250ms.
	ChunkInterval time.Duration
	// MediaTypes is the negotiation preference order. Defaults to DefaultMediaTypes.
	MediaTypes []string
	// OnComplete, when set, is invoked with the blob key and the duration
	// string of every finalized recording.
	OnComplete func(key, duration string)
}

// A Session buffers media data from an acquired device and finalizes it into
// a single blob when recording stops.
type Session struct {
	device        Device
	store         *blobstore.Store
	frames        FrameExtractor
	log           logrus.FieldLogger
	chunkInterval time.Duration
	mediaTypes    []string
	onComplete    func(key, duration string)

	events chan Event

	mu             sync.Mutex
	state          State
	stream         Stream
	chunks         [][]byte
	recordingSince time.Time
	accumulated    time.Duration
	quit           chan struct{}
	loopDone       chan struct{}
}

// NewSession returns an idle session.
func NewSession(cfg Config) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.ChunkInterval <= 0 {
		cfg.ChunkInterval = 250 * time.Millisecond
	}
	if cfg.MediaTypes == nil {
		cfg.MediaTypes = DefaultMediaTypes
	}

	return &Session{
		device:        cfg.Device,
		store:         cfg.Store,
		frames:        cfg.Frames,
		log:           cfg.Logger,
		chunkInterval: cfg.ChunkInterval,
		mediaTypes:    cfg.MediaTypes,
		onComplete:    cfg.OnComplete,
		events:        make(chan Event, 16),
	}
}

// Events returns the state-change stream of the session. Events are dropped
// when nobody drains the channel.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed returns the recorded wall-clock seconds, excluding paused time.
func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() int {
	d := s.accumulated
	if !s.recordingSince.IsZero() {
		d += time.Since(s.recordingSince)
	}
	return int(d / time.Second)
}

func (s *Session) emit() {
	s.mu.Lock()
	ev := Event{State: s.state, Elapsed: s.elapsedLocked()}
	s.mu.Unlock()

	select {
	case s.events <- ev:
	default:
	}
}

// Start acquires the device and begins buffering. A denied permission or a
// missing device surfaces as a DeviceError and is not retried. Calling Start
// while the session is not idle is a precondition violation.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.state = StateAcquiring
	s.mu.Unlock()
	s.emit()

	mediaType := NegotiateMediaType(s.device, s.mediaTypes)
	stream, err := s.device.Acquire(ctx, mediaType)
	if err != nil {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
		s.emit()

		if derr, ok := err.(*DeviceError); ok {
			return derr
		}
		return &DeviceError{Reason: "could not acquire device", Err: err}
	}

	s.mu.Lock()
	s.stream = stream
	s.chunks = nil
	s.accumulated = 0
	s.recordingSince = time.Now()
	s.state = StateRecording
	s.quit = make(chan struct{})
	s.loopDone = make(chan struct{})
	go s.loop(s.quit, s.loopDone)
	s.mu.Unlock()
	s.emit()

	return nil
}

// loop buffers chunks at the configured interval and emits elapsed-time
// ticks once per second while the session records.
func (s *Session) loop(quit, done chan struct{}) {
	defer close(done)

	chunks := time.NewTicker(s.chunkInterval)
	defer chunks.Stop()
	seconds := time.NewTicker(time.Second)
	defer seconds.Stop()

	for {
		select {
		case <-quit:
			return
		case <-chunks.C:
			s.buffer()
		case <-seconds.C:
			s.emit()
		}
	}
}

func (s *Session) buffer() {
	s.mu.Lock()
	if s.state != StateRecording {
		s.mu.Unlock()
		return
	}
	stream := s.stream
	s.mu.Unlock()

	chunk, err := stream.Read()
	if err != nil {
		s.log.WithError(err).Warn("could not read capture chunk")
		return
	}
	if len(chunk) == 0 {
		return
	}

	s.mu.Lock()
	if s.state == StateRecording {
		s.chunks = append(s.chunks, chunk)
	}
	s.mu.Unlock()
}

// Pause suspends capture and the elapsed-time counter. Legal only while recording.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.state != StateRecording {
		state := s.state
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidState, "pause from %s", state)
	}
	s.accumulated += time.Since(s.recordingSince)
	s.recordingSince = time.Time{}
	s.state = StatePaused
	stream := s.stream
	s.mu.Unlock()
	s.emit()

	return errors.Wrap(stream.Pause(), "could not pause stream")
}

// Resume resumes a paused capture.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state != StatePaused {
		state := s.state
		s.mu.Unlock()
		return errors.Wrapf(ErrInvalidState, "resume from %s", state)
	}
	s.recordingSince = time.Now()
	s.state = StateRecording
	stream := s.stream
	s.mu.Unlock()
	s.emit()

	return errors.Wrap(stream.Resume(), "could not resume stream")
}

// Stop halts capture, releases the device, concatenates the buffered chunks
// into a single blob, derives a thumbnail and persists the result in the blob
// store under a fresh key. Legal from Recording or Paused.
//
// Track release happens on every exit path: a stopped session never leaves
// the camera indicator lit.
func (s *Session) Stop(ctx context.Context) (*Recording, error) {
	s.mu.Lock()
	switch s.state {
	case StateRecording, StatePaused:
	default:
		state := s.state
		s.mu.Unlock()
		return nil, errors.Wrapf(ErrInvalidState, "stop from %s", state)
	}

	if !s.recordingSince.IsZero() {
		s.accumulated += time.Since(s.recordingSince)
		s.recordingSince = time.Time{}
	}
	s.state = StateFinalizing
	stream := s.stream
	quit, loopDone := s.quit, s.loopDone
	s.quit, s.loopDone = nil, nil
	s.mu.Unlock()
	s.emit()

	// Halt the capture loop. Every buffered chunk is in once the loop is done.
	close(quit)
	<-loopDone

	// Drain whatever the encoder produced since the last interval.
	if chunk, err := stream.Read(); err == nil && len(chunk) > 0 {
		s.mu.Lock()
		s.chunks = append(s.chunks, chunk)
		s.mu.Unlock()
	}

	releaseTracks(stream)

	s.mu.Lock()
	var buf bytes.Buffer
	for _, chunk := range s.chunks {
		buf.Write(chunk)
	}
	s.chunks = nil
	s.stream = nil
	elapsed := int(s.accumulated / time.Second)
	s.mu.Unlock()

	payload := buf.Bytes()
	mediaType := stream.MediaType()
	thumbnail := s.thumbnail(ctx, payload, mediaType)

	key := blobstore.NewKey()
	if err := s.store.Put(key, payload, mediaType, thumbnail); err != nil {
		s.toIdle()
		return nil, errors.Wrap(err, "could not persist recording")
	}

	recording := &Recording{
		Key:       key,
		Duration:  FormatTime(elapsed),
		MediaType: mediaType,
		Size:      len(payload),
	}
	s.log.WithFields(logrus.Fields{
		"key":      recording.Key,
		"duration": recording.Duration,
		"size":     recording.Size,
	}).Info("recording finalized")

	s.toIdle()
	if s.onComplete != nil {
		s.onComplete(recording.Key, recording.Duration)
	}
	return recording, nil
}

func (s *Session) toIdle() {
	s.mu.Lock()
	s.state = StateIdle
	s.accumulated = 0
	s.recordingSince = time.Time{}
	s.mu.Unlock()
	s.emit()
}

// Close aborts the session from any state: the capture loop is stopped and
// any acquired device is released. Safe to call on every exit path, including
// after a successful Stop.
func (s *Session) Close() error {
	s.mu.Lock()
	quit, loopDone := s.quit, s.loopDone
	stream := s.stream
	s.quit, s.loopDone = nil, nil
	s.stream = nil
	s.chunks = nil
	s.accumulated = 0
	s.recordingSince = time.Time{}
	s.state = StateIdle
	s.mu.Unlock()

	if quit != nil {
		close(quit)
		<-loopDone
	}
	if stream != nil {
		releaseTracks(stream)
	}
	return nil
}

func releaseTracks(stream Stream) {
	for _, track := range stream.Tracks() {
		track.Stop()
	}
}
