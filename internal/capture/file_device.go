package capture

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// DefaultChunkSize is the amount of data a file stream hands out per read.
const DefaultChunkSize = 64 * 1024

// A FileDevice replays a media file as if it were captured live. It stands in
// for camera hardware in the CLI and in tests.
type FileDevice struct {
	Path string
	// ChunkSize bounds the size of a single chunk. Defaults to DefaultChunkSize.
	ChunkSize int
}

// Supports returns true when the file's detected type matches mediaType,
// ignoring codec parameters.
func (d *FileDevice) Supports(mediaType string) bool {
	detected, err := mimetype.DetectFile(d.Path)
	if err != nil {
		return false
	}
	container := strings.SplitN(mediaType, ";", 2)[0]
	return detected.Is(container)
}

// Acquire opens the file. A missing or unreadable file is reported as a
// DeviceError, the same way an absent camera would be.
func (d *FileDevice) Acquire(_ context.Context, mediaType string) (Stream, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, &DeviceError{Reason: "no such capture source", Err: err}
	}

	if mediaType == "" {
		detected, err := mimetype.DetectFile(d.Path)
		if err != nil {
			f.Close()
			return nil, &DeviceError{Reason: "could not identify capture source", Err: err}
		}
		mediaType = detected.String()
	}

	chunkSize := d.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	s := &fileStream{
		f:         f,
		chunkSize: chunkSize,
		mediaType: mediaType,
	}
	release := s.releaseOnce()
	s.tracks = []*Track{
		NewTrack(TrackVideo, release),
		NewTrack(TrackAudio, release),
	}
	return s, nil
}

type fileStream struct {
	chunkSize int
	mediaType string
	tracks    []*Track

	mu     sync.Mutex
	f      *os.File
	paused bool
}

func (s *fileStream) releaseOnce() func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.f != nil {
				s.f.Close()
				s.f = nil
			}
		})
	}
}

func (s *fileStream) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || s.f == nil {
		return nil, nil
	}

	chunk := make([]byte, s.chunkSize)
	n, err := s.f.Read(chunk)
	if n > 0 {
		return chunk[:n], nil
	}
	if err == io.EOF {
		return nil, nil
	}
	return nil, errors.Wrap(err, "could not read capture source")
}

func (s *fileStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *fileStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fileStream) MediaType() string {
	return s.mediaType
}

func (s *fileStream) Tracks() []*Track {
	return s.tracks
}
