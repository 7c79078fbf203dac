package capture

import (
	"bytes"
	"context"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

const (
	thumbnailWidth  = 320
	thumbnailHeight = 180

	thumbnailAttempts  = 5
	thumbnailSeekStart = time.Second
)

// A FrameExtractor decodes a still frame from an encoded media payload at the
// given offset.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, payload []byte, mediaType string, offset time.Duration) (image.Image, error)
}

// thumbnail derives a fixed-size poster frame from the finalized payload.
// Seeks start at one second and advance on every failed attempt. A nil result
// is a degraded recording, not an error.
func (s *Session) thumbnail(ctx context.Context, payload []byte, mediaType string) []byte {
	if s.frames == nil || len(payload) == 0 {
		return nil
	}

	for attempt := 0; attempt < thumbnailAttempts; attempt++ {
		offset := thumbnailSeekStart + time.Duration(attempt)*time.Second

		img, err := s.frames.ExtractFrame(ctx, payload, mediaType, offset)
		if err != nil {
			s.log.WithError(err).Debugf("thumbnail seek at %s failed", offset)
			continue
		}

		frame := imaging.Fill(img, thumbnailWidth, thumbnailHeight, imaging.Center, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
			s.log.WithError(err).Debug("could not encode thumbnail")
			continue
		}
		return buf.Bytes()
	}

	s.log.Debug("no thumbnail could be derived")
	return nil
}

// A StillExtractor decodes the payload itself as a single still image. It
// serves sources whose payload is an image stream; codec-backed extractors
// implement FrameExtractor for real video containers.
type StillExtractor struct{}

// ExtractFrame implements FrameExtractor.
func (StillExtractor) ExtractFrame(_ context.Context, payload []byte, _ string, _ time.Duration) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(payload))
	return img, errors.Wrap(err, "could not decode frame")
}
