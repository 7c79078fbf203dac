// Package blobstore implements the device-local storage of recorded videos.
//
// Payloads are keyed by an opaque blob key and never leave the device; the
// remote journal only ever references the key string.
package blobstore

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	bucketVideos     = "videos"
	bucketMediaTypes = "media_types"
	bucketThumbnails = "thumbnails"

	openAttempts = 3
	openBackoff  = 100 * time.Millisecond
)

// ErrBlobNotFound is returned when a key does not resolve to a stored payload.
var ErrBlobNotFound = errors.New("blob not found")

// A StorageError wraps a failure of the underlying storage engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("blobstore %s: %s", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// A Store is a keyed store of binary video payloads with optional thumbnail
// side-cars. The underlying database is opened lazily on first use and the
// handle is shared by all callers for the process lifetime.
type Store struct {
	path string
	log  logrus.FieldLogger

	mu sync.Mutex
	db *storm.DB
}

// New returns a Store persisting at path. The database is not opened until the
// first operation.
func New(path string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{path: path, log: log}
}

// handle returns the shared database handle, opening it on first use.
//
// Open failures are retried with exponential backoff. When all attempts are
// exhausted the database file is removed and recreated from scratch: data
// under the unreadable file is lost, which beats leaving the device unable to
// record at all.
func (s *Store) handle() (*storm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	var err error
	backoff := openBackoff
	for attempt := 1; attempt <= openAttempts; attempt++ {
		var db *storm.DB
		db, err = storm.Open(s.path, storm.Codec(msgpack.Codec))
		if err == nil {
			s.db = db
			return s.db, nil
		}

		s.log.WithError(err).Warnf("could not open blob store (attempt %d/%d)", attempt, openAttempts)
		time.Sleep(backoff)
		backoff *= 2
	}

	// Destructive fallback.
	s.log.WithError(err).Warn("recreating blob store from scratch, previously stored videos are lost")
	if err = os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return nil, &StorageError{Op: "open", Err: err}
	}

	db, err := storm.Open(s.path, storm.Codec(msgpack.Codec))
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	s.db = db
	return s.db, nil
}

// Put stores or overwrites the payload for key. No uniqueness is enforced:
// the caller supplies a fresh key to avoid a silent overwrite. thumbnail may
// be nil.
func (s *Store) Put(key string, payload []byte, mediaType string, thumbnail []byte) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	if err := db.Set(bucketVideos, key, payload); err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	if err := db.Set(bucketMediaTypes, key, mediaType); err != nil {
		return &StorageError{Op: "put", Err: err}
	}
	if thumbnail != nil {
		if err := db.Set(bucketThumbnails, key, thumbnail); err != nil {
			return &StorageError{Op: "put", Err: err}
		}
	}
	return nil
}

// Get returns the payload and media type stored under key. A missing key or a
// malformed record (empty payload) yields ErrBlobNotFound. When no media type
// was recorded, it is sniffed from the payload.
func (s *Store) Get(key string) ([]byte, string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, "", err
	}

	var payload []byte
	if err := db.Get(bucketVideos, key, &payload); err != nil {
		if err == storm.ErrNotFound {
			return nil, "", ErrBlobNotFound
		}
		return nil, "", &StorageError{Op: "get", Err: err}
	}
	if len(payload) == 0 {
		return nil, "", ErrBlobNotFound
	}

	var mediaType string
	if err := db.Get(bucketMediaTypes, key, &mediaType); err != nil && err != storm.ErrNotFound {
		return nil, "", &StorageError{Op: "get", Err: err}
	}
	if mediaType == "" {
		mediaType = mimetype.Detect(payload).String()
	}

	return payload, mediaType, nil
}

// Thumbnail returns the thumbnail side-car for key, or nil when none was stored.
func (s *Store) Thumbnail(key string) ([]byte, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var thumbnail []byte
	if err := db.Get(bucketThumbnails, key, &thumbnail); err != nil {
		if err == storm.ErrNotFound {
			return nil, nil
		}
		return nil, &StorageError{Op: "thumbnail", Err: err}
	}
	return thumbnail, nil
}

// Delete removes the payload and its side-cars. Deleting an absent key is not
// an error.
func (s *Store) Delete(key string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	for _, bucket := range []string{bucketVideos, bucketMediaTypes, bucketThumbnails} {
		if err := db.Delete(bucket, key); err != nil && err != storm.ErrNotFound {
			return &StorageError{Op: "delete", Err: err}
		}
	}
	return nil
}

// Close closes the underlying database if it was opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return errors.Wrap(err, "could not close blob store")
}

// NewKey returns a fresh blob key. Keys are locally fresh, not guaranteed
// globally unique: a millisecond timestamp keeps them monotonically
// distinguishable and the random suffix avoids collision under rapid
// repeated recordings.
func NewKey() string {
	return fmt.Sprintf("%d-%.8s", time.Now().UnixMilli(), uuid.Must(uuid.NewV4()).String())
}
