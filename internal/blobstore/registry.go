package blobstore

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// A Registry hands out one Store per user identity, opened lazily and shared
// for the process lifetime. Stores are partitioned per user; switching users
// neither migrates nor validates data recorded under another identity.
type Registry struct {
	dir string
	log logrus.FieldLogger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry returns a Registry creating store files under dir.
func NewRegistry(dir string, log logrus.FieldLogger) *Registry {
	return &Registry{
		dir:    dir,
		log:    log,
		stores: make(map[string]*Store),
	}
}

// For returns the store of the given user. An empty userID yields the legacy
// shared store predating per-user partitioning.
func (r *Registry) For(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[userID]
	if !ok {
		name := "videos.db"
		if userID != "" {
			name = fmt.Sprintf("videos-%s.db", userID)
		}
		store = New(filepath.Join(r.dir, name), r.log)
		r.stores[userID] = store
	}
	return store
}

// Close closes every opened store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	for _, store := range r.stores {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
