package database

import (
	"github.com/mindmirror/mindmirror/internal/model"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool

		UserInteraction
		EntryInteraction
	}

	// An UserInteraction defines all the methods used to interact with a user record.
	UserInteraction interface {
		// FindUser returns the user for the given id (UUID).
		FindUser(id string) (*model.User, error)
		// FindUserBySubject returns the user for the given identity provider subject.
		FindUserBySubject(subject string) (*model.User, error)
	}

	// An EntryInteraction defines all the methods used to interact with an entry record(s).
	EntryInteraction interface {
		// FindEntry returns the entry for the given id (UUID).
		FindEntry(id string) (*model.Entry, error)
		// FindEntryByUserID returns the entry for the given id and user id (UUID).
		FindEntryByUserID(id, userID string) (*model.Entry, error)
		// FindEntriesByUserID returns all the entries of the given user,
		// newest created first.
		FindEntriesByUserID(userID string) ([]*model.Entry, error)
		// DeleteEntry deletes the entry matching the given parameters.
		DeleteEntry(id, userID string) error
	}
)
