package database

import (
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec/msgpack"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/pkg/errors"
)

type strm struct {
	db *storm.DB
}

// StormCodec is the format used to store data in the database.
var StormCodec = storm.Codec(msgpack.Codec)

// StormInit initializes Storm database.
func StormInit(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.Init(&model.User{}); err != nil {
		return errors.Wrap(err, "could not init user index")
	}

	err = db.Init(&model.Entry{})
	return errors.Wrap(err, "could not init entry index")
}

// StormReIndex reindex Storm database.
func StormReIndex(database string) error {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return errors.Wrap(err, "could not get database connection")
	}
	defer db.Close()

	if err := db.ReIndex(&model.User{}); err != nil {
		return errors.Wrap(err, "could not ReIndex users")
	}

	err = db.ReIndex(&model.Entry{})
	return errors.Wrap(err, "could not ReIndex entries")
}

// StormOpen returns a new Storm database connection.
func StormOpen(database string) (Client, error) {
	db, err := storm.Open(database, StormCodec)
	if err != nil {
		return nil, errors.Wrap(err, "could not get database connection")
	}

	return &strm{
		db: db,
	}, nil
}

// Save inserts or updates the entry in database with the given model.
func (c *strm) Save(m model.Model) error {
	t := time.Now().UTC()
	m.SetUpdatedAt(t)

	if m.GetID() == "" {
		m.SetID(uuid.Must(uuid.NewV4()).String())
		m.SetCreatedAt(t)
	}

	return errors.Wrap(c.db.Save(m), "could not save the model")
}

// Delete deletes the entry in database with the given model.
func (c *strm) Delete(m model.Model) error {
	return errors.Wrap(c.db.DeleteStruct(m), "could not delete the model")
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is a not found error.
func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

// FindUser returns the user for the given id (UUID).
func (c *strm) FindUser(id string) (*model.User, error) {
	var user model.User
	if err := c.db.One("ID", id, &user); err != nil {
		return nil, errors.Wrap(err, "find user by id")
	}
	return &user, nil
}

// FindUserBySubject returns the user for the given identity provider subject.
func (c *strm) FindUserBySubject(subject string) (*model.User, error) {
	var user model.User
	if err := c.db.One("SubjectID", subject, &user); err != nil {
		return nil, errors.Wrap(err, "find user by subject")
	}
	return &user, nil
}

// FindEntry returns the entry for the given id (UUID).
func (c *strm) FindEntry(id string) (*model.Entry, error) {
	var entry model.Entry
	if err := c.db.One("ID", id, &entry); err != nil {
		return nil, errors.Wrap(err, "could not find entry")
	}
	return &entry, nil
}

// FindEntryByUserID returns the entry for the given id and user id (UUID).
func (c *strm) FindEntryByUserID(id, userID string) (*model.Entry, error) {
	var entry model.Entry
	err := c.db.Select(q.Eq("ID", id), q.Eq("UserID", userID)).First(&entry)
	if err != nil {
		return nil, errors.Wrap(err, "could not find entry by user id")
	}
	return &entry, nil
}

// FindEntriesByUserID returns all the entries of the given user, newest created first.
func (c *strm) FindEntriesByUserID(userID string) ([]*model.Entry, error) {
	entries := make([]*model.Entry, 0)
	err := c.db.Select(q.Eq("UserID", userID)).OrderBy("CreatedAt").Reverse().Find(&entries)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find entries by user id")
	}
	return entries, nil
}

// DeleteEntry deletes the entry matching the given parameters.
func (c *strm) DeleteEntry(id, userID string) error {
	err := c.db.Select(q.Eq("ID", id), q.Eq("UserID", userID)).Delete(&model.Entry{})
	return errors.Wrap(err, "could not delete entry")
}
