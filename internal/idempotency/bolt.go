// Package idempotency remembers the outcome of registrations submitted with
// an Idempotency-Key, so a retried request returns the original id instead
// of registering the same item twice.
//
// Records live in a BoltDB file. Bolt serialises write transactions, so the
// lookup, the registration and the write of the key happen with no other
// keyed registration in between. The registration itself commits to the
// equipment store first; if the key then cannot be written, Do reports
// ErrNotRecorded together with the new id and a retry would register again.
package idempotency

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "registrations"

var (
	// ErrEmptyKey is returned when Do is called without a key.
	ErrEmptyKey = errors.New("idempotency key is empty")
	// ErrNotRecorded is returned when fn succeeded but its id could not be
	// stored under the key. The id Do returns alongside it is valid.
	ErrNotRecorded = errors.New("registration succeeded but idempotency key was not recorded")
)

// Store wraps a BoltDB database of key -> equipment id records.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) a BoltDB database at the given path and ensures the
// registrations bucket exists.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Do returns the id stored under key, or runs fn and stores its id.
// replayed reports whether the id came from an earlier call. When fn fails
// nothing is stored and the next call with the same key runs fn again.
func (s *Store) Do(key string, fn func() (int64, error)) (id int64, replayed bool, err error) {
	if key == "" {
		return 0, false, ErrEmptyKey
	}

	registered := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		if existing := b.Get([]byte(key)); existing != nil {
			id = int64(binary.BigEndian.Uint64(existing))
			replayed = true
			return nil
		}

		newID, err := fn()
		if err != nil {
			return err
		}
		id, registered = newID, true

		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(newID))
		return b.Put([]byte(key), buf)
	})
	switch {
	case err == nil:
		return id, replayed, nil
	case registered:
		log.Printf("Idempotency key %q not recorded for registered equipment %d: %v", key, id, err)
		return id, false, fmt.Errorf("%w: equipment %d: %v", ErrNotRecorded, id, err)
	default:
		return 0, false, err
	}
}
