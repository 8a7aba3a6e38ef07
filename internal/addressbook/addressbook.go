// Package addressbook persists deployed contract addresses under a label so
// later call/query batches can reference "@label" instead of a literal hex
// address. It mirrors internal/db/checkpoint.go's bbolt open/bucket-ensure/
// JSON-marshal shape, retargeted from checkpoint-by-service-name to
// address-by-label.
package addressbook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/0xkanth/evmload/pkg/models"
)

const addressBucket = "addresses"

// Store provides label -> deployed address persistence using BoltDB.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the address book at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open address book: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(addressBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create address bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Put records an entry under entry.Label, overwriting any prior entry with
// the same label.
func (s *Store) Put(entry models.AddressBookEntry) error {
	if entry.Label == "" {
		return fmt.Errorf("address book entry requires a non-empty label")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(addressBucket))
		if b == nil {
			return fmt.Errorf("address bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal address book entry: %w", err)
		}

		return b.Put([]byte(entry.Label), data)
	})
}

// Get looks up an entry by label.
func (s *Store) Get(label string) (models.AddressBookEntry, error) {
	var entry models.AddressBookEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(addressBucket))
		if b == nil {
			return fmt.Errorf("address bucket not found")
		}

		data := b.Get([]byte(label))
		if data == nil {
			return fmt.Errorf("no address book entry for label %q", label)
		}

		return json.Unmarshal(data, &entry)
	})

	return entry, err
}

// ResolveAddress returns ref verbatim if it isn't a label reference
// ("@label"), or the recorded address for that label otherwise.
func (s *Store) ResolveAddress(ref string) (string, error) {
	label, ok := strings.CutPrefix(ref, "@")
	if !ok {
		return ref, nil
	}

	entry, err := s.Get(label)
	if err != nil {
		return "", err
	}
	return entry.Address.Hex(), nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
