// Package storage provides persistent storage for conditioning runs.
// It uses BoltDB as the underlying storage engine to keep raw and
// conditioned tables together with the summaries of completed runs.
//
// Each table lives in its own nested bucket under the tables bucket, with
// rows keyed by their big-endian index so cursor order is row order.
package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	tablesBucket  = "tables"  // Parent bucket of one nested bucket per table
	schemasBucket = "schemas" // Column order per table
	runsBucket    = "runs"    // Run summaries keyed by timestamp and run ID

	dbFile = "conditioning.db"
)

// Store provides persistent storage for tables and run summaries using
// BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and makes sure every
// top-level bucket exists.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{tablesBucket, schemasBucket, runsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.db.Path()
}
