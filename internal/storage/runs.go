package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"iris-ml/internal/pipeline"

	"go.etcd.io/bbolt"
)

// ErrRunNotFound is returned by GetRun for unknown run IDs.
var ErrRunNotFound = errors.New("run not found")

// SaveRun stores a run summary. The key format "timestamp_runID" keeps runs
// in creation order for range queries.
func (s *Store) SaveRun(summary pipeline.Summary) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshal run summary: %w", err)
		}

		return b.Put(runKey(summary.CreatedAt, summary.RunID), data)
	})
}

// GetRun looks a summary up by run ID.
func (s *Store) GetRun(runID string) (pipeline.Summary, error) {
	var found pipeline.Summary
	suffix := []byte("_" + runID)

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if !bytes.HasSuffix(k, suffix) {
				continue
			}
			return json.Unmarshal(v, &found)
		}
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	})
	return found, err
}

// GetRuns returns the summaries created within [start, end], oldest first.
func (s *Store) GetRuns(start, end time.Time) ([]pipeline.Summary, error) {
	var runs []pipeline.Summary

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(runsBucket)).Cursor()
		startKey := []byte(timestampKey(start))
		endKey := []byte(timestampKey(end) + "~")

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			var summary pipeline.Summary
			if err := json.Unmarshal(v, &summary); err != nil {
				continue // Skip malformed records
			}
			runs = append(runs, summary)
		}
		return nil
	})
	return runs, err
}

func runKey(createdAt time.Time, runID string) []byte {
	return []byte(timestampKey(createdAt) + "_" + runID)
}

// timestampKey zero-pads the nanosecond timestamp so keys sort by time.
func timestampKey(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}
