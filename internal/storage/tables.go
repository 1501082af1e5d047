package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"

	"go.etcd.io/bbolt"
)

// ErrTableNotFound is returned when reading a table that was never written.
var ErrTableNotFound = errors.New("table not found")

// PutTable replaces table with rows. Only the listed columns are stored.
func (s *Store) PutTable(table string, columns []string, rows []dataset.Row) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putTable(tx, table, columns, rows)
	})
}

// Write stores the conditioned dataset as table, dropping any previous
// content. Columns are the features in order, the target and a processed
// timestamp. Classification targets are stored as integers.
func (s *Store) Write(ctx context.Context, table string, d *dataset.Dataset, featureNames []string, target string, kind cfg.ModelKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	records, err := dataset.Records(d, featureNames, target, kind.IsClassification())
	if err != nil {
		return err
	}

	columns := append(slices.Clone(featureNames), target, common.ProcessedAtColumn)
	processedAt := time.Now().UTC().Format(time.RFC3339Nano)

	rows := make([]dataset.Row, len(records))
	for i, record := range records {
		row := make(dataset.Row, len(columns))
		for j, v := range record {
			row[columns[j]] = v
		}
		row[common.ProcessedAtColumn] = processedAt
		rows[i] = row
	}

	return s.PutTable(table, columns, rows)
}

// ReadTable returns the column order and rows of table. Numbers are
// returned as json.Number so integer labels keep their type.
func (s *Store) ReadTable(table string) ([]string, []dataset.Row, error) {
	var columns []string
	var rows []dataset.Row

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(tablesBucket)).Bucket([]byte(table))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrTableNotFound, table)
		}

		schema := tx.Bucket([]byte(schemasBucket)).Get([]byte(table))
		if err := json.Unmarshal(schema, &columns); err != nil {
			return fmt.Errorf("decode schema of %s: %w", table, err)
		}

		rows = make([]dataset.Row, 0, b.Stats().KeyN)
		return b.ForEach(func(k, v []byte) error {
			dec := json.NewDecoder(bytes.NewReader(v))
			dec.UseNumber()
			var row dataset.Row
			if err := dec.Decode(&row); err != nil {
				return fmt.Errorf("decode row %d of %s: %w", binary.BigEndian.Uint64(k), table, err)
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return columns, rows, nil
}

// CountRows returns the number of rows stored in table.
func (s *Store) CountRows(table string) (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(tablesBucket)).Bucket([]byte(table))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrTableNotFound, table)
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

// Tables lists stored table names in key order.
func (s *Store) Tables() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(tablesBucket)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			// Nested buckets have nil values.
			if v == nil {
				names = append(names, string(k))
			}
		}
		return nil
	})
	return names, err
}

// DropTable removes table. Dropping a missing table is not an error.
func (s *Store) DropTable(table string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return dropTable(tx, table)
	})
}

func putTable(tx *bbolt.Tx, table string, columns []string, rows []dataset.Row) error {
	if err := dropTable(tx, table); err != nil {
		return err
	}

	b, err := tx.Bucket([]byte(tablesBucket)).CreateBucket([]byte(table))
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	schema, err := json.Marshal(columns)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := tx.Bucket([]byte(schemasBucket)).Put([]byte(table), schema); err != nil {
		return fmt.Errorf("store schema of %s: %w", table, err)
	}

	for i, r := range rows {
		row := make(map[string]any, len(columns))
		for _, c := range columns {
			row[c] = r[c]
		}
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal row %d: %w", i, err)
		}
		if err := b.Put(rowKey(i), data); err != nil {
			return fmt.Errorf("store row %d: %w", i, err)
		}
	}
	return nil
}

func dropTable(tx *bbolt.Tx, table string) error {
	tables := tx.Bucket([]byte(tablesBucket))
	if tables.Bucket([]byte(table)) == nil {
		return nil
	}
	if err := tables.DeleteBucket([]byte(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return tx.Bucket([]byte(schemasBucket)).Delete([]byte(table))
}

func rowKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
