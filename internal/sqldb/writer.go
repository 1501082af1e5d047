package sqldb

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
)

// Writer replaces a table with a conditioned dataset: the table is dropped
// and recreated, then filled with batched multi-row inserts inside one
// transaction.
type Writer struct {
	db        *DB
	batchSize int
	now       func() time.Time
}

func NewWriter(db *DB) *Writer {
	return &Writer{db: db, batchSize: common.DefaultBatchSize, now: time.Now}
}

// Write implements the conditioning sink. Columns are the features in
// order, the target and a processed_at timestamp.
func (w *Writer) Write(ctx context.Context, table string, d *dataset.Dataset, featureNames []string, target string, kind cfg.ModelKind) error {
	integer := kind.IsClassification()
	records, err := dataset.Records(d, featureNames, target, integer)
	if err != nil {
		return err
	}

	columns := append(slices.Clone(featureNames), target, common.ProcessedAtColumn)
	processedAt := w.now().UTC()

	tx, err := w.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, w.createStatement(table, featureNames, target, integer)); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	batch := min(w.batchSize, w.db.dialect.maxParams/len(columns))
	for start := 0; start < len(records); start += batch {
		end := min(start+batch, len(records))

		args := make([]any, 0, (end-start)*len(columns))
		for _, record := range records[start:end] {
			args = append(args, record...)
			args = append(args, processedAt)
		}

		if _, err := tx.ExecContext(ctx, w.insertStatement(table, columns, end-start), args...); err != nil {
			return fmt.Errorf("insert rows %d-%d into %s: %w", start, end-1, table, err)
		}
		log.Debug().
			Str("table", table).
			Int("rows", end).
			Int("total", len(records)).
			Msg("Inserted batch")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}

	log.Info().
		Str("table", table).
		Int("rows", len(records)).
		Strs("features", featureNames).
		Msg("Saved processed data")
	return nil
}

func (w *Writer) createStatement(table string, featureNames []string, target string, integer bool) string {
	defs := make([]string, 0, len(featureNames)+2)
	for _, f := range featureNames {
		defs = append(defs, quoteIdent(f)+" "+w.db.dialect.floatType)
	}
	targetType := w.db.dialect.floatType
	if integer {
		targetType = w.db.dialect.intType
	}
	defs = append(defs,
		quoteIdent(target)+" "+targetType,
		quoteIdent(common.ProcessedAtColumn)+" "+w.db.dialect.timeType,
	)
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func (w *Writer) insertStatement(table string, columns []string, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoteAll(columns), ", "))

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(w.db.placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}
