package sqldb

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
)

// Loader reads feature and target columns from a table. The filter is an
// SQL boolean expression appended as the WHERE clause.
type Loader struct {
	db    *DB
	table string
	kind  cfg.ModelKind
}

func NewLoader(db *DB, table string, kind cfg.ModelKind) *Loader {
	return &Loader{db: db, table: table, kind: kind}
}

func (l *Loader) Count(ctx context.Context, filter string) (int64, error) {
	query := "SELECT COUNT(*) FROM " + quoteIdent(l.table) + where(filter)

	var n int64
	if err := l.db.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows of %s: %w", l.table, err)
	}
	return n, nil
}

func (l *Loader) Load(ctx context.Context, featureColumns []string, targetColumn string, filter string) (*dataset.Dataset, error) {
	columns := append(slices.Clone(featureColumns), targetColumn)
	if err := l.checkColumns(ctx, columns); err != nil {
		return nil, err
	}

	total, err := l.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("table", l.table).
		Str("driver", l.db.dialect.description).
		Int64("rows", total).
		Msg("Loading data")

	query := fmt.Sprintf("SELECT %s FROM %s%s",
		strings.Join(quoteAll(columns), ", "), quoteIdent(l.table), where(filter))

	rows, err := l.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", l.table, err)
	}
	defer rows.Close()

	integer := l.kind.IsClassification()
	out := make([]dataset.Row, 0, total)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", l.table, err)
		}

		row := make(dataset.Row, len(columns))
		for i, c := range columns {
			row[c] = normalize(values[i])
		}
		label, err := dataset.LabelValue(targetColumn, row[targetColumn], integer)
		if err != nil {
			return nil, err
		}
		row[targetColumn] = label
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", l.table, err)
	}

	log.Info().
		Str("table", l.table).
		Int("rows", len(out)).
		Msg("Data loaded successfully")

	return dataset.New(columns, out), nil
}

// checkColumns fails with ColumnNotFoundError when the table lacks one of
// columns. Checked up front because SQLite reads an unknown quoted
// identifier as a string literal.
func (l *Loader) checkColumns(ctx context.Context, columns []string) error {
	rows, err := l.db.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(l.table)+" WHERE 1 = 0")
	if err != nil {
		return fmt.Errorf("inspect %s: %w", l.table, err)
	}
	defer rows.Close()

	existing, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("inspect %s: %w", l.table, err)
	}
	for _, c := range columns {
		if !slices.Contains(existing, c) {
			return &common.ColumnNotFoundError{Column: c}
		}
	}
	return nil
}

func where(filter string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return ""
	}
	return " WHERE " + filter
}

// normalize converts driver text representations of numbers into float64.
// NUMERIC columns arrive as []byte or string depending on the driver.
func normalize(v any) any {
	var s string
	switch x := v.(type) {
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
