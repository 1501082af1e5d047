package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
)

// CSV reads a comma-separated file with a header row.
type CSV struct {
	path string
	kind cfg.ModelKind
}

func NewCSV(path string, kind cfg.ModelKind) *CSV {
	return &CSV{path: path, kind: kind}
}

func (c *CSV) Count(ctx context.Context, filter string) (int64, error) {
	if err := rejectFilter(filter); err != nil {
		return 0, err
	}

	var n int64
	err := c.scan(ctx, nil, func(_ []string) error {
		n++
		return nil
	})
	return n, err
}

func (c *CSV) Load(ctx context.Context, featureColumns []string, targetColumn string, filter string) (*dataset.Dataset, error) {
	if err := rejectFilter(filter); err != nil {
		return nil, err
	}

	columns := append(slices.Clone(featureColumns), targetColumn)
	var indices map[string]int
	var rows []dataset.Row

	onHeader := func(header map[string]int) error {
		indices = header
		return columnsMissing(header, columns)
	}
	err := c.scan(ctx, onHeader, func(record []string) error {
		row := make(dataset.Row, len(columns))
		for _, name := range columns {
			row[name] = parseCell(record[indices[name]])
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d, err := project(rows, featureColumns, targetColumn, c.kind)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", c.path).
		Int("rows", d.RowCount()).
		Msg("CSV data loaded successfully")
	return d, nil
}

// scan hands the header index map to onHeader, then calls fn for every
// data record.
func (c *CSV) scan(ctx context.Context, onHeader func(map[string]int) error, fn func(record []string) error) error {
	file, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	indices := make(map[string]int, len(header))
	for i, col := range header {
		indices[col] = i
	}
	if onHeader != nil {
		if err := onHeader(indices); err != nil {
			return err
		}
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read CSV line %d: %w", line, err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

// parseCell turns a CSV cell into a number, a boolean, nil for an empty
// cell, or the raw string.
func parseCell(s string) any {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

var _ Source = (*CSV)(nil)
