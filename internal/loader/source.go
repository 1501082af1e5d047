// Package loader reads datasets from files, the embedded store or a SQL
// database. Every source loads only the requested feature columns plus the
// target, typing the target by model kind.
package loader

import (
	"context"
	"slices"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"
)

// Source provides the raw dataset a conditioning run starts from.
type Source interface {
	// Count returns the number of rows matching filter.
	Count(ctx context.Context, filter string) (int64, error)
	// Load reads featureColumns and targetColumn for rows matching filter.
	Load(ctx context.Context, featureColumns []string, targetColumn string, filter string) (*dataset.Dataset, error)
}

func rejectFilter(filter string) error {
	if filter == "" {
		return nil
	}
	return common.NewConfigurationError("loader", "row filters are only supported by SQL sources")
}

// project keeps featureColumns and target from rows. Every row must carry
// every requested column; the target is typed by kind.
func project(rows []dataset.Row, featureColumns []string, target string, kind cfg.ModelKind) (*dataset.Dataset, error) {
	columns := append(slices.Clone(featureColumns), target)

	out := make([]dataset.Row, len(rows))
	for i, r := range rows {
		row := make(dataset.Row, len(columns))
		for _, c := range columns {
			v, ok := r[c]
			if !ok {
				return nil, &common.ColumnNotFoundError{Column: c}
			}
			row[c] = v
		}

		label, err := dataset.LabelValue(target, row[target], kind.IsClassification())
		if err != nil {
			return nil, err
		}
		row[target] = label
		out[i] = row
	}

	return dataset.New(columns, out), nil
}

// columnsMissing reports the first requested column absent from header.
func columnsMissing(header map[string]int, columns []string) error {
	for _, c := range columns {
		if _, ok := header[c]; !ok {
			return &common.ColumnNotFoundError{Column: c}
		}
	}
	return nil
}
