// Package dataset holds the tabular representation passed between the
// conditioning stages and the adapter that turns it into feature vectors.
//
// A Dataset is an ordered list of rows keyed by column name. It may carry an
// assembled "Features" column holding a []float32 per row; the names of the
// vector slots travel with the dataset so a feature can be read back by name
// after its source column has been dropped. Datasets are treated as
// immutable: every transformation returns a new Dataset.
package dataset

import (
	"slices"

	"iris-ml/internal/common"
)

// Row maps column name to value. Supported scalar values are the Go numeric
// types and bool; the Features column holds []float32.
type Row map[string]any

// Dataset is an ordered, immutable collection of rows.
type Dataset struct {
	columns     []string
	rows        []Row
	vectorNames []string
}

// New builds a dataset from a column schema and rows. Rows are copied so the
// caller may reuse its maps.
func New(columns []string, rows []Row) *Dataset {
	copied := make([]Row, len(rows))
	for i, r := range rows {
		copied[i] = cloneRow(r)
	}
	return &Dataset{
		columns: slices.Clone(columns),
		rows:    copied,
	}
}

// Columns returns the column schema in order.
func (d *Dataset) Columns() []string {
	return slices.Clone(d.columns)
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	return len(d.rows)
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) Row {
	return cloneRow(d.rows[i])
}

// HasColumn reports whether name is part of the schema.
func (d *Dataset) HasColumn(name string) bool {
	return slices.Contains(d.columns, name)
}

// HasFeatures reports whether a feature vector column has been assembled.
func (d *Dataset) HasFeatures() bool {
	return d.HasColumn(common.FeaturesColumn)
}

// VectorNames returns the feature names of the assembled vector slots.
func (d *Dataset) VectorNames() []string {
	return slices.Clone(d.vectorNames)
}

// Value returns the raw value stored at row i for column.
func (d *Dataset) Value(i int, column string) (any, bool) {
	v, ok := d.rows[i][column]
	return v, ok
}

// Float64s extracts a column as float64 values. A name that is not a column
// but is a slot of the assembled feature vector is read from the vector.
func (d *Dataset) Float64s(name string) ([]float64, error) {
	if d.HasColumn(name) {
		out := make([]float64, len(d.rows))
		for i, r := range d.rows {
			f, err := ToFloat64(name, r[name])
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	}

	slot := slices.Index(d.vectorNames, name)
	if slot < 0 || !d.HasFeatures() {
		return nil, &common.ColumnNotFoundError{Column: name}
	}

	out := make([]float64, len(d.rows))
	for i, r := range d.rows {
		vec, err := vectorOf(r)
		if err != nil {
			return nil, err
		}
		if slot >= len(vec) {
			return nil, common.NewComputationError("read feature slot",
				"row %d has %d features, slot %d (%s) requested", i, len(vec), slot, name)
		}
		out[i] = float64(vec[slot])
	}
	return out, nil
}

// Columns64 extracts several columns at once, in the given order.
func (d *Dataset) Columns64(names []string) ([][]float64, error) {
	out := make([][]float64, len(names))
	for i, n := range names {
		col, err := d.Float64s(n)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func vectorOf(r Row) ([]float32, error) {
	raw, ok := r[common.FeaturesColumn]
	if !ok {
		return nil, &common.ColumnNotFoundError{Column: common.FeaturesColumn}
	}
	vec, ok := raw.([]float32)
	if !ok {
		return nil, &common.UnsupportedTypeError{Column: common.FeaturesColumn, Type: typeName(raw)}
	}
	return vec, nil
}
