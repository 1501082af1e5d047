package dataset

import (
	"slices"

	"iris-ml/internal/common"
)

// FeatureVector is one row's predictive inputs plus its label.
type FeatureVector struct {
	Features []float32
	Label    float64
}

// Assemble returns a copy of d with a Features column built from names, in
// order. All other columns are kept; an existing Features column is
// replaced.
func Assemble(d *Dataset, names []string) (*Dataset, error) {
	cols, err := d.Columns64(names)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(d.rows))
	for i, r := range d.rows {
		vec := make([]float32, len(names))
		for j := range names {
			vec[j] = float32(cols[j][i])
		}
		row := cloneRow(r)
		row[common.FeaturesColumn] = vec
		rows[i] = row
	}

	columns := slices.Clone(d.columns)
	if !slices.Contains(columns, common.FeaturesColumn) {
		columns = append(columns, common.FeaturesColumn)
	}

	return &Dataset{
		columns:     columns,
		rows:        rows,
		vectorNames: slices.Clone(names),
	}, nil
}

// WithVectorNames returns d with names attached to the slots of its
// existing Features column. Every row's vector must be len(names) wide.
func WithVectorNames(d *Dataset, names []string) (*Dataset, error) {
	if !d.HasFeatures() {
		return nil, &common.ColumnNotFoundError{Column: common.FeaturesColumn}
	}
	for i, r := range d.rows {
		vec, err := vectorOf(r)
		if err != nil {
			return nil, err
		}
		if len(vec) != len(names) {
			return nil, common.NewComputationError("name feature vector",
				"row %d has %d features, %d names given", i, len(vec), len(names))
		}
	}
	return &Dataset{
		columns:     slices.Clone(d.columns),
		rows:        d.rows,
		vectorNames: slices.Clone(names),
	}, nil
}

// Vectors converts an assembled dataset into (features, label) pairs. Every
// vector must have the same width.
func Vectors(d *Dataset, target string) ([]FeatureVector, error) {
	if !d.HasFeatures() {
		return nil, &common.ColumnNotFoundError{Column: common.FeaturesColumn}
	}
	labels, err := d.Float64s(target)
	if err != nil {
		return nil, err
	}

	out := make([]FeatureVector, len(d.rows))
	width := -1
	for i, r := range d.rows {
		vec, err := vectorOf(r)
		if err != nil {
			return nil, err
		}
		if width < 0 {
			width = len(vec)
		} else if len(vec) != width {
			return nil, common.NewComputationError("read feature vectors",
				"row %d has %d features, expected %d", i, len(vec), width)
		}
		out[i] = FeatureVector{Features: slices.Clone(vec), Label: labels[i]}
	}
	return out, nil
}

// FromVectors builds a dataset with a Features column named by names and a
// label column named target.
func FromVectors(vectors []FeatureVector, names []string, target string) (*Dataset, error) {
	rows := make([]Row, len(vectors))
	for i, v := range vectors {
		if len(v.Features) != len(names) {
			return nil, common.NewComputationError("build dataset",
				"vector %d has %d features, expected %d", i, len(v.Features), len(names))
		}
		rows[i] = Row{
			common.FeaturesColumn: slices.Clone(v.Features),
			target:                v.Label,
		}
	}
	return &Dataset{
		columns:     []string{common.FeaturesColumn, target},
		rows:        rows,
		vectorNames: slices.Clone(names),
	}, nil
}
