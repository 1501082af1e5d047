// Package selection reduces or transforms the feature set of a dataset.
//
// Variants are NoOp (keep every candidate), Correlation (rank by absolute
// Pearson correlation with the target and prune multicollinear features)
// and PCA (project min-max normalized features onto principal components).
// Each call returns its own human-readable report.
package selection

import (
	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"
)

// Selector narrows or transforms candidate features. The returned dataset
// carries the selected features assembled into the Features column.
type Selector interface {
	Select(d *dataset.Dataset, candidates []string, target string, config cfg.SelectionConfig) (*Result, error)
}

// Result of one selection call.
type Result struct {
	Data     *dataset.Dataset
	Features []string
	Report   string
}
