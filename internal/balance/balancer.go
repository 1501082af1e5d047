// Package balance rebalances class counts before training.
//
// Two variants exist: NoOp, which returns its input, and SMOTE, which
// undersamples the majority group and synthesizes minority rows by
// interpolating between nearest neighbors. Variants are looked up by
// method tag through a Registry.
package balance

import (
	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"
)

// Balancer changes the row composition of a dataset. It never changes the
// feature names.
type Balancer interface {
	Balance(d *dataset.Dataset, featureNames []string, target string, config cfg.BalancingConfig) (*Result, error)
}

// Result is the balanced dataset plus the counts behind it.
type Result struct {
	Data  *dataset.Dataset
	Stats Stats
}

// Stats describes how a dataset was rebalanced.
type Stats struct {
	Minority             int
	Majority             int
	UndersampledMajority int
	Synthetic            int
	Output               int
}
