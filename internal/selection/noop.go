package selection

import (
	"slices"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"
)

// NoOp keeps every candidate feature.
type NoOp struct{}

func NewNoOp() *NoOp {
	return &NoOp{}
}

func (NoOp) Select(d *dataset.Dataset, candidates []string, _ string, _ cfg.SelectionConfig) (*Result, error) {
	rep := newReport("No")
	rep.line("Using all enabled features: %d", len(candidates))
	for _, f := range candidates {
		rep.line("- %s", f)
	}

	out := d
	if !d.HasFeatures() {
		var err error
		if out, err = dataset.Assemble(d, candidates); err != nil {
			return nil, err
		}
	}

	rep.summary(len(candidates), candidates)

	return &Result{
		Data:     out,
		Features: slices.Clone(candidates),
		Report:   rep.String(),
	}, nil
}
