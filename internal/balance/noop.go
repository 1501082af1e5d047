package balance

import (
	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
)

// NoOp returns the dataset unchanged.
type NoOp struct{}

func NewNoOp() *NoOp {
	return &NoOp{}
}

func (NoOp) Balance(d *dataset.Dataset, _ []string, _ string, _ cfg.BalancingConfig) (*Result, error) {
	log.Info().Int("rows", d.RowCount()).Msg("No data balancing applied")
	return &Result{Data: d, Stats: Stats{Output: d.RowCount()}}, nil
}
