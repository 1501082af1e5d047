package pipeline

import (
	"slices"
	"time"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"
)

// ProcessedDataset is the immutable outcome of one conditioning run.
type ProcessedDataset struct {
	runID           string
	data            *dataset.Dataset
	featureNames    []string
	targetField     string
	originalRows    int
	balancedRows    int
	syntheticRows   int
	selectionReport string
	balancing       cfg.BalancingConfig
	selection       cfg.SelectionConfig
	balancingFirst  bool
	outputTable     string
	modelKind       cfg.ModelKind
	sinkErr         error
	createdAt       time.Time
}

func (p *ProcessedDataset) RunID() string { return p.runID }

func (p *ProcessedDataset) Data() *dataset.Dataset { return p.data }

// FeatureNames returns a copy of the final, ordered feature names.
func (p *ProcessedDataset) FeatureNames() []string { return slices.Clone(p.featureNames) }

func (p *ProcessedDataset) TargetField() string { return p.targetField }

func (p *ProcessedDataset) ModelKind() cfg.ModelKind { return p.modelKind }

// OutputTable is the configured destination table.
func (p *ProcessedDataset) OutputTable() string { return p.outputTable }

func (p *ProcessedDataset) OriginalRowCount() int { return p.originalRows }

func (p *ProcessedDataset) BalancedRowCount() int { return p.balancedRows }

func (p *ProcessedDataset) SyntheticRowCount() int { return p.syntheticRows }

func (p *ProcessedDataset) SelectionReport() string { return p.selectionReport }

func (p *ProcessedDataset) BalancingMethod() cfg.BalanceMethod { return p.balancing.Method }

func (p *ProcessedDataset) SelectionMethod() cfg.SelectionMethod { return p.selection.Method }

func (p *ProcessedDataset) BalancingExecutionOrder() int { return p.balancing.ExecutionOrder }

func (p *ProcessedDataset) SelectionExecutionOrder() int { return p.selection.ExecutionOrder }

func (p *ProcessedDataset) BalancingFirst() bool { return p.balancingFirst }

// SinkError is the suppressed sink failure, if any.
func (p *ProcessedDataset) SinkError() error { return p.sinkErr }

func (p *ProcessedDataset) CreatedAt() time.Time { return p.createdAt }

// Summary is the serializable description of a run, without the rows.
type Summary struct {
	RunID                   string    `json:"runId"`
	CreatedAt               time.Time `json:"createdAt"`
	ModelKind               string    `json:"modelKind,omitempty"`
	TargetField             string    `json:"targetField"`
	FeatureNames            []string  `json:"featureNames"`
	OriginalRowCount        int       `json:"originalRowCount"`
	BalancedRowCount        int       `json:"balancedRowCount"`
	SyntheticRowCount       int       `json:"syntheticRowCount"`
	BalancingMethod         string    `json:"balancingMethod"`
	SelectionMethod         string    `json:"selectionMethod"`
	BalancingExecutionOrder int       `json:"balancingExecutionOrder"`
	SelectionExecutionOrder int       `json:"selectionExecutionOrder"`
	BalancingFirst          bool      `json:"balancingFirst"`
	OutputTable             string    `json:"outputTable,omitempty"`
	SinkError               string    `json:"sinkError,omitempty"`
	SelectionReport         string    `json:"selectionReport"`
}

func (p *ProcessedDataset) Summary() Summary {
	s := Summary{
		RunID:                   p.runID,
		CreatedAt:               p.createdAt,
		ModelKind:               string(p.modelKind),
		TargetField:             p.targetField,
		FeatureNames:            p.FeatureNames(),
		OriginalRowCount:        p.originalRows,
		BalancedRowCount:        p.balancedRows,
		SyntheticRowCount:       p.syntheticRows,
		BalancingMethod:         string(p.balancing.Method),
		SelectionMethod:         string(p.selection.Method),
		BalancingExecutionOrder: p.balancing.ExecutionOrder,
		SelectionExecutionOrder: p.selection.ExecutionOrder,
		BalancingFirst:          p.balancingFirst,
		OutputTable:             p.outputTable,
		SelectionReport:         p.selectionReport,
	}
	if p.sinkErr != nil {
		s.SinkError = p.sinkErr.Error()
	}
	return s
}
