// Package pipeline runs class balancing and feature selection over a dataset
// in the configured order and hands the result to an optional sink.
package pipeline

import (
	"context"
	"slices"
	"time"

	"iris-ml/internal/balance"
	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"
	"iris-ml/internal/metrics"
	"iris-ml/internal/selection"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sink persists a conditioned dataset. Columns are written as the feature
// names in order followed by the target.
type Sink interface {
	Write(ctx context.Context, table string, d *dataset.Dataset, featureNames []string, target string, kind cfg.ModelKind) error
}

// MetricsInterface defines metrics methods needed by the conditioner
type MetricsInterface interface {
	RunsInc()
	RunFailuresInc()
	RunDurationObserve(float64)
	StageDurationObserve(stage string, seconds float64)
	RowsObserve(input, output int)
	SyntheticRowsAdd(int)
	SelectedFeaturesSet(int)
	SinkWritesInc()
	SinkFailuresInc()
}

// Output names where and how the conditioned table is written.
type Output struct {
	Table     string
	ModelKind cfg.ModelKind
}

type Conditioner struct {
	balancers *balance.Registry
	selectors *selection.Registry
	sink      Sink
	output    Output
	metrics   MetricsInterface
	now       func() time.Time
}

// New builds a conditioner with the built-in balancers and selectors. sink
// and m may be nil.
func New(output Output, sink Sink, m MetricsInterface) *Conditioner {
	return &Conditioner{
		balancers: balance.NewRegistry(),
		selectors: selection.NewRegistry(),
		sink:      sink,
		output:    output,
		metrics:   m,
		now:       time.Now,
	}
}

func (c *Conditioner) Balancers() *balance.Registry { return c.balancers }

func (c *Conditioner) Selectors() *selection.Registry { return c.selectors }

// Condition balances and selects features of d. A sink failure is logged,
// counted and kept on the result; every other error aborts the run.
func (c *Conditioner) Condition(ctx context.Context, d *dataset.Dataset, candidates []string, target string,
	bal cfg.BalancingConfig, sel cfg.SelectionConfig) (*ProcessedDataset, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.RunsInc()
	}

	result, err := c.condition(ctx, d, candidates, target, bal, sel)

	if c.metrics != nil {
		c.metrics.RunDurationObserve(time.Since(start).Seconds())
		if err != nil {
			c.metrics.RunFailuresInc()
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("Conditioning failed")
		return nil, err
	}
	return result, nil
}

func (c *Conditioner) condition(ctx context.Context, d *dataset.Dataset, candidates []string, target string,
	bal cfg.BalancingConfig, sel cfg.SelectionConfig) (*ProcessedDataset, error) {
	features := featureCandidates(candidates, target)

	var violations []string
	for _, v := range bal.Validate() {
		violations = append(violations, "balancing: "+v)
	}
	for _, v := range sel.Validate() {
		violations = append(violations, "selection: "+v)
	}
	if target == "" {
		violations = append(violations, "target field is required")
	}
	if len(features) == 0 {
		violations = append(violations, "at least one candidate feature besides the target is required")
	}
	if len(violations) > 0 {
		return nil, common.NewConfigurationError("conditioning", violations...)
	}

	balancer, err := c.balancers.Lookup(bal.Method)
	if err != nil {
		return nil, err
	}
	selector, err := c.selectors.Lookup(sel.Method)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current := d
	switch {
	case d.HasFeatures() && len(d.VectorNames()) == 0:
		// Vector assembled upstream: its slots are the candidates, in order.
		if current, err = dataset.WithVectorNames(d, features); err != nil {
			return nil, err
		}
	case !d.HasFeatures() || !slices.Equal(d.VectorNames(), features):
		stageStart := time.Now()
		if current, err = dataset.Assemble(d, features); err != nil {
			return nil, err
		}
		c.observeStage(metrics.StageAdapt, stageStart)
	}

	balancingFirst := bal.ExecutionOrder <= sel.ExecutionOrder
	if bal.Method != cfg.BalanceNone && sel.Method != cfg.SelectionNone {
		order := "Feature Selection -> Data Balancing"
		if balancingFirst {
			order = "Data Balancing -> Feature Selection"
		}
		log.Info().
			Int("balancing_order", bal.ExecutionOrder).
			Int("selection_order", sel.ExecutionOrder).
			Msgf("Processing order: %s", order)
	}

	names := features
	var synthetic int
	var report string

	runBalance := func() error {
		stageStart := time.Now()
		res, err := balancer.Balance(current, names, target, bal)
		if err != nil {
			return err
		}
		current = res.Data
		synthetic = res.Stats.Synthetic
		c.observeStage(metrics.StageBalance, stageStart)
		log.Info().
			Str("method", string(bal.Method)).
			Int("rows", current.RowCount()).
			Int("synthetic", synthetic).
			Msg("Balancing complete")
		return nil
	}

	runSelect := func() error {
		stageStart := time.Now()
		res, err := selector.Select(current, names, target, sel)
		if err != nil {
			return err
		}
		current = res.Data
		names = res.Features
		report = res.Report
		c.observeStage(metrics.StageSelection, stageStart)
		log.Info().
			Str("method", string(sel.Method)).
			Strs("features", names).
			Msg("Feature selection complete")
		log.Info().Msg(report)
		return nil
	}

	stages := []func() error{runBalance, runSelect}
	if !balancingFirst {
		stages = []func() error{runSelect, runBalance}
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stage(); err != nil {
			return nil, err
		}
	}

	result := &ProcessedDataset{
		runID:           uuid.NewString(),
		data:            current,
		featureNames:    slices.Clone(names),
		targetField:     target,
		originalRows:    d.RowCount(),
		balancedRows:    current.RowCount(),
		syntheticRows:   synthetic,
		selectionReport: report,
		balancing:       bal,
		selection:       sel,
		balancingFirst:  balancingFirst,
		outputTable:     c.output.Table,
		modelKind:       c.output.ModelKind,
		createdAt:       c.now(),
	}

	if c.sink != nil && c.output.Table != "" {
		result.sinkErr = c.writeSink(ctx, result)
	}

	if c.metrics != nil {
		c.metrics.RowsObserve(result.originalRows, result.balancedRows)
		c.metrics.SyntheticRowsAdd(synthetic)
		c.metrics.SelectedFeaturesSet(len(names))
	}

	log.Info().
		Str("run_id", result.runID).
		Int("original_rows", result.originalRows).
		Int("final_rows", result.balancedRows).
		Int("features", len(names)).
		Msg("Conditioning complete")

	return result, nil
}

func (c *Conditioner) writeSink(ctx context.Context, result *ProcessedDataset) error {
	start := time.Now()
	err := c.sink.Write(ctx, c.output.Table, result.data, result.FeatureNames(), result.targetField, c.output.ModelKind)
	c.observeStage(metrics.StageSink, start)

	if err != nil {
		log.Warn().
			Err(err).
			Str("table", c.output.Table).
			Msg("Failed to save processed data, continuing with in-memory result")
		if c.metrics != nil {
			c.metrics.SinkFailuresInc()
		}
		return err
	}

	if c.metrics != nil {
		c.metrics.SinkWritesInc()
	}
	log.Info().
		Str("table", c.output.Table).
		Int("rows", result.data.RowCount()).
		Msg("Processed data saved")
	return nil
}

func (c *Conditioner) observeStage(stage string, start time.Time) {
	if c.metrics != nil {
		c.metrics.StageDurationObserve(stage, time.Since(start).Seconds())
	}
}

// featureCandidates drops the target and duplicate names, keeping order.
func featureCandidates(candidates []string, target string) []string {
	out := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if name == target || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}
