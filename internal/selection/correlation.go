package selection

import (
	"cmp"
	"math"
	"slices"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Correlation ranks candidates by absolute Pearson correlation with the
// target and greedily keeps features that are not too correlated with an
// already kept one.
type Correlation struct{}

func NewCorrelation() *Correlation {
	return &Correlation{}
}

type ranked struct {
	index       int
	correlation float64
}

func (c *Correlation) Select(d *dataset.Dataset, candidates []string, target string, config cfg.SelectionConfig) (*Result, error) {
	config.Method = cfg.SelectionCorrelation
	violations := config.Validate()
	if len(candidates) == 0 {
		violations = append(violations, "at least one candidate feature is required")
	}
	if err := violations.Err("selection"); err != nil {
		return nil, err
	}

	columns, err := d.Columns64(candidates)
	if err != nil {
		return nil, err
	}
	labels, err := d.Float64s(target)
	if err != nil {
		return nil, err
	}

	rows := len(labels)
	if rows < 2 {
		return nil, common.NewComputationError("correlation", "need at least 2 rows, got %d", rows)
	}
	if stat.Variance(labels, nil) == 0 {
		return nil, common.NewComputationError("correlation", "target %q has zero variance", target)
	}

	rep := newReport("Correlation-based")
	rep.line("Maximum features: %d", config.MaxFeatures)
	rep.line("Multicollinearity threshold: %.2f", config.MulticollinearityThreshold)

	features := mat.NewDense(rows, len(candidates), nil)
	for j, col := range columns {
		features.SetCol(j, col)
	}
	pairwise := correlationMatrix(features)

	ranking := make([]ranked, len(candidates))
	var constant []string
	for j, col := range columns {
		r := stat.Correlation(col, labels, nil)
		if math.IsNaN(r) {
			constant = append(constant, candidates[j])
			r = 0
		}
		ranking[j] = ranked{index: j, correlation: math.Abs(r)}
	}
	slices.SortStableFunc(ranking, func(a, b ranked) int {
		return cmp.Compare(b.correlation, a.correlation)
	})

	if len(constant) > 0 {
		rep.line("Zero-variance features scored 0: %v", constant)
	}

	rep.line("")
	rep.line("Features Ranked by Target Correlation:")
	for _, r := range ranking {
		rep.line("%-40s | %.4f", candidates[r.index], r.correlation)
	}

	selected := greedySelect(ranking, pairwise, config.MaxFeatures, config.MulticollinearityThreshold)
	if len(selected) == 0 {
		selected = []ranked{ranking[0]}
		rep.line("No features passed the threshold, keeping the top ranked feature")
	}

	names := make([]string, len(selected))
	selectedColumns := make([][]float64, len(selected))
	for i, s := range selected {
		names[i] = candidates[s.index]
		selectedColumns[i] = columns[s.index]
	}

	rep.summary(len(candidates), names)
	rep.line("")
	rep.line("Selected Features:")
	for _, s := range selected {
		rep.line("- %s (correlation with target: %.4f)", candidates[s.index], s.correlation)
	}

	out, err := dataset.FromVectors(toVectors(selectedColumns, labels), names, target)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("candidates", len(candidates)).
		Strs("selected", names).
		Msg("Correlation feature selection complete")

	return &Result{Data: out, Features: names, Report: rep.String()}, nil
}

// greedySelect walks the ranking and accepts a feature unless its absolute
// correlation with an accepted feature exceeds threshold.
func greedySelect(ranking []ranked, pairwise *mat.SymDense, maxFeatures int, threshold float64) []ranked {
	var selected []ranked
	for _, candidate := range ranking {
		if len(selected) >= maxFeatures {
			break
		}
		ok := true
		for _, s := range selected {
			if math.Abs(pairwise.At(candidate.index, s.index)) > threshold {
				ok = false
				break
			}
		}
		if ok {
			selected = append(selected, candidate)
		}
	}
	return selected
}

// correlationMatrix computes every pairwise correlation once. Pairs with a
// constant column are reported as 0.
func correlationMatrix(features *mat.Dense) *mat.SymDense {
	_, n := features.Dims()
	corr := mat.NewSymDense(n, nil)
	stat.CorrelationMatrix(corr, features, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if math.IsNaN(corr.At(i, j)) {
				corr.SetSym(i, j, 0)
			}
		}
	}
	return corr
}

// toVectors transposes feature columns into per-row vectors.
func toVectors(columns [][]float64, labels []float64) []dataset.FeatureVector {
	vectors := make([]dataset.FeatureVector, len(labels))
	for i := range vectors {
		features := make([]float32, len(columns))
		for j, col := range columns {
			features[j] = float32(col[i])
		}
		vectors[i] = dataset.FeatureVector{Features: features, Label: labels[i]}
	}
	return vectors
}
