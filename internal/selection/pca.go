package selection

import (
	"fmt"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA replaces the candidate features with their leading principal
// components, computed on min-max normalized values. Output features are
// named Component_1..Component_n.
type PCA struct{}

func NewPCA() *PCA {
	return &PCA{}
}

func (p *PCA) Select(d *dataset.Dataset, candidates []string, target string, config cfg.SelectionConfig) (*Result, error) {
	if len(candidates) == 0 {
		return nil, common.NewConfigurationError("selection", "at least one candidate feature is required")
	}

	rep := newReport("PCA")

	components := config.NumberOfComponents
	if components <= 0 || components > len(candidates) {
		clamped := min(len(candidates), common.MaxDefaultComponents)
		rep.line("Warning: Invalid number of components (%d). Using %d components instead.", components, clamped)
		log.Warn().
			Int("requested", components).
			Int("using", clamped).
			Msg("Invalid number of PCA components")
		components = clamped
	}
	rep.line("Applying PCA with %d components", components)

	columns, err := d.Columns64(candidates)
	if err != nil {
		return nil, err
	}
	labels, err := d.Float64s(target)
	if err != nil {
		return nil, err
	}

	rows := len(labels)
	if rows < components {
		return nil, common.NewComputationError("pca", "need at least %d rows for %d components, got %d", components, components, rows)
	}

	features := mat.NewDense(rows, len(candidates), nil)
	for j, col := range columns {
		features.SetCol(j, centered(normalized(col)))
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(features, nil); !ok {
		return nil, common.NewComputationError("pca", "decomposition of %dx%d matrix failed", rows, len(candidates))
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	if _, c := vectors.Dims(); c < components {
		return nil, common.NewComputationError("pca", "only %d components available, need %d", c, components)
	}

	var projected mat.Dense
	projected.Mul(features, vectors.Slice(0, len(candidates), 0, components))

	variances := pc.VarsTo(nil)
	total := floats.Sum(variances)

	names := make([]string, components)
	projectedColumns := make([][]float64, components)
	rep.line("")
	rep.line("Explained variance:")
	for i := range names {
		names[i] = fmt.Sprintf("Component_%d", i+1)
		projectedColumns[i] = mat.Col(nil, i, &projected)
		ratio := 0.0
		if total > 0 {
			ratio = variances[i] / total
		}
		rep.line("%-40s | %.4f", names[i], ratio)
	}

	rep.summary(len(candidates), names)
	rep.line("Components: %v", names)

	out, err := dataset.FromVectors(toVectors(projectedColumns, labels), names, target)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("candidates", len(candidates)).
		Int("components", components).
		Msg("PCA feature extraction complete")

	return &Result{Data: out, Features: names, Report: rep.String()}, nil
}

// normalized rescales values to [0, 1]. A constant column maps to 0.
func normalized(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out
}

func centered(values []float64) []float64 {
	mean := stat.Mean(values, nil)
	for i := range values {
		values[i] -= mean
	}
	return values
}
