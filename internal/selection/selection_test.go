package selection

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
	"iris-ml/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func columnsDataset(columns map[string][]float64, order []string) *dataset.Dataset {
	rows := make([]dataset.Row, len(columns[order[0]]))
	for i := range rows {
		row := dataset.Row{}
		for _, name := range order {
			row[name] = columns[name][i]
		}
		rows[i] = row
	}
	return dataset.New(order, rows)
}

func correlationConfig(maxFeatures int, threshold float64) cfg.SelectionConfig {
	return cfg.SelectionConfig{
		Method:                     cfg.SelectionCorrelation,
		MaxFeatures:                maxFeatures,
		MulticollinearityThreshold: threshold,
	}
}

func TestCorrelation_SelectsRankedAndDropsCollinear(t *testing.T) {
	d := columnsDataset(map[string][]float64{
		"A":     {1, 2, 3, 4, 5, 6, 7, 8},
		"B":     {1, 2, 3, 4, 5, 6, 8, 7},
		"C":     {1, 0, 1, 0, 1, 0, 1, 0},
		"D":     {5, 5, 5, 5, 5, 5, 5, 5},
		"Label": {1, 2, 3, 4, 5, 6, 7, 8},
	}, []string{"A", "B", "C", "D", "Label"})

	res, err := NewCorrelation().Select(d, []string{"A", "B", "C", "D"}, "Label", correlationConfig(3, 0.9))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C", "D"}, res.Features)
	assert.Equal(t, []string{"A", "C", "D"}, res.Data.VectorNames())
	assert.Equal(t, 8, res.Data.RowCount())

	assert.Contains(t, res.Report, "Correlation-based Feature Selection Results")
	assert.Contains(t, res.Report, "Features Ranked by Target Correlation")
	assert.Contains(t, res.Report, "- A (correlation with target: 1.0000)")
	assert.Contains(t, res.Report, "Zero-variance features scored 0: [D]")

	labels, err := res.Data.Float64s("Label")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8}, labels)

	c, err := res.Data.Float64s("C")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1, 0, 1, 0, 1, 0}, c)
}

func TestCorrelation_MaxFeaturesStopsEarly(t *testing.T) {
	d := columnsDataset(map[string][]float64{
		"A":     {1, 2, 3, 4, 5, 6, 7, 8},
		"C":     {1, 0, 1, 0, 1, 0, 1, 0},
		"Label": {1, 2, 3, 4, 5, 6, 7, 8},
	}, []string{"A", "C", "Label"})

	res, err := NewCorrelation().Select(d, []string{"C", "A"}, "Label", correlationConfig(1, 0.9))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, res.Features)
}

func TestGreedySelect(t *testing.T) {
	// A, B, C, D ranked by target correlation; only A and B are collinear.
	pairwise := mat.NewSymDense(4, []float64{
		1, 0.95, 0.1, 0.1,
		0.95, 1, 0.1, 0.1,
		0.1, 0.1, 1, 0.1,
		0.1, 0.1, 0.1, 1,
	})
	ranking := []ranked{{0, 0.9}, {1, 0.8}, {2, 0.7}, {3, 0.6}}

	selected := greedySelect(ranking, pairwise, 3, 0.9)
	indices := make([]int, len(selected))
	for i, s := range selected {
		indices[i] = s.index
	}
	assert.Equal(t, []int{0, 2, 3}, indices)

	assert.Len(t, greedySelect(ranking, pairwise, 2, 0.9), 2)
	assert.Len(t, greedySelect(ranking, pairwise, 10, 0.99), 4)
}

func TestCorrelation_SelectionRespectsBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const rows = 60
	names := []string{"f1", "f2", "f3", "f4", "f5", "f6"}

	columns := map[string][]float64{}
	for _, n := range names {
		columns[n] = make([]float64, rows)
	}
	columns["Label"] = make([]float64, rows)
	for i := 0; i < rows; i++ {
		base := rng.NormFloat64()
		columns["f1"][i] = base
		columns["f2"][i] = base + 0.01*rng.NormFloat64()
		columns["f3"][i] = rng.NormFloat64()
		columns["f4"][i] = columns["f3"][i]*2 + 0.02*rng.NormFloat64()
		columns["f5"][i] = rng.NormFloat64()
		columns["f6"][i] = rng.NormFloat64()
		columns["Label"][i] = base + 0.5*columns["f3"][i] + 0.3*rng.NormFloat64()
	}
	d := columnsDataset(columns, append(names, "Label"))

	for _, maxFeatures := range []int{1, 2, 4, 10} {
		res, err := NewCorrelation().Select(d, names, "Label", correlationConfig(maxFeatures, 0.8))
		require.NoError(t, err)

		assert.NotEmpty(t, res.Features)
		assert.LessOrEqual(t, len(res.Features), maxFeatures)
		for i, a := range res.Features {
			for _, b := range res.Features[i+1:] {
				r := stat.Correlation(columns[a], columns[b], nil)
				assert.LessOrEqual(t, math.Abs(r), 0.8, "%s and %s are collinear", a, b)
			}
		}
	}
}

func TestCorrelation_Errors(t *testing.T) {
	d := columnsDataset(map[string][]float64{
		"A":     {1, 2, 3},
		"Label": {1, 1, 1},
	}, []string{"A", "Label"})

	_, err := NewCorrelation().Select(d, []string{"A"}, "Label", correlationConfig(3, 0.9))
	assert.True(t, errors.Is(err, common.ErrComputation), "constant target")

	_, err = NewCorrelation().Select(d, []string{"missing"}, "Label", correlationConfig(3, 0.9))
	assert.True(t, errors.Is(err, common.ErrColumnNotFound))

	_, err = NewCorrelation().Select(d, []string{"A"}, "Label", correlationConfig(0, 1.5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfiguration))
	var cerr *common.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Len(t, cerr.Violations, 2)

	_, err = NewCorrelation().Select(d, nil, "Label", correlationConfig(3, 0.9))
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}

func TestCorrelation_WorksOnAssembledFeatures(t *testing.T) {
	d := columnsDataset(map[string][]float64{
		"A":     {1, 2, 3, 4, 5, 6, 7, 8},
		"C":     {1, 0, 1, 0, 1, 0, 1, 0},
		"Label": {1, 2, 3, 4, 5, 6, 7, 8},
	}, []string{"A", "C", "Label"})
	assembled, err := dataset.Assemble(d, []string{"A", "C"})
	require.NoError(t, err)
	vectors, err := dataset.Vectors(assembled, "Label")
	require.NoError(t, err)
	vectorOnly, err := dataset.FromVectors(vectors, []string{"A", "C"}, "Label")
	require.NoError(t, err)

	res, err := NewCorrelation().Select(vectorOnly, []string{"A", "C"}, "Label", correlationConfig(5, 0.9))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, res.Features)
}

func pcaDataset(rows int) (*dataset.Dataset, []string) {
	rng := rand.New(rand.NewSource(11))
	names := []string{"a", "b", "c", "d", "e"}
	data := make([]dataset.Row, rows)
	for i := range data {
		x := rng.NormFloat64()
		data[i] = dataset.Row{
			"a":     x,
			"b":     2*x + 0.1*rng.NormFloat64(),
			"c":     rng.NormFloat64(),
			"d":     rng.NormFloat64() * 0.2,
			"e":     -x,
			"Label": int64(i % 2),
		}
	}
	return dataset.New(append(names, "Label"), data), names
}

func TestPCA_ClampsComponentCount(t *testing.T) {
	d, names := pcaDataset(40)

	tests := []struct {
		name       string
		candidates []string
		requested  int
		want       int
		warns      bool
	}{
		{"zero", names, 0, 3, true},
		{"too many", names, 10, 3, true},
		{"negative", names, -1, 3, true},
		{"valid", names, 2, 2, false},
		{"all", names, 5, 5, false},
		{"fewer candidates than default", names[:2], 0, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := cfg.SelectionConfig{Method: cfg.SelectionPCA, NumberOfComponents: tt.requested}
			res, err := NewPCA().Select(d, tt.candidates, "Label", config)
			require.NoError(t, err)

			require.Len(t, res.Features, tt.want)
			for i, f := range res.Features {
				assert.Equal(t, "Component_"+string(rune('1'+i)), f)
			}
			assert.Equal(t, res.Features, res.Data.VectorNames())
			assert.Equal(t, 40, res.Data.RowCount())
			if tt.warns {
				assert.Contains(t, res.Report, "Warning: Invalid number of components")
			} else {
				assert.NotContains(t, res.Report, "Warning")
			}
		})
	}
}

func TestPCA_ComponentsOrderedByVariance(t *testing.T) {
	d, names := pcaDataset(80)

	res, err := NewPCA().Select(d, names, "Label", cfg.SelectionConfig{Method: cfg.SelectionPCA, NumberOfComponents: 3})
	require.NoError(t, err)
	assert.Contains(t, res.Report, "Explained variance")

	first, err := res.Data.Float64s("Component_1")
	require.NoError(t, err)
	second, err := res.Data.Float64s("Component_2")
	require.NoError(t, err)

	assert.Greater(t, stat.Variance(first, nil), stat.Variance(second, nil))
	assert.InDelta(t, 0, stat.Mean(first, nil), 1e-5)

	labels, err := res.Data.Float64s("Label")
	require.NoError(t, err)
	assert.Equal(t, 0.0, labels[0])
	assert.Equal(t, 1.0, labels[1])
}

func TestPCA_Errors(t *testing.T) {
	d, names := pcaDataset(2)

	_, err := NewPCA().Select(d, names, "Label", cfg.SelectionConfig{Method: cfg.SelectionPCA, NumberOfComponents: 3})
	assert.True(t, errors.Is(err, common.ErrComputation))

	_, err = NewPCA().Select(d, nil, "Label", cfg.SelectionConfig{Method: cfg.SelectionPCA})
	assert.True(t, errors.Is(err, common.ErrConfiguration))

	_, err = NewPCA().Select(d, []string{"zz"}, "Label", cfg.SelectionConfig{Method: cfg.SelectionPCA, NumberOfComponents: 1})
	assert.True(t, errors.Is(err, common.ErrColumnNotFound))
}

func TestNormalized(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, normalized([]float64{2, 4, 6}))
	assert.Equal(t, []float64{0, 0}, normalized([]float64{3, 3}))
	assert.Empty(t, normalized(nil))
}

func TestNoOp_PreservesCandidates(t *testing.T) {
	d := columnsDataset(map[string][]float64{
		"x":     {1, 2},
		"y":     {3, 4},
		"Label": {0, 1},
	}, []string{"x", "y", "Label"})

	candidates := []string{"y", "x"}
	res, err := NewNoOp().Select(d, candidates, "Label", cfg.SelectionConfig{})
	require.NoError(t, err)
	assert.Equal(t, candidates, res.Features)
	assert.True(t, res.Data.HasFeatures())
	assert.Equal(t, []string{"y", "x"}, res.Data.VectorNames())
	assert.Contains(t, res.Report, "Using all enabled features: 2")

	again, err := NewNoOp().Select(res.Data, candidates, "Label", cfg.SelectionConfig{})
	require.NoError(t, err)
	assert.Same(t, res.Data, again.Data)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for _, m := range cfg.SelectionMethods {
		assert.True(t, r.Supports(m), "method %s must be registered", m)
		s, err := r.Lookup(m)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := r.Lookup("Lasso")
	assert.True(t, errors.Is(err, common.ErrConfiguration))
}
