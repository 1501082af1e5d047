package balance

import (
	"cmp"
	"math"
	"math/rand"
	"slices"

	"iris-ml/internal/cfg"
	"iris-ml/internal/dataset"

	"github.com/rs/zerolog/log"
)

// SMOTE undersamples the majority group and oversamples the minority group
// with synthetic rows interpolated between nearest minority neighbors.
//
// A SMOTE value holds no state between calls; each call seeds its own
// generator from the config, so one value can serve concurrent callers and
// identical inputs always give identical output.
type SMOTE struct{}

func NewSMOTE() *SMOTE {
	return &SMOTE{}
}

func (s *SMOTE) Balance(d *dataset.Dataset, featureNames []string, target string, config cfg.BalancingConfig) (*Result, error) {
	config.Method = cfg.BalanceSMOTE
	if err := config.Validate().Err("balancing"); err != nil {
		return nil, err
	}

	prepared := d
	if !d.HasFeatures() {
		var err error
		if prepared, err = dataset.Assemble(d, featureNames); err != nil {
			return nil, err
		}
	}

	names := prepared.VectorNames()
	if len(names) == 0 {
		names = featureNames
	}

	vectors, err := dataset.Vectors(prepared, target)
	if err != nil {
		return nil, err
	}

	var positive, rest []dataset.FeatureVector
	for _, v := range vectors {
		if v.Label == 1 {
			positive = append(positive, v)
		} else {
			rest = append(rest, v)
		}
	}

	minority, majority := positive, rest
	swapped := false
	if len(minority) > len(majority) {
		minority, majority = majority, minority
		swapped = true
	}

	log.Info().
		Int("minority", len(minority)).
		Int("majority", len(majority)).
		Bool("minority_is_positive", !swapped).
		Msg("Original class counts")

	rng := rand.New(rand.NewSource(config.EffectiveSeed()))

	undersampled := undersample(majority, config.UndersamplingRatio, rng)

	targetMinority := int(float64(len(undersampled)) * config.MinorityToMajorityRatio)
	syntheticCount := max(0, targetMinority-len(minority))

	policy := config.SyntheticLabel
	if policy == "" {
		policy = cfg.SyntheticLabelPositive
	}
	if swapped && policy == cfg.SyntheticLabelPositive && syntheticCount > 0 {
		log.Warn().
			Int("synthetic", syntheticCount).
			Msg("Minority group is not the label-1 group but synthetic rows are labeled 1; set syntheticLabel=source to copy the source row label")
	}

	synthetic := generateSynthetic(minority, syntheticCount, config.KNeighbors, policy, rng)

	out := make([]dataset.FeatureVector, 0, len(undersampled)+len(minority)+len(synthetic))
	out = append(out, undersampled...)
	out = append(out, minority...)
	out = append(out, synthetic...)

	balanced, err := dataset.FromVectors(out, names, target)
	if err != nil {
		return nil, err
	}

	stats := Stats{
		Minority:             len(minority),
		Majority:             len(majority),
		UndersampledMajority: len(undersampled),
		Synthetic:            len(synthetic),
		Output:               len(out),
	}

	log.Info().
		Int("minority", stats.Minority+stats.Synthetic).
		Int("majority", stats.UndersampledMajority).
		Int("synthetic", stats.Synthetic).
		Msg("Final class counts")

	return &Result{Data: balanced, Stats: stats}, nil
}

// undersample keeps floor(len(majority)*ratio) rows chosen by a seeded
// Fisher-Yates shuffle of the majority indices.
func undersample(majority []dataset.FeatureVector, ratio float64, rng *rand.Rand) []dataset.FeatureVector {
	indices := make([]int, len(majority))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	keep := int(float64(len(majority)) * ratio)
	out := make([]dataset.FeatureVector, keep)
	for i := 0; i < keep; i++ {
		out[i] = majority[indices[i]]
	}
	return out
}

func generateSynthetic(minority []dataset.FeatureVector, count, k int, policy cfg.SyntheticLabelPolicy, rng *rand.Rand) []dataset.FeatureVector {
	if count <= 0 {
		return nil
	}
	if len(minority) == 0 {
		log.Warn().Int("requested", count).Msg("No minority rows to interpolate from, skipping synthetic generation")
		return nil
	}

	perInstance := int(math.Ceil(float64(count) / float64(len(minority))))
	synthetic := make([]dataset.FeatureVector, 0, count)

	for i := 0; i < len(minority) && len(synthetic) < count; i++ {
		neighbors := nearestNeighbors(minority, i, k)
		if len(neighbors) == 0 {
			// A lone minority row can only be interpolated with itself.
			neighbors = []int{i}
		}

		label := float64(1)
		if policy == cfg.SyntheticLabelSource {
			label = minority[i].Label
		}

		for j := 0; j < perInstance && len(synthetic) < count; j++ {
			n := neighbors[rng.Intn(len(neighbors))]
			synthetic = append(synthetic, dataset.FeatureVector{
				Features: interpolate(minority[i].Features, minority[n].Features, rng),
				Label:    label,
			})
		}
	}
	return synthetic
}

type neighbor struct {
	index    int
	distance float32
}

// nearestNeighbors returns the indices of the k rows closest to row self,
// excluding self. Ties keep index order.
func nearestNeighbors(samples []dataset.FeatureVector, self, k int) []int {
	candidates := make([]neighbor, 0, len(samples)-1)
	for i := range samples {
		if i == self {
			continue
		}
		candidates = append(candidates, neighbor{index: i, distance: euclidean(samples[i].Features, samples[self].Features)})
	}

	slices.SortStableFunc(candidates, func(a, b neighbor) int {
		return cmp.Compare(a.distance, b.distance)
	})

	n := min(k, len(candidates))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].index
	}
	return out
}

func euclidean(a, b []float32) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return float32(math.Sqrt(float64(sum)))
}

func interpolate(a, b []float32, rng *rand.Rand) []float32 {
	ratio := rng.Float32()
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + ratio*(b[i]-a[i])
	}
	return out
}
