package cfg

import (
	"fmt"

	"iris-ml/internal/common"
)

// BalanceMethod tags the class balancer variant.
type BalanceMethod string

const (
	BalanceNone  BalanceMethod = "None"
	BalanceSMOTE BalanceMethod = "SMOTE"
)

// BalanceMethods lists every supported balancer tag.
var BalanceMethods = []BalanceMethod{BalanceNone, BalanceSMOTE}

// SelectionMethod tags the feature selector variant.
type SelectionMethod string

const (
	SelectionNone        SelectionMethod = "None"
	SelectionCorrelation SelectionMethod = "Correlation"
	SelectionPCA         SelectionMethod = "PCA"
)

// SelectionMethods lists every supported selector tag.
var SelectionMethods = []SelectionMethod{SelectionNone, SelectionCorrelation, SelectionPCA}

// ModelKind only affects how the target column is typed on load and on write.
type ModelKind string

const (
	BinaryClassification     ModelKind = "BinaryClassification"
	MultiClassClassification ModelKind = "MultiClassClassification"
	Regression               ModelKind = "Regression"
)

// IsClassification reports whether labels are class identifiers.
func (k ModelKind) IsClassification() bool {
	return k == BinaryClassification || k == MultiClassClassification
}

// SyntheticLabelPolicy decides which label SMOTE assigns to synthetic rows.
type SyntheticLabelPolicy string

const (
	// SyntheticLabelPositive always labels synthetic rows with class 1.
	SyntheticLabelPositive SyntheticLabelPolicy = "positive"
	// SyntheticLabelSource copies the label of the row being interpolated from.
	SyntheticLabelSource SyntheticLabelPolicy = "source"
)

// BalancingConfig configures the class balancing stage.
type BalancingConfig struct {
	Method                  BalanceMethod
	UndersamplingRatio      float64
	MinorityToMajorityRatio float64
	KNeighbors              int
	ExecutionOrder          int
	Seed                    int64
	SyntheticLabel          SyntheticLabelPolicy
}

// SelectionConfig configures the feature selection stage.
type SelectionConfig struct {
	Method                     SelectionMethod
	MaxFeatures                int
	MulticollinearityThreshold float64
	NumberOfComponents         int
	ExecutionOrder             int
}

// Violations collects configuration problems instead of failing on the first.
type Violations []string

func (v *Violations) add(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

// Err returns nil when there are no violations, otherwise a
// *common.ConfigurationError naming the stage.
func (v Violations) Err(stage string) error {
	if len(v) == 0 {
		return nil
	}
	return common.NewConfigurationError(stage, v...)
}

// Validate checks the fields the configured method depends on. A None
// balancer ignores the SMOTE parameters.
func (c BalancingConfig) Validate() Violations {
	var v Violations
	switch c.Method {
	case BalanceNone:
	case BalanceSMOTE:
		if c.UndersamplingRatio <= 0 || c.UndersamplingRatio > 1 {
			v.add("undersampling ratio must be in (0, 1], got %g", c.UndersamplingRatio)
		}
		if c.MinorityToMajorityRatio <= 0 || c.MinorityToMajorityRatio > 1 {
			v.add("minority to majority ratio must be in (0, 1], got %g", c.MinorityToMajorityRatio)
		}
		if c.KNeighbors < 1 {
			v.add("k neighbors must be at least 1, got %d", c.KNeighbors)
		}
		switch c.SyntheticLabel {
		case "", SyntheticLabelPositive, SyntheticLabelSource:
		default:
			v.add("unknown synthetic label policy %q", c.SyntheticLabel)
		}
	default:
		v.add("unknown balancing method %q", c.Method)
	}
	return v
}

// Validate checks the fields the configured method depends on. The PCA
// component count is clamped by the selector rather than rejected.
func (c SelectionConfig) Validate() Violations {
	var v Violations
	switch c.Method {
	case SelectionNone, SelectionPCA:
	case SelectionCorrelation:
		if c.MulticollinearityThreshold <= 0 || c.MulticollinearityThreshold >= 1 {
			v.add("multicollinearity threshold must be in (0, 1), got %g", c.MulticollinearityThreshold)
		}
		if c.MaxFeatures <= 0 {
			v.add("max features must be positive, got %d", c.MaxFeatures)
		}
	default:
		v.add("unknown selection method %q", c.Method)
	}
	return v
}

// EffectiveSeed returns the configured seed or the default.
func (c BalancingConfig) EffectiveSeed() int64 {
	if c.Seed == 0 {
		return common.DefaultSeed
	}
	return c.Seed
}
