package selection

import (
	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
)

// Constructor builds a selector variant.
type Constructor func() Selector

// Registry maps selection method tags to constructors.
type Registry struct {
	ctors map[cfg.SelectionMethod]Constructor
}

// NewRegistry returns a registry holding every built-in variant.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[cfg.SelectionMethod]Constructor)}
	r.Register(cfg.SelectionNone, func() Selector { return NewNoOp() })
	r.Register(cfg.SelectionCorrelation, func() Selector { return NewCorrelation() })
	r.Register(cfg.SelectionPCA, func() Selector { return NewPCA() })
	return r
}

func (r *Registry) Register(method cfg.SelectionMethod, ctor Constructor) {
	r.ctors[method] = ctor
}

// Lookup builds the selector registered for method.
func (r *Registry) Lookup(method cfg.SelectionMethod) (Selector, error) {
	ctor, ok := r.ctors[method]
	if !ok {
		return nil, common.NewConfigurationError("selection", "unsupported selection method "+string(method))
	}
	return ctor(), nil
}

func (r *Registry) Supports(method cfg.SelectionMethod) bool {
	_, ok := r.ctors[method]
	return ok
}
