package balance

import (
	"iris-ml/internal/cfg"
	"iris-ml/internal/common"
)

// Constructor builds a balancer variant.
type Constructor func() Balancer

// Registry maps balancing method tags to constructors.
type Registry struct {
	ctors map[cfg.BalanceMethod]Constructor
}

// NewRegistry returns a registry holding every built-in variant.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[cfg.BalanceMethod]Constructor)}
	r.Register(cfg.BalanceNone, func() Balancer { return NewNoOp() })
	r.Register(cfg.BalanceSMOTE, func() Balancer { return NewSMOTE() })
	return r
}

// Register adds or replaces the constructor for method.
func (r *Registry) Register(method cfg.BalanceMethod, ctor Constructor) {
	r.ctors[method] = ctor
}

// Lookup builds the balancer registered for method.
func (r *Registry) Lookup(method cfg.BalanceMethod) (Balancer, error) {
	ctor, ok := r.ctors[method]
	if !ok {
		return nil, common.NewConfigurationError("balancing", "unsupported balancing method "+string(method))
	}
	return ctor(), nil
}

// Supports reports whether method has a registered variant.
func (r *Registry) Supports(method cfg.BalanceMethod) bool {
	_, ok := r.ctors[method]
	return ok
}
