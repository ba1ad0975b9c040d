package check

// Registry maps stage numbers to their check sets. Registration order is the
// execution order, which keeps runs deterministic even though aggregation is
// order-independent.
type Registry struct {
	byStage map[int][]Check
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byStage: make(map[int][]Check)}
}

// Register appends a check to the given stage's set.
func (r *Registry) Register(stage int, c Check) {
	r.byStage[stage] = append(r.byStage[stage], c)
}

// ForStage returns a copy of the stage's check set, empty when none are
// registered.
func (r *Registry) ForStage(stage int) []Check {
	checks := r.byStage[stage]
	out := make([]Check, len(checks))
	copy(out, checks)
	return out
}
