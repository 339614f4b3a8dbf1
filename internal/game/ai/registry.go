package ai

import "fmt"

// Registry indexes Planners by domain ID.
//
// Invariant: each domain ID is registered at most once.
type Registry struct {
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{planners: make(map[string]*Planner)}
}

// NewRegistryFrom registers a Planner for each domain with caller.
//
// Postcondition: returns error on the first domain ID collision.
func NewRegistryFrom(domains []*Domain, caller ScriptCaller) (*Registry, error) {
	r := NewRegistry()
	for _, d := range domains {
		if err := r.Register(d, caller); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register creates and stores a Planner for domain.
//
// Precondition: domain must not be nil.
// Postcondition: returns error on domain ID collision.
func (r *Registry) Register(domain *Domain, caller ScriptCaller) error {
	if _, exists := r.planners[domain.ID]; exists {
		return fmt.Errorf("ai.Registry: domain %q already registered", domain.ID)
	}
	r.planners[domain.ID] = NewPlanner(domain, caller)
	return nil
}

// PlannerFor returns the Planner for domainID, or false if not registered.
func (r *Registry) PlannerFor(domainID string) (*Planner, bool) {
	p, ok := r.planners[domainID]
	return p, ok
}
