// Package plan provides the plan registry, built-in plan templates, and a
// schema-validated JSON plan loader.
package plan

import (
	"errors"
	"fmt"
	"sync"

	"github.com/maestrohq/maestro/pkg/models"
)

// ErrPlanNotFound is returned when looking up an unregistered plan name.
var ErrPlanNotFound = errors.New("plan not found")

// Registry stores plans by name. It is constructed once per process and
// passed by reference; access is mutex-guarded.
type Registry struct {
	mu    sync.RWMutex
	plans map[string]*models.Plan
}

func NewRegistry() *Registry {
	return &Registry{plans: make(map[string]*models.Plan)}
}

// Register stores a plan under its name, replacing any previous entry.
func (r *Registry) Register(p *models.Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.plans[p.Name] = p
}

// Get returns the plan with the given name.
func (r *Registry) Get(name string) (*models.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' (registered: %v)", ErrPlanNotFound, name, r.namesLocked())
	}

	return p, nil
}

// Has reports whether a plan with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.plans[name]

	return ok
}

// List returns all registered plan names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.namesLocked()
}

// Clear removes all registered plans.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.plans = make(map[string]*models.Plan)
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.plans))
	for name := range r.plans {
		names = append(names, name)
	}

	return names
}
