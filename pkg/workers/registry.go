package workers

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/maestrohq/maestro/pkg/models"
)

// Registry maps worker roles to factories. It is constructed once per
// process, populated at startup, and passed by reference to everything that
// needs to resolve workers.
type Registry struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	factories map[models.Role]Factory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.Role]Factory),
	}
}

// Register binds a factory to a role, replacing any previous binding.
func (r *Registry) Register(role models.Role, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[role]; exists {
		r.logger.Warn("Replacing worker factory", "role", string(role))
	}

	r.factories[role] = factory
}

// Create instantiates the worker registered for role. Fails with
// models.ErrUnknownRole when no factory is bound.
func (r *Registry) Create(role models.Role, name string) (Worker, error) {
	r.mu.RLock()
	factory, ok := r.factories[role]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: '%s' (registered: %v)", models.ErrUnknownRole, role, r.Roles())
	}

	return factory(name)
}

// Has reports whether a factory is registered for role.
func (r *Registry) Has(role models.Role) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[role]

	return ok
}

// Roles returns all registered roles.
func (r *Registry) Roles() []models.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]models.Role, 0, len(r.factories))
	for role := range r.factories {
		roles = append(roles, role)
	}

	return roles
}

// Clear removes all registrations. Intended for tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[models.Role]Factory)
}
