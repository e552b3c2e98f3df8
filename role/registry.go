package role

import (
	"errors"
	"strings"
	"sync"
)

// Role is the coarse authorization level of a session.
type Role string

const (
	// Member is an exported constant or variable used by the session core.
	Member Role = "user"
	// Admin is an exported constant or variable used by the session core.
	Admin Role = "admin"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == Member || r == Admin
}

// Registry maps historical role spellings onto the two canonical roles.
// Registries are configured during initialization, frozen, and then read-only.
type Registry struct {
	mu      sync.RWMutex
	aliases map[string]Role
	frozen  bool
}

// NewRegistry creates a [Registry] pre-seeded with the canonical role names.
func NewRegistry() *Registry {
	return &Registry{
		aliases: map[string]Role{
			string(Member): Member,
			string(Admin):  Admin,
		},
	}
}

// RegisterAlias maps an additional spelling onto a canonical role.
// Must be called before [Registry.Freeze].
func (r *Registry) RegisterAlias(spelling string, target Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}

	spelling = normalize(spelling)
	if spelling == "" {
		return errors.New("alias spelling cannot be empty")
	}
	if !target.Valid() {
		return errors.New("alias target must be a canonical role")
	}
	if _, exists := r.aliases[spelling]; exists {
		return errors.New("alias already registered")
	}

	r.aliases[spelling] = target
	return nil
}

// Freeze makes the registry immutable. Further RegisterAlias calls fail.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Canonical returns the canonical role for a raw spelling, if known.
func (r *Registry) Canonical(raw string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, ok := r.aliases[normalize(raw)]
	return target, ok
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// defaultRegistry carries the spellings observed across the legacy stores.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	for _, spelling := range []string{"administrator", "superadmin", "staff"} {
		if err := r.RegisterAlias(spelling, Admin); err != nil {
			panic(err)
		}
	}
	for _, spelling := range []string{"member", "reader", "student"} {
		if err := r.RegisterAlias(spelling, Member); err != nil {
			panic(err)
		}
	}
	r.Freeze()
	return r
}()
