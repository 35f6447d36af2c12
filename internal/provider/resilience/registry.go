package resilience

import (
	"sync"

	"github.com/sony/gobreaker/v2"
)

// Health is a point-in-time view of one provider's circuit breaker.
type Health struct {
	Name   string
	State  gobreaker.State
	Counts gobreaker.Counts
}

// Healthy reports whether the breaker is closed.
func (h Health) Healthy() bool {
	return h.State == gobreaker.StateClosed
}

// Registry tracks provider clients so the readiness endpoint can report
// their circuit state.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register adds a provider client under its configured name.
func (r *Registry) Register(name string, client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
}

// Health returns the health of one provider, or false if unknown.
func (r *Registry) Health(name string) (Health, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[name]
	if !ok {
		return Health{}, false
	}
	return Health{Name: name, State: c.State(), Counts: c.Counts()}, true
}

// All returns the health of every registered provider.
func (r *Registry) All() []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.clients))
	for name, c := range r.clients {
		out = append(out, Health{Name: name, State: c.State(), Counts: c.Counts()})
	}
	return out
}
