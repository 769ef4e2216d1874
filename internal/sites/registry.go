package sites

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/vrsandeep/nowplaying-go/internal/models"
)

// Registry holds every known provider keyed by ID. Lookups by URL walk the
// providers in registration order, so more specific providers should be
// registered first.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. It's called at startup and by the plugin
// manager.
func (r *Registry) Register(p Provider) {
	info := p.GetInfo()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[info.ID]; exists {
		// Panic is appropriate here as it's a developer error during setup.
		panic(fmt.Sprintf("site provider with ID '%s' is already registered", info.ID))
	}
	r.providers[info.ID] = p
	r.order = append(r.order, info.ID)
}

// Unregister removes a provider and reports whether it was registered.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[id]; !exists {
		return false
	}
	delete(r.providers, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a provider by its ID.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// GetAll returns information for all registered providers in registration
// order.
func (r *Registry) GetAll() []models.SiteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]models.SiteInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.providers[id].GetInfo())
	}
	return infos
}

// Match returns the first provider that handles u.
func (r *Registry) Match(u *url.URL) (Provider, bool) {
	if u == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if p := r.providers[id]; p.Matches(u) {
			return p, true
		}
	}
	return nil, false
}
