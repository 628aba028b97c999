// internal/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tamzrod/timemachine-bridge/internal/dispatch"
	"github.com/tamzrod/timemachine-bridge/internal/poller"
	"github.com/tamzrod/timemachine-bridge/internal/remote"
)

var (
	ErrNotFound  = errors.New("registry: instance not found")
	ErrDuplicate = errors.New("registry: instance already registered")
)

// Entry is the pair of components owned for one configured instance.
type Entry struct {
	ID         string
	Endpoint   remote.Endpoint
	Poller     *poller.Poller
	Dispatcher *dispatch.Dispatcher
}

// Registry maps instance ids to their components.
// The host owns it; the core packages never hold global state.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Add registers an entry. Ids and normalized base URLs are unique.
func (r *Registry) Add(e *Entry) error {
	if e == nil || e.ID == "" {
		return errors.New("registry: entry id required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.ID]; exists {
		return fmt.Errorf("%w: id %q", ErrDuplicate, e.ID)
	}
	for _, other := range r.entries {
		if strings.EqualFold(other.Endpoint.Base, e.Endpoint.Base) {
			return fmt.Errorf("%w: %s already served by %q", ErrDuplicate, e.Endpoint.Base, other.ID)
		}
	}

	r.entries[e.ID] = e
	return nil
}

func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Remove stops the entry's poller and forgets it.
// It returns how many entries remain.
func (r *Registry) Remove(id string) (int, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	n := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return n, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if e.Poller != nil {
		e.Poller.Stop()
	}
	return n, nil
}

// List returns entries ordered by id.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// StopAll stops every poller. Entries stay registered.
func (r *Registry) StopAll() {
	for _, e := range r.List() {
		if e.Poller != nil {
			e.Poller.Stop()
		}
	}
}
