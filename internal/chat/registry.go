package chat

import (
	"sync"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
)

// Registry maps live connection ids to the identity that was authenticated at
// connect time. Entries exist only between connect and disconnect; a process
// restart drops everything and the map is rebuilt from reconnects.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]models.Entity
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]models.Entity)}
}

// Register records the identity owning a connection. Called once per
// successful connect, after identity resolution; the identity is never
// mutated for the lifetime of the connection.
func (r *Registry) Register(connID string, identity models.Entity) {
	r.mu.Lock()
	r.conns[connID] = identity
	r.mu.Unlock()
}

// Unregister removes a connection. Unregistering an unknown id is a no-op.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	delete(r.conns, connID)
	r.mu.Unlock()
}

// Lookup returns the identity owning the connection, if registered.
func (r *Registry) Lookup(connID string) (models.Entity, bool) {
	r.mu.RLock()
	identity, ok := r.conns[connID]
	r.mu.RUnlock()
	return identity, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.conns)
	r.mu.RUnlock()
	return n
}
