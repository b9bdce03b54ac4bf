package ws

import "sync"

// Registry is the bidirectional mapping between connection handles and user
// ids. A handle maps to at most one user; a user may hold several handles at
// once (multiple tabs or devices). Entries exist only for live sockets, so
// a process restart starts from an empty registry.
type Registry struct {
	mu      sync.RWMutex
	users   map[string]int64
	handles map[int64]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		users:   make(map[string]int64),
		handles: make(map[int64]map[string]struct{}),
	}
}

// Add inserts or overwrites the mapping for handle.
func (r *Registry) Add(handle string, userId int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.users[handle]; ok {
		r.dropHandleLocked(prev, handle)
	}

	r.users[handle] = userId
	if r.handles[userId] == nil {
		r.handles[userId] = make(map[string]struct{})
	}
	r.handles[userId][handle] = struct{}{}
}

// Remove deletes the mapping for handle. Removing an unknown handle is a
// no-op.
func (r *Registry) Remove(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userId, ok := r.users[handle]
	if !ok {
		return
	}
	delete(r.users, handle)
	r.dropHandleLocked(userId, handle)
}

// UserOf returns the user a handle belongs to.
func (r *Registry) UserOf(handle string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userId, ok := r.users[handle]
	return userId, ok
}

// HandlesOf returns every registered handle for a user. The slice is empty
// when the user has no live connections.
func (r *Registry) HandlesOf(userId int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.handles[userId]))
	for handle := range r.handles[userId] {
		out = append(out, handle)
	}
	return out
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *Registry) dropHandleLocked(userId int64, handle string) {
	set := r.handles[userId]
	delete(set, handle)
	if len(set) == 0 {
		delete(r.handles, userId)
	}
}
