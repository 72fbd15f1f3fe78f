package websocket

import "sync"

// Handle is one open duplex connection, independently writable and closable
type Handle interface {
	Send(data []byte) error
	Close()
}

// Registry maps user identities to their live connection handles for one
// gateway process. A user may hold any number of concurrent handles
// (multiple tabs/devices). The registry is the only shared mutable state in
// the delivery pipeline; it is never synchronized across processes and is
// rebuilt from live re-connections after a restart.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[Handle]struct{}
	users  map[Handle]string // reverse index: close events carry no user context
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]map[Handle]struct{}),
		users:  make(map[Handle]string),
	}
}

// Register adds the handle under userID. Re-registering a live handle moves
// it to the new user (last identify wins).
func (r *Registry) Register(userID string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.users[h]; ok {
		if prev == userID {
			return
		}
		r.removeLocked(prev, h)
	}

	if r.byUser[userID] == nil {
		r.byUser[userID] = make(map[Handle]struct{})
	}
	r.byUser[userID][h] = struct{}{}
	r.users[h] = userID
}

// Unregister removes the handle from whichever user bucket holds it.
// No-op if the handle was never registered or was already removed.
func (r *Registry) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.users[h]
	if !ok {
		return
	}
	r.removeLocked(userID, h)
}

func (r *Registry) removeLocked(userID string, h Handle) {
	if handles, ok := r.byUser[userID]; ok {
		delete(handles, h)
		if len(handles) == 0 {
			delete(r.byUser, userID)
		}
	}
	delete(r.users, h)
}

// HandlesFor returns a snapshot of the live handles for userID, possibly empty
func (r *Registry) HandlesFor(userID string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]Handle, 0, len(r.byUser[userID]))
	for h := range r.byUser[userID] {
		handles = append(handles, h)
	}
	return handles
}

// Count returns the number of registered handles across all users
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users)
}

// UserCount returns the number of users with at least one live handle
func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser)
}
