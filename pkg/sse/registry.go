package sse

import (
	"sort"
	"sync"
)

// UserMeta is the apartment/role context recorded for a connected user at
// register time. The user directory is authoritative; this is a cache that
// lives exactly as long as the user holds at least one connection.
type UserMeta struct {
	ApartmentID   string
	ApartmentName string
	Role          Role
}

// Registry is the in-memory index of live connections. It owns four maps
// kept consistent under one lock: user -> connections, apartment -> member
// user ids, user -> meta, and user -> consecutive push-error count. All
// read methods return copies so no caller ever iterates shared state, and
// no network I/O happens under the lock.
type Registry struct {
	bufferSize       int
	reconnectCeiling int

	mu         sync.RWMutex
	conns      map[string][]*Connection
	apartments map[string]map[string]struct{}
	meta       map[string]UserMeta
	pushErrors map[string]int
}

// Option tunes a Registry at construction time.
type Option func(*Registry)

// WithBufferSize sets the per-connection event buffer size.
func WithBufferSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.bufferSize = n
		}
	}
}

// WithReconnectCeiling sets the consecutive-error ceiling after which
// reconnect bookkeeping for a user is abandoned until the next Register.
func WithReconnectCeiling(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.reconnectCeiling = n
		}
	}
}

// NewRegistry constructs an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		bufferSize:       16,
		reconnectCeiling: 5,
		conns:            make(map[string][]*Connection),
		apartments:       make(map[string]map[string]struct{}),
		meta:             make(map[string]UserMeta),
		pushErrors:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a new live connection for the user and indexes it. A
// fresh successful register resets the user's push-error counter.
func (r *Registry) Register(userID, apartmentID, apartmentName string, role Role) *Connection {
	conn := newConnection(userID, apartmentID, apartmentName, role, r.bufferSize)

	r.mu.Lock()
	defer r.mu.Unlock()

	// The directory may have moved the user since an earlier register; the
	// latest resolution wins and the stale apartment entry is dropped.
	if prev, ok := r.meta[userID]; ok && prev.ApartmentID != "" && prev.ApartmentID != apartmentID {
		if members, ok := r.apartments[prev.ApartmentID]; ok {
			delete(members, userID)
			if len(members) == 0 {
				delete(r.apartments, prev.ApartmentID)
			}
		}
	}

	r.conns[userID] = append(r.conns[userID], conn)
	r.meta[userID] = UserMeta{
		ApartmentID:   apartmentID,
		ApartmentName: apartmentName,
		Role:          role,
	}
	if apartmentID != "" {
		members, ok := r.apartments[apartmentID]
		if !ok {
			members = make(map[string]struct{})
			r.apartments[apartmentID] = members
		}
		members[userID] = struct{}{}
	}
	delete(r.pushErrors, userID)
	return conn
}

// Unregister removes the connection from the user's set. When the set
// becomes empty the user is dropped from every index so the registry never
// grows past the live population. Unknown handles are a no-op.
func (r *Registry) Unregister(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handles := r.conns[userID]
	for i, c := range handles {
		if c.ID != connID {
			continue
		}
		handles = append(handles[:i], handles[i+1:]...)
		break
	}
	if len(handles) > 0 {
		r.conns[userID] = handles
		return
	}

	delete(r.conns, userID)
	if meta, ok := r.meta[userID]; ok && meta.ApartmentID != "" {
		if members, ok := r.apartments[meta.ApartmentID]; ok {
			delete(members, userID)
			if len(members) == 0 {
				delete(r.apartments, meta.ApartmentID)
			}
		}
	}
	delete(r.meta, userID)
	delete(r.pushErrors, userID)
}

// IsOnline reports whether the user holds at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// Connections returns a snapshot of the user's live handles.
func (r *Registry) Connections(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handles := r.conns[userID]
	out := make([]*Connection, len(handles))
	copy(out, handles)
	return out
}

// Snapshot returns every live connection in the registry.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, handles := range r.conns {
		out = append(out, handles...)
	}
	return out
}

// MembersOf returns the user ids currently connected under an apartment,
// sorted for deterministic iteration.
func (r *Registry) MembersOf(apartmentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.apartments[apartmentID])
}

// AdminsOf returns the subset of an apartment's connected users whose role
// is ADMIN or MANAGER.
func (r *Registry) AdminsOf(apartmentID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for userID := range r.apartments[apartmentID] {
		if r.meta[userID].Role.IsAdministrative() {
			out = append(out, userID)
		}
	}
	sort.Strings(out)
	return out
}

// AllOnlineUsers returns every user id with at least one live connection.
func (r *Registry) AllOnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// MetaOf returns the role/apartment context recorded for a connected user.
func (r *Registry) MetaOf(userID string) (UserMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.meta[userID]
	return meta, ok
}

// ConnectionCount returns the number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, handles := range r.conns {
		n += len(handles)
	}
	return n
}

// OnlineUserCount returns the number of distinct connected users.
func (r *Registry) OnlineUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RecordPushError bumps the user's consecutive transport-error counter and
// reports whether the reconnect ceiling has been reached. The counter is
// advisory only and never blocks a new Register.
func (r *Registry) RecordPushError(userID string) (count int, ceilingReached bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pushErrors[userID] >= r.reconnectCeiling {
		// Bookkeeping for this user was already abandoned.
		return r.pushErrors[userID], true
	}
	r.pushErrors[userID]++
	count = r.pushErrors[userID]
	return count, count >= r.reconnectCeiling
}

// PushErrorCount returns the user's current consecutive-error count.
func (r *Registry) PushErrorCount(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pushErrors[userID]
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var defaultRegistry = NewRegistry()

// DefaultRegistry exposes the process-global registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// ConfigureDefault replaces the process-global registry with one built from
// the given options. Called once during startup, before traffic.
func ConfigureDefault(opts ...Option) {
	defaultRegistry = NewRegistry(opts...)
}
