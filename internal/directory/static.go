package directory

import (
	"context"
	"sync"

	"github.com/O-HAM-MA/apartner-sub000/pkg/sse"
)

// StaticDirectory is an in-memory Directory for development and tests.
type StaticDirectory struct {
	mu           sync.RWMutex
	users        map[string]Identity
	allowUnknown bool
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{users: make(map[string]Identity)}
}

// AllowUnknown makes unseeded users resolve with a bare USER identity.
// Used when no directory service is configured (local development).
func (d *StaticDirectory) AllowUnknown() *StaticDirectory {
	d.mu.Lock()
	d.allowUnknown = true
	d.mu.Unlock()
	return d
}

// Put registers or replaces a user's identity.
func (d *StaticDirectory) Put(identity Identity) {
	d.mu.Lock()
	d.users[identity.UserID] = identity
	d.mu.Unlock()
}

func (d *StaticDirectory) Resolve(_ context.Context, userID string) (Identity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	identity, ok := d.users[userID]
	if !ok {
		if d.allowUnknown && userID != "" {
			return Identity{UserID: userID, Role: sse.RoleUser}, nil
		}
		return Identity{}, ErrUnknownUser
	}
	return identity, nil
}
