package directory

import (
	"context"
	"errors"

	"github.com/O-HAM-MA/apartner-sub000/pkg/sse"
)

// ErrUnknownUser is returned when the user directory has no record of the
// requested user; a subscribe attempt for such a user is rejected without
// creating a connection.
var ErrUnknownUser = errors.New("directory: unknown user")

// Identity is the resolved apartment/role context of a user. The directory
// is the authoritative source; the connection registry only caches it for
// the lifetime of the user's connections.
type Identity struct {
	UserID        string   `json:"userId"`
	ApartmentID   string   `json:"apartmentId,omitempty"`
	ApartmentName string   `json:"apartmentName,omitempty"`
	Role          sse.Role `json:"role,omitempty"`
}

// Directory resolves a user's identity from the external user-management
// system. Resolution happens once per subscribe, before Register.
type Directory interface {
	Resolve(ctx context.Context, userID string) (Identity, error)
}
