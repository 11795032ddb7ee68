package sse

// Event represents a server-sent notification event payload.
// Type is used as the SSE "event:" name, Data is an arbitrary
// JSON-serialisable body.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Event names emitted on a stream.
const (
	EventConnect    = "connect"
	EventHeartbeat  = "heartbeat"
	EventAlarm      = "alarm"
	EventDisconnect = "disconnect"
)

// Role is the apartment-scoped role recorded for a connected user.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

// IsAdministrative reports whether the role counts as an apartment admin for
// targeted delivery.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleManager
}

// Message is the logical payload of one dispatch. It becomes both the
// persisted notification row and the body of the live "alarm" event.
type Message struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	Type         string `json:"type,omitempty"`
	BusinessType string `json:"businessType,omitempty"`
	Category     string `json:"category,omitempty"`
	LinkURL      string `json:"linkUrl,omitempty"`
	EntityID     string `json:"entityId,omitempty"`
	SenderID     string `json:"senderId,omitempty"`
	ApartmentID  string `json:"apartmentId,omitempty"`
	BuildingID   string `json:"buildingId,omitempty"`
}
