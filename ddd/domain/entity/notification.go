package entity

import "time"

// Status marks whether a notification is still visible to queries.
// INACTIVE is terminal; the expiry sweep never reactivates a row.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// DefaultTTLDays is the retention window applied when a notification is
// created without an explicit expiry.
const DefaultTTLDays = 30

// Notification is the aggregate root for one delivered message. One row
// exists per recipient; it is the only state that survives a process crash.
type Notification struct {
	ID           uint64
	UserID       string
	ApartmentID  string
	BuildingID   string
	Title        string
	Message      string
	Type         string
	BusinessType string
	Category     string
	Status       Status
	IsRead       bool
	ReadAt       *time.Time
	LinkURL      string
	EntityID     string
	SenderID     string
	CreatedAt    time.Time
	ExpiredAt    time.Time
}

// NewNotification creates an unread ACTIVE notification for one recipient
// with the default TTL.
func NewNotification(userID, title, message string) *Notification {
	now := time.Now()
	return &Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Status:    StatusActive,
		IsRead:    false,
		CreatedAt: now,
		ExpiredAt: now.AddDate(0, 0, DefaultTTLDays),
	}
}

// MarkRead transitions the notification to read. It reports whether state
// changed; a second call leaves ReadAt untouched.
func (n *Notification) MarkRead(now time.Time) bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	n.ReadAt = &now
	return true
}

// Expired reports whether the notification's TTL has passed.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiredAt.Before(now)
}
