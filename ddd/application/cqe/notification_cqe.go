package cqe

import "github.com/O-HAM-MA/apartner-sub000/pkg/sse"

// ListNotificationsReq is the paged list query.
type ListNotificationsReq struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func (r *ListNotificationsReq) Normalize() {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 || r.PageSize > 100 {
		r.PageSize = 20
	}
}

// RetentionReq asks to delete the caller's read notifications older than
// Days days. Days below 1 is a validation error, not a default.
type RetentionReq struct {
	Days int `form:"days"`
}

func (r *RetentionReq) Validate() bool {
	return r.Days >= 1
}

// Dispatch target names accepted on the inner API.
const (
	TargetUser            = "user"
	TargetApartmentAdmins = "apartment_admins"
	TargetApartmentAll    = "apartment_all"
	TargetBroadcast       = "broadcast"
)

// DispatchReq is the inner-API request other services use to fan out a
// notification.
type DispatchReq struct {
	Target       string `json:"target"`
	UserID       string `json:"userId,omitempty"`
	ApartmentID  string `json:"apartmentId,omitempty"`
	Event        string `json:"event,omitempty"`
	Title        string `json:"title"`
	Message      string `json:"message"`
	Type         string `json:"type,omitempty"`
	BusinessType string `json:"businessType,omitempty"`
	Category     string `json:"category,omitempty"`
	LinkURL      string `json:"linkUrl,omitempty"`
	EntityID     string `json:"entityId,omitempty"`
	SenderID     string `json:"senderId,omitempty"`
	BuildingID   string `json:"buildingId,omitempty"`
}

// Validate checks target shape and required payload fields.
func (r *DispatchReq) Validate() bool {
	if r == nil || r.Title == "" || r.Message == "" {
		return false
	}
	switch r.Target {
	case TargetUser:
		return r.UserID != ""
	case TargetApartmentAdmins, TargetApartmentAll:
		return r.ApartmentID != ""
	case TargetBroadcast:
		return true
	default:
		return false
	}
}

// Selector converts the request target into a dispatcher selector.
func (r *DispatchReq) Selector() sse.Selector {
	switch r.Target {
	case TargetUser:
		return sse.User(r.UserID)
	case TargetApartmentAdmins:
		return sse.ApartmentAdmins(r.ApartmentID)
	case TargetApartmentAll:
		return sse.ApartmentAll(r.ApartmentID)
	default:
		return sse.Broadcast()
	}
}

// EventName returns the SSE event name, defaulting to "alarm".
func (r *DispatchReq) EventName() string {
	if r.Event != "" {
		return r.Event
	}
	return sse.EventAlarm
}

// ToMessage builds the dispatch payload.
func (r *DispatchReq) ToMessage() sse.Message {
	return sse.Message{
		Title:        r.Title,
		Message:      r.Message,
		Type:         r.Type,
		BusinessType: r.BusinessType,
		Category:     r.Category,
		LinkURL:      r.LinkURL,
		EntityID:     r.EntityID,
		SenderID:     r.SenderID,
		ApartmentID:  r.ApartmentID,
		BuildingID:   r.BuildingID,
	}
}
