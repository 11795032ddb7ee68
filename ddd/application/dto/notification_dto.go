package dto

import (
	"time"

	"github.com/O-HAM-MA/apartner-sub000/ddd/domain/entity"
)

// NotificationDto is the view model exposed to clients.
type NotificationDto struct {
	ID           uint64     `json:"id"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Type         string     `json:"type,omitempty"`
	BusinessType string     `json:"businessType,omitempty"`
	Category     string     `json:"category,omitempty"`
	Status       string     `json:"status"`
	IsRead       bool       `json:"isRead"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
	LinkURL      string     `json:"linkUrl,omitempty"`
	EntityID     string     `json:"entityId,omitempty"`
	SenderID     string     `json:"senderId,omitempty"`
	ApartmentID  string     `json:"apartmentId,omitempty"`
	BuildingID   string     `json:"buildingId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiredAt    time.Time  `json:"expiredAt"`
}

// FromEntity maps a domain notification to its view model.
func FromEntity(n *entity.Notification) NotificationDto {
	return NotificationDto{
		ID:           n.ID,
		Title:        n.Title,
		Message:      n.Message,
		Type:         n.Type,
		BusinessType: n.BusinessType,
		Category:     n.Category,
		Status:       string(n.Status),
		IsRead:       n.IsRead,
		ReadAt:       n.ReadAt,
		LinkURL:      n.LinkURL,
		EntityID:     n.EntityID,
		SenderID:     n.SenderID,
		ApartmentID:  n.ApartmentID,
		BuildingID:   n.BuildingID,
		CreatedAt:    n.CreatedAt,
		ExpiredAt:    n.ExpiredAt,
	}
}

// FromEntities maps a slice of notifications.
func FromEntities(ns []*entity.Notification) []NotificationDto {
	items := make([]NotificationDto, 0, len(ns))
	for _, n := range ns {
		items = append(items, FromEntity(n))
	}
	return items
}

// ListNotificationsResponse is the list payload including the unread count.
type ListNotificationsResponse struct {
	Notifications []NotificationDto `json:"notifications"`
	UnreadCount   int64             `json:"unreadCount"`
}

// CleanupResponse reports how many rows a retention cleanup removed.
type CleanupResponse struct {
	Deleted int64 `json:"deleted"`
}

// MarkAllReadResponse reports how many rows a read-all touched.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// StreamHealth is the connected-client view for the health endpoint.
type StreamHealth struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
}

// OnlineStatus is the per-user online flag.
type OnlineStatus struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// HeartbeatResult reports the outcome of a manual heartbeat trigger.
type HeartbeatResult struct {
	Sent   int `json:"sent"`
	Pruned int `json:"pruned"`
}
