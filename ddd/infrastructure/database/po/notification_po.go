package po

import "time"

// Notification is the persistence object for the notifications table.
type Notification struct {
	ID           uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       string     `gorm:"column:user_id;size:64;index:idx_user_status"`
	ApartmentID  string     `gorm:"column:apartment_id;size:64;index"`
	BuildingID   string     `gorm:"column:building_id;size:64"`
	Title        string     `gorm:"column:title;size:255"`
	Message      string     `gorm:"column:message;type:text"`
	Type         string     `gorm:"column:type;size:32"`
	BusinessType string     `gorm:"column:business_type;size:32"`
	Category     string     `gorm:"column:category;size:32"`
	Status       string     `gorm:"column:status;size:16;index:idx_user_status;index:idx_status_expired"`
	IsRead       bool       `gorm:"column:is_read"`
	ReadAt       *time.Time `gorm:"column:read_at"`
	LinkURL      string     `gorm:"column:link_url;size:512"`
	EntityID     string     `gorm:"column:entity_id;size:64"`
	SenderID     string     `gorm:"column:sender_id;size:64"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	ExpiredAt    time.Time  `gorm:"column:expired_at;index:idx_status_expired"`
}

func (Notification) TableName() string {
	return "notifications"
}
