package dao

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/O-HAM-MA/apartner-sub000/ddd/domain/entity"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/po"
	"github.com/O-HAM-MA/apartner-sub000/internal/resource"
)

type NotificationDao struct {
	db *gorm.DB
}

func NewNotificationDao() *NotificationDao {
	return &NotificationDao{db: resource.MainDB()}
}

// NewNotificationDaoWithDB is used by tests to run against a throwaway DB.
func NewNotificationDaoWithDB(db *gorm.DB) *NotificationDao {
	return &NotificationDao{db: db}
}

func (d *NotificationDao) Create(ctx context.Context, p *po.Notification) error {
	return d.db.WithContext(ctx).Create(p).Error
}

func (d *NotificationDao) GetByID(ctx context.Context, id uint64) (*po.Notification, error) {
	var p po.Notification
	err := d.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *NotificationDao) ListActiveByUser(ctx context.Context, userID string, offset, limit int) ([]po.Notification, error) {
	var pos []po.Notification
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(entity.StatusActive)).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func (d *NotificationDao) ListUnreadByUser(ctx context.Context, userID string) ([]po.Notification, error) {
	var pos []po.Notification
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND is_read = ?", userID, string(entity.StatusActive), false).
		Order("created_at DESC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func (d *NotificationDao) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&po.Notification{}).
		Where("user_id = ? AND status = ? AND is_read = ?", userID, string(entity.StatusActive), false).
		Count(&count).Error
	return count, err
}

// MarkRead updates the read state only when the row is still unread, which
// keeps read_at stable across repeated calls. The returned affected count
// lets the caller distinguish no-op from missing row.
func (d *NotificationDao) MarkRead(ctx context.Context, userID string, id uint64) (int64, error) {
	now := time.Now()
	res := d.db.WithContext(ctx).
		Model(&po.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	return res.RowsAffected, res.Error
}

func (d *NotificationDao) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	now := time.Now()
	res := d.db.WithContext(ctx).
		Model(&po.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		})
	return res.RowsAffected, res.Error
}

// ExpireOverdue flips overdue ACTIVE rows to INACTIVE. Rows already
// INACTIVE or not yet due are untouched.
func (d *NotificationDao) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := d.db.WithContext(ctx).
		Model(&po.Notification{}).
		Where("status = ? AND expired_at < ?", string(entity.StatusActive), now).
		Update("status", string(entity.StatusInactive))
	return res.RowsAffected, res.Error
}

func (d *NotificationDao) DeleteReadBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	res := d.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ? AND created_at < ?", userID, true, cutoff).
		Delete(&po.Notification{})
	return res.RowsAffected, res.Error
}
