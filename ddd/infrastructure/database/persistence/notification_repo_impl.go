package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/O-HAM-MA/apartner-sub000/ddd/domain/entity"
	drepo "github.com/O-HAM-MA/apartner-sub000/ddd/domain/repo"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/dao"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/po"
	"github.com/O-HAM-MA/apartner-sub000/pkg/errno"
)

type notificationRepositoryImpl struct {
	dao *dao.NotificationDao
}

func NewNotificationRepository() drepo.NotificationRepository {
	return &notificationRepositoryImpl{dao: dao.NewNotificationDao()}
}

// NewNotificationRepositoryWithDao is used by tests.
func NewNotificationRepositoryWithDao(d *dao.NotificationDao) drepo.NotificationRepository {
	return &notificationRepositoryImpl{dao: d}
}

func (r *notificationRepositoryImpl) Create(ctx context.Context, n *entity.Notification) error {
	p := toPO(n)
	if err := r.dao.Create(ctx, p); err != nil {
		return err
	}
	n.ID = p.ID
	return nil
}

func (r *notificationRepositoryImpl) GetByID(ctx context.Context, id uint64) (*entity.Notification, error) {
	p, err := r.dao.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrNotFound
		}
		return nil, err
	}
	return toEntity(p), nil
}

func (r *notificationRepositoryImpl) ListActiveByUser(ctx context.Context, userID string, offset, limit int) ([]*entity.Notification, error) {
	pos, err := r.dao.ListActiveByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	return toEntities(pos), nil
}

func (r *notificationRepositoryImpl) ListUnreadByUser(ctx context.Context, userID string) ([]*entity.Notification, error) {
	pos, err := r.dao.ListUnreadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toEntities(pos), nil
}

func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, userID string) (int64, error) {
	return r.dao.CountUnread(ctx, userID)
}

func (r *notificationRepositoryImpl) MarkRead(ctx context.Context, userID string, id uint64) error {
	affected, err := r.dao.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	// Zero rows means either an already-read row (idempotent no-op) or a row
	// that is missing / owned by someone else. Disambiguate with a lookup.
	p, err := r.dao.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errno.ErrNotFound
		}
		return err
	}
	if p.UserID != userID {
		return errno.ErrNotFound
	}
	return nil
}

func (r *notificationRepositoryImpl) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return r.dao.MarkAllRead(ctx, userID)
}

func (r *notificationRepositoryImpl) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return r.dao.ExpireOverdue(ctx, now)
}

func (r *notificationRepositoryImpl) DeleteReadBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error) {
	return r.dao.DeleteReadBefore(ctx, userID, cutoff)
}

func toPO(n *entity.Notification) *po.Notification {
	return &po.Notification{
		ID:           n.ID,
		UserID:       n.UserID,
		ApartmentID:  n.ApartmentID,
		BuildingID:   n.BuildingID,
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
		CreatedAt:    n.CreatedAt,
		ExpiredAt:    n.ExpiredAt,
	}
}

func toEntity(p *po.Notification) *entity.Notification {
	return &entity.Notification{
		ID:           p.ID,
		UserID:       p.UserID,
		ApartmentID:  p.ApartmentID,
		BuildingID:   p.BuildingID,
		Title:        p.Title,
		Message:      p.Message,
		Type:         p.Type,
		BusinessType: p.BusinessType,
		Category:     p.Category,
		Status:       entity.Status(p.Status),
		IsRead:       p.IsRead,
		ReadAt:       p.ReadAt,
		LinkURL:      p.LinkURL,
		EntityID:     p.EntityID,
		SenderID:     p.SenderID,
		CreatedAt:    p.CreatedAt,
		ExpiredAt:    p.ExpiredAt,
	}
}

func toEntities(pos []po.Notification) []*entity.Notification {
	res := make([]*entity.Notification, 0, len(pos))
	for i := range pos {
		res = append(res, toEntity(&pos[i]))
	}
	return res
}
