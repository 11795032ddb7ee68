package app

import (
	"context"
	"sync"
	"time"

	"github.com/O-HAM-MA/apartner-sub000/ddd/application/cqe"
	"github.com/O-HAM-MA/apartner-sub000/ddd/application/dto"
	drepo "github.com/O-HAM-MA/apartner-sub000/ddd/domain/repo"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/persistence"
	"github.com/O-HAM-MA/apartner-sub000/internal/cache"
	"github.com/O-HAM-MA/apartner-sub000/pkg/assert"
	"github.com/O-HAM-MA/apartner-sub000/pkg/errno"
	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
)

// NotificationApp orchestrates the durable-store use cases: queries, read
// state transitions, retention cleanup, and the expiry sweep.
type NotificationApp interface {
	ListActive(ctx context.Context, userID string, req *cqe.ListNotificationsReq) (*dto.ListNotificationsResponse, error)
	ListUnread(ctx context.Context, userID string) ([]dto.NotificationDto, error)
	MarkRead(ctx context.Context, userID string, id uint64) error
	MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadResponse, error)
	CleanupRead(ctx context.Context, userID string, req *cqe.RetentionReq) (*dto.CleanupResponse, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type notificationAppImpl struct {
	repo drepo.NotificationRepository
}

var (
	notificationAppOnce sync.Once
	defaultNotification NotificationApp
)

// DefaultNotificationApp returns the singleton application service.
func DefaultNotificationApp() NotificationApp {
	notificationAppOnce.Do(func() {
		assert.NotCircular()
		defaultNotification = NewNotificationApp(persistence.NewNotificationRepository())
	})
	return defaultNotification
}

// NewNotificationApp wires the app service to an explicit repository.
func NewNotificationApp(repo drepo.NotificationRepository) NotificationApp {
	assert.NotNil(repo)
	return &notificationAppImpl{repo: repo}
}

func (a *notificationAppImpl) ListActive(ctx context.Context, userID string, req *cqe.ListNotificationsReq) (*dto.ListNotificationsResponse, error) {
	if userID == "" {
		return nil, errno.ErrUnauthorized
	}
	req.Normalize()
	offset := (req.Page - 1) * req.PageSize

	list, err := a.repo.ListActiveByUser(ctx, userID, offset, req.PageSize)
	if err != nil {
		return nil, err
	}
	unread, err := a.countUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ListNotificationsResponse{
		Notifications: dto.FromEntities(list),
		UnreadCount:   unread,
	}, nil
}

func (a *notificationAppImpl) ListUnread(ctx context.Context, userID string) ([]dto.NotificationDto, error) {
	if userID == "" {
		return nil, errno.ErrUnauthorized
	}
	list, err := a.repo.ListUnreadByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.FromEntities(list), nil
}

func (a *notificationAppImpl) MarkRead(ctx context.Context, userID string, id uint64) error {
	if userID == "" {
		return errno.ErrUnauthorized
	}
	if err := a.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	cache.InvalidateUnreadCount(ctx, userID)
	return nil
}

func (a *notificationAppImpl) MarkAllRead(ctx context.Context, userID string) (*dto.MarkAllReadResponse, error) {
	if userID == "" {
		return nil, errno.ErrUnauthorized
	}
	updated, err := a.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	cache.InvalidateUnreadCount(ctx, userID)
	return &dto.MarkAllReadResponse{Updated: updated}, nil
}

func (a *notificationAppImpl) CleanupRead(ctx context.Context, userID string, req *cqe.RetentionReq) (*dto.CleanupResponse, error) {
	if userID == "" {
		return nil, errno.ErrUnauthorized
	}
	if !req.Validate() {
		return nil, errno.NewSimpleBizError(errno.ErrParameterInvalid, nil, "days")
	}
	cutoff := time.Now().AddDate(0, 0, -req.Days)
	deleted, err := a.repo.DeleteReadBefore(ctx, userID, cutoff)
	if err != nil {
		return nil, err
	}
	cache.InvalidateUnreadCount(ctx, userID)
	logger.WithContext(ctx).Infof("notification: retention cleanup user_id=%s days=%d deleted=%d",
		userID, req.Days, deleted)
	return &dto.CleanupResponse{Deleted: deleted}, nil
}

// ExpireOverdue is invoked by the scheduled sweep; it only flips status and
// never deletes rows.
func (a *notificationAppImpl) ExpireOverdue(ctx context.Context) (int64, error) {
	expired, err := a.repo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		logger.WithContext(ctx).Infof("notification: expiry sweep transitioned=%d", expired)
	}
	return expired, nil
}

// countUnread consults the redis cache first and falls back to the DB.
func (a *notificationAppImpl) countUnread(ctx context.Context, userID string) (int64, error) {
	if count, ok := cache.GetUnreadCount(ctx, userID); ok {
		return count, nil
	}
	count, err := a.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	cache.SetUnreadCount(ctx, userID, count)
	return count, nil
}
