package repo

import (
	"context"
	"time"

	"github.com/O-HAM-MA/apartner-sub000/ddd/domain/entity"
)

// NotificationRepository hides the persistence implementation from the
// application layer. Every operation is a single-row insert or update; no
// multi-row transactions are required.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id uint64) (*entity.Notification, error)
	ListActiveByUser(ctx context.Context, userID string, offset, limit int) ([]*entity.Notification, error)
	ListUnreadByUser(ctx context.Context, userID string) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)

	// MarkRead is idempotent and scoped to the owner: a row that does not
	// exist or belongs to another user yields entity not-found semantics.
	MarkRead(ctx context.Context, userID string, id uint64) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)

	// ExpireOverdue flips ACTIVE rows whose expiry has passed to INACTIVE
	// and returns how many were transitioned. Rows are never deleted here.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// DeleteReadBefore hard-deletes the user's read rows created before the
	// cutoff and returns the deleted count.
	DeleteReadBefore(ctx context.Context, userID string, cutoff time.Time) (int64, error)
}
