package app

import (
	"context"
	"sync"

	"github.com/O-HAM-MA/apartner-sub000/ddd/domain/entity"
	drepo "github.com/O-HAM-MA/apartner-sub000/ddd/domain/repo"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/persistence"
	"github.com/O-HAM-MA/apartner-sub000/internal/cache"
	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
	"github.com/O-HAM-MA/apartner-sub000/pkg/sse"
)

// repoStore adapts the notification repository to the dispatcher's Store
// contract: one durable row per resolved recipient, created at dispatch
// time whether or not the recipient is online.
type repoStore struct {
	repo drepo.NotificationRepository
}

// NewRepoStore builds a dispatcher store over a repository.
func NewRepoStore(repo drepo.NotificationRepository) sse.Store {
	return &repoStore{repo: repo}
}

func (s *repoStore) SaveForRecipient(ctx context.Context, userID string, msg sse.Message) error {
	n := entity.NewNotification(userID, msg.Title, msg.Message)
	if cfg := config.GlobalConfig(); cfg != nil && cfg.Sweep.DefaultTTLDays != entity.DefaultTTLDays {
		n.ExpiredAt = n.CreatedAt.AddDate(0, 0, cfg.Sweep.DefaultTTLDays)
	}
	n.Type = msg.Type
	n.BusinessType = msg.BusinessType
	n.Category = msg.Category
	n.LinkURL = msg.LinkURL
	n.EntityID = msg.EntityID
	n.SenderID = msg.SenderID
	n.ApartmentID = msg.ApartmentID
	n.BuildingID = msg.BuildingID
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	cache.InvalidateUnreadCount(ctx, userID)
	return nil
}

var (
	dispatcherOnce    sync.Once
	defaultDispatcher *sse.Dispatcher
)

// DefaultDispatcher returns the singleton dispatcher bound to the global
// registry and the durable store.
func DefaultDispatcher() *sse.Dispatcher {
	dispatcherOnce.Do(func() {
		defaultDispatcher = sse.NewDispatcher(
			sse.DefaultRegistry(),
			NewRepoStore(persistence.NewNotificationRepository()),
		)
	})
	return defaultDispatcher
}
