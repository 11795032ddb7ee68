package dao

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/O-HAM-MA/apartner-sub000/ddd/domain/entity"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/po"
)

func setupTestDao(t *testing.T) *NotificationDao {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&po.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewNotificationDaoWithDB(db)
}

func insertNotification(t *testing.T, d *NotificationDao, userID string, read bool, createdAt, expiredAt time.Time) *po.Notification {
	t.Helper()
	p := &po.Notification{
		UserID:    userID,
		Title:     "title",
		Message:   "message",
		Status:    string(entity.StatusActive),
		IsRead:    read,
		CreatedAt: createdAt,
		ExpiredAt: expiredAt,
	}
	if read {
		at := createdAt
		p.ReadAt = &at
	}
	if err := d.Create(context.Background(), p); err != nil {
		t.Fatalf("insert notification: %v", err)
	}
	return p
}

func TestMarkReadIsIdempotent(t *testing.T) {
	d := setupTestDao(t)
	ctx := context.Background()
	now := time.Now()
	p := insertNotification(t, d, "user-a", false, now, now.AddDate(0, 0, 30))

	affected, err := d.MarkRead(ctx, "user-a", p.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first MarkRead affected = %d, want 1", affected)
	}

	first, err := d.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !first.IsRead || first.ReadAt == nil {
		t.Fatal("row should be read with read_at set")
	}

	affected, err = d.MarkRead(ctx, "user-a", p.ID)
	if err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second MarkRead affected = %d, want 0", affected)
	}

	second, err := d.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !second.ReadAt.Equal(*first.ReadAt) {
		t.Fatalf("read_at changed on repeat call: %v != %v", second.ReadAt, first.ReadAt)
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	d := setupTestDao(t)
	ctx := context.Background()
	now := time.Now()
	p := insertNotification(t, d, "user-a", false, now, now.AddDate(0, 0, 30))

	affected, err := d.MarkRead(ctx, "user-b", p.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if affected != 0 {
		t.Fatal("another user's mark-read must not touch the row")
	}

	got, err := d.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.IsRead {
		t.Fatal("row must stay unread after a foreign mark-read")
	}
}

func TestMarkAllRead(t *testing.T) {
	d := setupTestDao(t)
	ctx := context.Background()
	now := time.Now()
	insertNotification(t, d, "user-a", false, now, now.AddDate(0, 0, 30))
	insertNotification(t, d, "user-a", false, now, now.AddDate(0, 0, 30))
	insertNotification(t, d, "user-a", true, now, now.AddDate(0, 0, 30))
	insertNotification(t, d, "user-b", false, now, now.AddDate(0, 0, 30))

	affected, err := d.MarkAllRead(ctx, "user-a")
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if affected != 2 {
		t.Fatalf("MarkAllRead affected = %d, want the caller's two unread rows", affected)
	}

	count, err := d.CountUnread(ctx, "user-b")
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if count != 1 {
		t.Fatal("other users' unread rows must be untouched")
	}
}

func TestExpireOverdueSelectivity(t *testing.T) {
	d := setupTestDao(t)
	ctx := context.Background()
	now := time.Now()

	overdue := insertNotification(t, d, "user-a", false, now.AddDate(0, 0, -40), now.AddDate(0, 0, -10))
	future := insertNotification(t, d, "user-a", false, now, now.AddDate(0, 0, 30))

	alreadyInactive := insertNotification(t, d, "user-a", false, now.AddDate(0, 0, -40), now.AddDate(0, 0, -10))
	if err := d.db.Model(&po.Notification{}).Where("id = ?", alreadyInactive.ID).
		Update("status", string(entity.StatusInactive)).Error; err != nil {
		t.Fatalf("prepare inactive row: %v", err)
	}

	expired, err := d.ExpireOverdue(ctx, now)
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want only the overdue ACTIVE row", expired)
	}

	got, err := d.GetByID(ctx, overdue.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != string(entity.StatusInactive) {
		t.Fatalf("overdue row status = %s, want INACTIVE", got.Status)
	}

	got, err = d.GetByID(ctx, future.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != string(entity.StatusActive) {
		t.Fatal("rows not yet due must stay ACTIVE")
	}
}

func TestDeleteReadBeforeScoping(t *testing.T) {
	d := setupTestDao(t)
	ctx := context.Background()
	now := time.Now()

	oldRead := insertNotification(t, d, "user-a", true, now.AddDate(0, 0, -40), now.AddDate(0, 0, -10))
	recentRead := insertNotification(t, d, "user-a", true, now.AddDate(0, 0, -5), now.AddDate(0, 0, 25))
	oldUnread := insertNotification(t, d, "user-a", false, now.AddDate(0, 0, -40), now.AddDate(0, 0, -10))
	otherUsers := insertNotification(t, d, "user-b", true, now.AddDate(0, 0, -40), now.AddDate(0, 0, -10))

	deleted, err := d.DeleteReadBefore(ctx, "user-a", now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("DeleteReadBefore: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want only the caller's old read row", deleted)
	}

	if _, err := d.GetByID(ctx, oldRead.ID); err == nil {
		t.Fatal("old read row should be gone")
	}
	for _, id := range []uint64{recentRead.ID, oldUnread.ID, otherUsers.ID} {
		if _, err := d.GetByID(ctx, id); err != nil {
			t.Fatalf("row %d should survive retention cleanup: %v", id, err)
		}
	}
}

func TestListUnreadByUser(t *testing.T) {
	d := setupTestDao(t)
	ctx := context.Background()
	now := time.Now()

	insertNotification(t, d, "user-a", false, now, now.AddDate(0, 0, 30))
	insertNotification(t, d, "user-a", true, now, now.AddDate(0, 0, 30))
	insertNotification(t, d, "user-b", false, now, now.AddDate(0, 0, 30))

	list, err := d.ListUnreadByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListUnreadByUser: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("unread list = %d rows, want 1", len(list))
	}
	if list[0].UserID != "user-a" || list[0].IsRead {
		t.Fatalf("unexpected row %+v", list[0])
	}
}
