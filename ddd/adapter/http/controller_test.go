package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	applayer "github.com/O-HAM-MA/apartner-sub000/ddd/application/app"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/dao"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/persistence"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/po"
	"github.com/O-HAM-MA/apartner-sub000/internal/directory"
	"github.com/O-HAM-MA/apartner-sub000/pkg/restapi"
	"github.com/O-HAM-MA/apartner-sub000/pkg/sse"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router     *gin.Engine
	dispatcher *sse.Dispatcher
	registry   *sse.Registry
}

// setupTestEnv wires the controllers against an in-memory sqlite store and a
// fresh registry, bypassing the global plugin singletons.
func setupTestEnv(t *testing.T) *testEnv {
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

	repo := persistence.NewNotificationRepositoryWithDao(dao.NewNotificationDaoWithDB(db))
	registry := sse.NewRegistry()
	dispatcher := sse.NewDispatcher(registry, applayer.NewRepoStore(repo))

	users := directory.NewStaticDirectory()
	users.Put(directory.Identity{UserID: "user-a", ApartmentID: "apt-7", ApartmentName: "Sunrise Tower", Role: sse.RoleAdmin})
	users.Put(directory.Identity{UserID: "user-b", ApartmentID: "apt-7", ApartmentName: "Sunrise Tower", Role: sse.RoleUser})

	notificationCtrl := &notificationControllerImpl{app: applayer.NewNotificationApp(repo)}
	sseCtrl := &sseControllerImpl{dispatcher: dispatcher, directory: users}

	router := gin.New()
	open := router.Group("/")
	inner := router.Group("/inner")
	ops := router.Group("/ops")
	notificationCtrl.RegisterOpenApi(open)
	sseCtrl.RegisterOpenApi(open)
	sseCtrl.RegisterInnerApi(inner)
	sseCtrl.RegisterOpsApi(ops)

	return &testEnv{router: router, dispatcher: dispatcher, registry: registry}
}

func doRequest(t *testing.T, router *gin.Engine, method, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp restapi.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode envelope: %v (body=%s)", err, w.Body.String())
	}
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-encode data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestOfflineRecipientReadsRowOnNextQuery(t *testing.T) {
	env := setupTestEnv(t)

	// user-c holds no connection; dispatch must still persist.
	result, err := env.dispatcher.Dispatch(context.Background(), sse.User("user-c"), sse.EventAlarm,
		sse.Message{Title: "water outage", Message: "tomorrow 9am"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Persisted != 1 || result.Pushed != 0 {
		t.Fatalf("result = %+v, want persisted without live push", result)
	}

	w := doRequest(t, env.router, http.MethodGet, "/notifications/unread", "user-c")
	if w.Code != http.StatusOK {
		t.Fatalf("unread status = %d, body=%s", w.Code, w.Body.String())
	}
	var items []map[string]interface{}
	decodeData(t, w, &items)
	if len(items) != 1 {
		t.Fatalf("unread items = %d, want exactly the dispatched row", len(items))
	}
	if items[0]["title"] != "water outage" {
		t.Fatalf("unexpected row %+v", items[0])
	}
}

func TestMarkReadFlowOverHTTP(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.dispatcher.Dispatch(context.Background(), sse.User("user-a"), sse.EventAlarm,
		sse.Message{Title: "t", Message: "m"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	var items []map[string]interface{}
	decodeData(t, doRequest(t, env.router, http.MethodGet, "/notifications/unread", "user-a"), &items)
	if len(items) != 1 {
		t.Fatalf("unread = %d, want 1", len(items))
	}
	id := uint64(items[0]["id"].(float64))

	// Marking twice stays OK and leaves the row read.
	for i := 0; i < 2; i++ {
		w := doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/notifications/%d/read", id), "user-a")
		if w.Code != http.StatusOK {
			t.Fatalf("mark read attempt %d status = %d, body=%s", i+1, w.Code, w.Body.String())
		}
	}

	decodeData(t, doRequest(t, env.router, http.MethodGet, "/notifications/unread", "user-a"), &items)
	if len(items) != 0 {
		t.Fatalf("unread after mark-read = %d, want 0", len(items))
	}

	// A foreign caller gets a not-found, not someone else's row.
	w := doRequest(t, env.router, http.MethodPost, fmt.Sprintf("/notifications/%d/read", id), "user-b")
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign mark-read status = %d, want 404", w.Code)
	}
}

func TestMarkAllReadOverHTTP(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 3; i++ {
		if _, err := env.dispatcher.Dispatch(context.Background(), sse.User("user-a"), sse.EventAlarm,
			sse.Message{Title: fmt.Sprintf("t%d", i), Message: "m"}); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}

	w := doRequest(t, env.router, http.MethodPost, "/notifications/read_all", "user-a")
	if w.Code != http.StatusOK {
		t.Fatalf("read_all status = %d", w.Code)
	}
	var resp map[string]interface{}
	decodeData(t, w, &resp)
	if int(resp["updated"].(float64)) != 3 {
		t.Fatalf("updated = %v, want 3", resp["updated"])
	}
}

func TestRetentionDaysValidation(t *testing.T) {
	env := setupTestEnv(t)

	for _, days := range []string{"0", "-3"} {
		w := doRequest(t, env.router, http.MethodDelete, "/notifications/read?days="+days, "user-a")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("days=%s status = %d, want 400", days, w.Code)
		}
	}

	w := doRequest(t, env.router, http.MethodDelete, "/notifications/read?days=30", "user-a")
	if w.Code != http.StatusOK {
		t.Fatalf("days=30 status = %d, body=%s", w.Code, w.Body.String())
	}
}

func TestStreamStatusAndHealth(t *testing.T) {
	env := setupTestEnv(t)

	env.registry.Register("user-a", "apt-7", "Sunrise Tower", sse.RoleAdmin)
	env.registry.Register("user-a", "apt-7", "Sunrise Tower", sse.RoleAdmin)

	var status map[string]interface{}
	decodeData(t, doRequest(t, env.router, http.MethodGet, "/sse/status/user-a", ""), &status)
	if status["online"] != true {
		t.Fatalf("status = %v, want online", status)
	}
	decodeData(t, doRequest(t, env.router, http.MethodGet, "/sse/status/user-z", ""), &status)
	if status["online"] != false {
		t.Fatalf("status = %v, want offline", status)
	}

	var health map[string]interface{}
	decodeData(t, doRequest(t, env.router, http.MethodGet, "/sse/health", ""), &health)
	if int(health["connections"].(float64)) != 2 || int(health["users"].(float64)) != 1 {
		t.Fatalf("health = %v, want 2 connections / 1 user", health)
	}
}

func TestConnectRejectsUnknownUser(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodGet, "/sse/connect?userId=user-z", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown user connect status = %d, want 404", w.Code)
	}
	if env.registry.IsOnline("user-z") {
		t.Fatal("no connection may be created for an unknown user")
	}

	w = doRequest(t, env.router, http.MethodGet, "/sse/connect", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing userId status = %d, want 400", w.Code)
	}
}

func TestAdminTargetedDispatchEndToEnd(t *testing.T) {
	env := setupTestEnv(t)

	admin := env.registry.Register("user-a", "apt-7", "Sunrise Tower", sse.RoleAdmin)
	resident := env.registry.Register("user-b", "apt-7", "Sunrise Tower", sse.RoleUser)

	result, err := env.dispatcher.Dispatch(context.Background(), sse.ApartmentAdmins("apt-7"), sse.EventAlarm,
		sse.Message{Title: "t", Message: "m"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result.Persisted != 1 || result.Pushed != 1 {
		t.Fatalf("result = %+v, want admin only", result)
	}

	select {
	case ev := <-admin.Events():
		if ev.Type != sse.EventAlarm {
			t.Fatalf("admin event type = %s, want alarm", ev.Type)
		}
	default:
		t.Fatal("admin should have received a live event")
	}
	select {
	case ev := <-resident.Events():
		t.Fatalf("resident unexpectedly received %+v", ev)
	default:
	}

	var items []map[string]interface{}
	decodeData(t, doRequest(t, env.router, http.MethodGet, "/notifications/unread", "user-b"), &items)
	if len(items) != 0 {
		t.Fatal("resident must have no persisted row for an admin-targeted dispatch")
	}
}
