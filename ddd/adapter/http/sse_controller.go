package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/O-HAM-MA/apartner-sub000/ddd/application/app"
	"github.com/O-HAM-MA/apartner-sub000/ddd/application/cqe"
	"github.com/O-HAM-MA/apartner-sub000/ddd/application/dto"
	"github.com/O-HAM-MA/apartner-sub000/internal/directory"
	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
	"github.com/O-HAM-MA/apartner-sub000/pkg/errno"
	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
	"github.com/O-HAM-MA/apartner-sub000/pkg/manager"
	"github.com/O-HAM-MA/apartner-sub000/pkg/restapi"
	"github.com/O-HAM-MA/apartner-sub000/pkg/sse"
)

func init() {
	manager.RegisterControllerPlugin(&SseControllerPlugin{})
}

var (
	sseControllerOnce sync.Once
	singletonSseCtrl  SseController
)

// SseControllerPlugin registers the stream controller with the shared
// manager.
type SseControllerPlugin struct{}

func (p *SseControllerPlugin) Name() string {
	return "sseController"
}

func (p *SseControllerPlugin) MustCreateController() manager.Controller {
	sseControllerOnce.Do(func() {
		cfg := config.GlobalConfig()
		singletonSseCtrl = &sseControllerImpl{
			dispatcher: app.DefaultDispatcher(),
			directory:  directory.NewFromConfig(cfg.Directory),
		}
	})
	return singletonSseCtrl
}

// SseController exposes the long-lived stream plus its operational
// endpoints.
type SseController interface {
	manager.Controller
	Connect(ctx *gin.Context)
	Health(ctx *gin.Context)
	Status(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
	Dispatch(ctx *gin.Context)
	Heartbeat(ctx *gin.Context)
}

type sseControllerImpl struct {
	manager.Controller
	dispatcher *sse.Dispatcher
	directory  directory.Directory
}

func (c *sseControllerImpl) RegisterOpenApi(group *gin.RouterGroup) {
	stream := group.Group("sse")
	{
		stream.GET("/connect", c.Connect)
		stream.GET("/health", c.Health)
		stream.GET("/status/:userId", c.Status)
		stream.DELETE("/disconnect/:userId", c.Disconnect)
	}
}

func (c *sseControllerImpl) RegisterInnerApi(group *gin.RouterGroup) {
	group.POST("/dispatch", c.Dispatch)
}

func (c *sseControllerImpl) RegisterOpsApi(group *gin.RouterGroup) {
	group.POST("/sse/heartbeat", c.Heartbeat)
}

// Connect establishes the SSE stream: resolve the caller through the user
// directory, register a connection, emit the connect event, then pump
// events until the client goes away or the connection reaches a terminal
// state.
func (c *sseControllerImpl) Connect(ctx *gin.Context) {
	userID := ctx.Query("userId")
	if userID == "" {
		restapi.FailedWithStatus(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, nil, "userId"), http.StatusBadRequest)
		return
	}

	identity, err := c.directory.Resolve(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, directory.ErrUnknownUser) {
			restapi.FailedWithStatus(ctx, errno.ErrUnknownUser, http.StatusNotFound)
			return
		}
		restapi.Failed(ctx, err)
		return
	}

	w := ctx.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.WithContext(ctx.Request.Context()).Errorf("sse: stream does not support flushing user_id=%s", userID)
		restapi.FailedWithStatus(ctx, errno.ErrInternalServer, http.StatusInternalServerError)
		return
	}

	registry := c.dispatcher.Registry()
	conn := registry.Register(identity.UserID, identity.ApartmentID, identity.ApartmentName, identity.Role)
	defer registry.Unregister(conn.UserID, conn.ID)
	defer conn.Close()

	// Initial comment keeps some proxies from buffering the response.
	if _, err := w.Write([]byte(": ok\n\n")); err == nil {
		flusher.Flush()
	}

	if err := writeEvent(w, flusher, sse.Event{Type: sse.EventConnect, Data: identity}); err != nil {
		return
	}
	conn.Touch()

	logger.WithContext(ctx.Request.Context()).Infof(
		"sse: stream opened user_id=%s conn_id=%s apartment_id=%s role=%s",
		conn.UserID, conn.ID, identity.ApartmentID, identity.Role)

	notify := ctx.Request.Context().Done()
	for {
		select {
		case <-notify:
			return
		case ev, ok := <-conn.Events():
			if !ok {
				return
			}
			if err := writeEvent(w, flusher, ev); err != nil {
				return
			}
			conn.Touch()
		}
	}
}

func writeEvent(w gin.ResponseWriter, flusher http.Flusher, ev sse.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return nil
	}
	if _, err := w.Write([]byte("event: " + ev.Type + "\n")); err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// Health reports connected-client counts.
func (c *sseControllerImpl) Health(ctx *gin.Context) {
	registry := c.dispatcher.Registry()
	restapi.Success(ctx, dto.StreamHealth{
		Connections: registry.ConnectionCount(),
		Users:       registry.OnlineUserCount(),
	})
}

// Status reports whether one user currently holds a live stream.
func (c *sseControllerImpl) Status(ctx *gin.Context) {
	userID := ctx.Param("userId")
	restapi.Success(ctx, dto.OnlineStatus{
		UserID: userID,
		Online: c.dispatcher.Registry().IsOnline(userID),
	})
}

// Disconnect pushes a disconnect notice to the user's streams and closes
// them server-side.
func (c *sseControllerImpl) Disconnect(ctx *gin.Context) {
	userID := ctx.Param("userId")
	if userID == "" {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, nil, "userId"))
		return
	}
	notified := c.dispatcher.DisconnectUser(ctx.Request.Context(), userID)
	restapi.Success(ctx, gin.H{"notified": notified})
}

// Dispatch is the inner API other services use to fan a notification out to
// a target selector.
func (c *sseControllerImpl) Dispatch(ctx *gin.Context) {
	var req cqe.DispatchReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, err, "body"))
		return
	}
	if !req.Validate() {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, nil, "target"))
		return
	}
	result, err := c.dispatcher.Dispatch(ctx.Request.Context(), req.Selector(), req.EventName(), req.ToMessage())
	if err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrDatabase, err))
		return
	}
	restapi.Success(ctx, result)
}

// Heartbeat triggers one hub-wide heartbeat pass, for operational testing.
func (c *sseControllerImpl) Heartbeat(ctx *gin.Context) {
	sent, pruned := c.dispatcher.Heartbeat(ctx.Request.Context())
	restapi.Success(ctx, dto.HeartbeatResult{Sent: sent, Pruned: pruned})
}
