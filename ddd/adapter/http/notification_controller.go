package http

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/O-HAM-MA/apartner-sub000/ddd/application/app"
	"github.com/O-HAM-MA/apartner-sub000/ddd/application/cqe"
	"github.com/O-HAM-MA/apartner-sub000/pkg/errno"
	"github.com/O-HAM-MA/apartner-sub000/pkg/manager"
	"github.com/O-HAM-MA/apartner-sub000/pkg/restapi"
)

func init() {
	manager.RegisterControllerPlugin(&NotificationControllerPlugin{})
}

var (
	notificationControllerOnce sync.Once
	singletonNotificationCtrl  NotificationController
)

// NotificationControllerPlugin registers the notification controller with
// the shared manager.
type NotificationControllerPlugin struct{}

func (p *NotificationControllerPlugin) Name() string {
	return "notificationController"
}

func (p *NotificationControllerPlugin) MustCreateController() manager.Controller {
	notificationControllerOnce.Do(func() {
		singletonNotificationCtrl = &notificationControllerImpl{
			app: app.DefaultNotificationApp(),
		}
	})
	return singletonNotificationCtrl
}

// NotificationController exposes the durable-store query and mutation
// endpoints.
type NotificationController interface {
	manager.Controller
	List(ctx *gin.Context)
	ListUnread(ctx *gin.Context)
	MarkRead(ctx *gin.Context)
	MarkAllRead(ctx *gin.Context)
	CleanupRead(ctx *gin.Context)
}

type notificationControllerImpl struct {
	manager.Controller
	app app.NotificationApp
}

func (c *notificationControllerImpl) RegisterOpenApi(group *gin.RouterGroup) {
	notifications := group.Group("notifications")
	{
		notifications.GET("", c.List)
		notifications.GET("/unread", c.ListUnread)
		notifications.POST("/:id/read", c.MarkRead)
		notifications.POST("/read_all", c.MarkAllRead)
		notifications.DELETE("/read", c.CleanupRead)
	}
}

func (c *notificationControllerImpl) RegisterInnerApi(group *gin.RouterGroup) {}
func (c *notificationControllerImpl) RegisterOpsApi(group *gin.RouterGroup)   {}

// callerUserID resolves the caller's user id set upstream by the identity
// collaborator. This service does not authenticate; it only requires the id
// to be present.
func callerUserID(ctx *gin.Context) (string, error) {
	userID := ctx.GetHeader("X-User-Id")
	if userID == "" {
		userID = ctx.Query("userId")
	}
	if userID == "" {
		return "", errno.NewSimpleBizError(errno.ErrParameterInvalid, nil, "userId")
	}
	return userID, nil
}

// List returns the caller's ACTIVE notifications plus the unread count.
func (c *notificationControllerImpl) List(ctx *gin.Context) {
	userID, err := callerUserID(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	var req cqe.ListNotificationsReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, err, "query"))
		return
	}
	resp, err := c.app.ListActive(ctx.Request.Context(), userID, &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// ListUnread returns the caller's unread notifications.
func (c *notificationControllerImpl) ListUnread(ctx *gin.Context) {
	userID, err := callerUserID(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	items, err := c.app.ListUnread(ctx.Request.Context(), userID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, items)
}

// MarkRead marks one notification read. Repeated calls are no-ops; a
// foreign or missing id is a not-found.
func (c *notificationControllerImpl) MarkRead(ctx *gin.Context) {
	userID, err := callerUserID(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, err, "id"))
		return
	}
	if err := c.app.MarkRead(ctx.Request.Context(), userID, id); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, gin.H{"status": "ok"})
}

// MarkAllRead marks every unread notification of the caller as read.
func (c *notificationControllerImpl) MarkAllRead(ctx *gin.Context) {
	userID, err := callerUserID(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	resp, err := c.app.MarkAllRead(ctx.Request.Context(), userID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// CleanupRead deletes the caller's read notifications older than the given
// day threshold.
func (c *notificationControllerImpl) CleanupRead(ctx *gin.Context) {
	userID, err := callerUserID(ctx)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	var req cqe.RetentionReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		restapi.Failed(ctx, errno.NewSimpleBizError(errno.ErrParameterInvalid, err, "days"))
		return
	}
	resp, err := c.app.CleanupRead(ctx.Request.Context(), userID, &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}
