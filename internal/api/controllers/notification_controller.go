package controllers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/notification"
	"github.com/curaious/projecthub/internal/services/user"
)

func RegisterNotificationRoutes(r *router.Router, svc *services.Services) {
	// Own notifications, newest first
	r.GET("/api/notifications", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list notifications", err)
			return
		}

		items, err := svc.Notification.List(stdCtx, actor)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to list notifications", err)
			return
		}

		writeOK(ctx, stdCtx, "Notifications retrieved successfully", items)
	})

	r.GET("/api/notifications/unread-count", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to count notifications", err)
			return
		}

		count, err := svc.Notification.UnreadCount(stdCtx, actor)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to count notifications", err)
			return
		}

		writeOK(ctx, stdCtx, "Unread count retrieved successfully", count)
	})

	// Explicit creation for any registered user
	r.POST("/api/notifications", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		if _, err := currentUser(ctx, stdCtx, svc); err != nil {
			writeError(ctx, stdCtx, "Failed to create notification", err)
			return
		}

		var body notification.CreateNotificationRequest
		if err := parseBody(ctx, &body, map[string]string{"userId": "user_id"}); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.Notification.Create(stdCtx, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create notification", err)
			return
		}

		writeCreated(ctx, stdCtx, "Notification created successfully", created)
	})

	r.PATCH("/api/notifications/{id}/read", idRoute(svc, "Failed to mark notification as read", "Notification marked as read",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Notification.MarkRead(stdCtx, actor, id)
		}))

	r.DELETE("/api/notifications/{id}", idRoute(svc, "Failed to delete notification", "Notification deleted successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			if err := svc.Notification.Delete(stdCtx, actor, id); err != nil {
				return nil, err
			}
			return map[string]int64{"id": id}, nil
		}))
}
