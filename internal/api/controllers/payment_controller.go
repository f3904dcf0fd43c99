package controllers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/payment"
	"github.com/curaious/projecthub/internal/services/user"
)

func RegisterPaymentRoutes(r *router.Router, svc *services.Services) {
	// Record a payment
	r.POST("/api/payments", func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create payment", err)
			return
		}

		var body payment.CreatePaymentRequest
		if err := parseBody(ctx, &body, payment.RequestAliases); err != nil {
			writeError(ctx, stdCtx, "Invalid request body", invalidBody(err))
			return
		}

		created, err := svc.Payment.Create(stdCtx, actor, &body)
		if err != nil {
			writeError(ctx, stdCtx, "Failed to create payment", err)
			return
		}

		writeCreated(ctx, stdCtx, "Payment created successfully", created)
	})

	r.PATCH("/api/payments/{id}/status", idRoute(svc, "Failed to update payment status", "Payment status updated successfully",
		func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			var body payment.StatusUpdateRequest
			if err := parseBody(ctx, &body, nil); err != nil {
				return nil, invalidBody(err)
			}
			return svc.Payment.UpdateStatus(stdCtx, actor, id, &body)
		}))

	r.GET("/api/projects/{id}/payments", idRoute(svc, "Failed to list payments", "Payments retrieved successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Payment.ListByProject(stdCtx, actor, id)
		}))

	r.GET("/api/projects/{id}/payments/summary", idRoute(svc, "Failed to get payment summary", "Payment summary retrieved successfully",
		func(stdCtx context.Context, _ *fasthttp.RequestCtx, actor *user.User, id int64) (any, error) {
			return svc.Payment.Summary(stdCtx, actor, id)
		}))
}
