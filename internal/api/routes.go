package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/curaious/projecthub/internal/api/authenticator"
	"github.com/curaious/projecthub/internal/api/controllers"
	"github.com/curaious/projecthub/internal/api/response"
	"github.com/curaious/projecthub/internal/perrors"
)

var (
	tracePropagator = propagation.TraceContext{}
	tracer          = otel.Tracer("github.com/curaious/projecthub/internal/api")
)

var publicRoutes = []string{
	"/api/health",
	"/api/auth/login",
	"/api/auth/verify",
}

func (s *Server) initRoutes() fasthttp.RequestHandler {
	r := router.New()

	controllers.RegisterHealthRoutes(r)
	controllers.RegisterAuthRoutes(r, s.services, s.verifier)
	controllers.RegisterUserRoutes(r, s.services)
	controllers.RegisterProjectRoutes(r, s.services)
	controllers.RegisterTaskRoutes(r, s.services)
	controllers.RegisterPaymentRoutes(r, s.services)
	controllers.RegisterNotificationRoutes(r, s.services)
	controllers.RegisterDashboardRoutes(r, s.services)
	if s.conf.DEBUG_ROUTES_ENABLED {
		controllers.RegisterDebugRoutes(r, s.services)
	}

	return s.withMiddlewares(r.Handler)
}

func (s *Server) withMiddlewares(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		s.applyCORS(ctx)
		if string(ctx.Method()) == fasthttp.MethodOptions {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		start := time.Now()
		method := string(ctx.Method())
		requestURI := string(ctx.RequestURI())
		slog.Info("Started processing", slog.String("method", method), slog.String("request_uri", requestURI))

		h := http.Header{}
		ctx.Request.Header.VisitAll(func(k, v []byte) {
			h[string(k)] = []string{string(v)}
		})
		traceCtx := tracePropagator.Extract(context.Background(), propagation.HeaderCarrier(h))
		traceCtx, span := tracer.Start(traceCtx, fmt.Sprintf("%s %s", method, ctx.Path()),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", method),
				attribute.String("url.path", string(ctx.Path())),
			),
		)
		defer span.End()

		stdCtx, cancel := context.WithTimeout(traceCtx, s.conf.REQUEST_TIMEOUT)
		defer cancel()
		controllers.SetRequestContext(ctx, stdCtx)

		if s.authenticate(ctx, stdCtx) && s.allow(ctx, stdCtx) {
			next(ctx)
		}

		status := ctx.Response.StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= fasthttp.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		slog.Info("Finished processing", slog.String("method", method), slog.String("request_uri", requestURI), slog.Int("status", status), slog.Duration("duration", time.Since(start)))
	}
}

// authenticate verifies the bearer token of protected routes and attaches the identity.
// It writes the 401 itself and reports whether the request may continue.
func (s *Server) authenticate(ctx *fasthttp.RequestCtx, stdCtx context.Context) bool {
	if s.isPublicRoute(ctx) {
		return true
	}

	token := authenticator.BearerToken(string(ctx.Request.Header.Peek("Authorization")))
	if token == "" {
		response.NewResponse[any](stdCtx, "Access denied. No token provided.", nil).
			WithError(perrors.NewErrUnauthorized("Access denied. No token provided.", nil)).
			Write(ctx)
		return false
	}

	id, err := s.verifier.Verify(stdCtx, token)
	if err != nil {
		response.NewResponse[any](stdCtx, "Invalid or expired token", nil).
			WithError(perrors.NewErrUnauthorized("Invalid or expired token", err)).
			Write(ctx)
		return false
	}

	controllers.SetIdentity(ctx, id)
	return true
}

// allow applies the rate limit per verified subject, falling back to the remote IP.
// Limiter errors let the request through.
func (s *Server) allow(ctx *fasthttp.RequestCtx, stdCtx context.Context) bool {
	if s.limiter == nil {
		return true
	}

	key := "ip:" + ctx.RemoteIP().String()
	if id := controllers.IdentityFrom(ctx); id != nil {
		key = "sub:" + id.Subject
	}

	ok, err := s.limiter.Allow(stdCtx, key)
	if err != nil {
		slog.WarnContext(stdCtx, "Rate limiter unavailable", slog.Any("error", err))
		return true
	}
	if !ok {
		response.NewResponse[any](stdCtx, "Too many requests", nil).
			WithError(perrors.New(perrors.ErrCodeTooManyRequests, "Too many requests", nil, map[string]interface{}{"key": key})).
			Write(ctx)
		return false
	}
	return true
}

func (s *Server) applyCORS(ctx *fasthttp.RequestCtx) {
	origin := string(ctx.Request.Header.Peek("Origin"))
	if len(s.conf.ALLOWED_ORIGINS) > 0 && !slices.Contains(s.conf.ALLOWED_ORIGINS, origin) {
		return
	}

	headers := &ctx.Response.Header
	headers.Set("Access-Control-Allow-Origin", origin)
	headers.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS,PATCH")
	headers.Set("Access-Control-Allow-Headers", s.conf.ALLOWED_HEADERS)
	headers.Set("Access-Control-Allow-Credentials", "true")
	headers.Add("Vary", "Origin")
}

func (s *Server) isPublicRoute(ctx *fasthttp.RequestCtx) bool {
	path := string(ctx.Path())

	switch {
	case slices.Contains(publicRoutes, path):
		return true
	case s.conf.DEBUG_ROUTES_ENABLED && strings.HasPrefix(path, "/api/debug/"):
		return true
	default:
		return false
	}
}
