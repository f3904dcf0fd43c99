package controllers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	json "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/api/response"
	"github.com/curaious/projecthub/internal/optional"
	"github.com/curaious/projecthub/internal/perrors"
	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/notification"
	"github.com/curaious/projecthub/internal/services/payment"
	"github.com/curaious/projecthub/internal/services/project"
	"github.com/curaious/projecthub/internal/services/task"
	"github.com/curaious/projecthub/internal/services/user"
)

const (
	userValueContext  = "stdCtx"
	userValueIdentity = "identity"
)

// SetRequestContext stores the context derived by the middleware chain for handlers.
func SetRequestContext(ctx *fasthttp.RequestCtx, stdCtx context.Context) {
	ctx.SetUserValue(userValueContext, stdCtx)
}

// SetIdentity attaches the verified principal to the request.
func SetIdentity(ctx *fasthttp.RequestCtx, id *user.Identity) {
	ctx.SetUserValue(userValueIdentity, id)
}

// IdentityFrom returns the verified principal, or nil on public routes.
func IdentityFrom(ctx *fasthttp.RequestCtx) *user.Identity {
	id, _ := ctx.UserValue(userValueIdentity).(*user.Identity)
	return id
}

// requestContext returns the context prepared by the middleware, which carries the trace span
// and the request deadline. Handlers invoked outside the chain fall back to Background.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if stdCtx, ok := ctx.UserValue(userValueContext).(context.Context); ok {
		return stdCtx
	}
	return context.Background()
}

// currentUser resolves the verified principal to its registered user.
func currentUser(ctx *fasthttp.RequestCtx, stdCtx context.Context, svc *services.Services) (*user.User, error) {
	id := IdentityFrom(ctx)
	if id == nil {
		return nil, perrors.NewErrUnauthorized("Access denied. No token provided.", nil)
	}
	return svc.User.Resolve(stdCtx, id.Subject)
}

// parseBody decodes the JSON body into target after renaming accepted synonyms.
func parseBody(ctx *fasthttp.RequestCtx, target any, aliases map[string]string) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return errors.New("request body is empty")
	}

	body, err := optional.Canonicalize(body, aliases)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

func writeError(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, err error) {
	response.NewResponse[any](stdCtx, message, nil).WithError(mapError(err)).Write(ctx)
}

func writeOK(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).Write(ctx)
}

func writeCreated(ctx *fasthttp.RequestCtx, stdCtx context.Context, message string, data any) {
	response.NewResponse(stdCtx, message, data).WithStatus(fasthttp.StatusCreated).Write(ctx)
}

func invalidBody(err error) error {
	return perrors.NewErrInvalidRequest("Invalid request body", err)
}

// mapError turns repository sentinels into caller facing errors. Anything else that is not
// already a perrors.Err is reported as an internal error by the response layer.
func mapError(err error) error {
	if _, ok := perrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return perrors.NewErrNotFound("User not found", err)
	case errors.Is(err, user.ErrUserAlreadyExists):
		return perrors.NewErrConflict("User already exists", err)
	case errors.Is(err, project.ErrProjectNotFound):
		return perrors.NewErrNotFound("Project not found", err)
	case errors.Is(err, task.ErrTaskNotFound):
		return perrors.NewErrNotFound("Task not found", err)
	case errors.Is(err, payment.ErrPaymentNotFound):
		return perrors.NewErrNotFound("Payment not found", err)
	case errors.Is(err, notification.ErrNotificationNotFound):
		return perrors.NewErrNotFound("Notification not found", err)
	case errors.Is(err, context.DeadlineExceeded):
		return perrors.New(perrors.ErrCode{Code: "timeout", Status: fasthttp.StatusGatewayTimeout}, "Request timed out", err)
	}
	return err
}

func pathParam(ctx *fasthttp.RequestCtx, key string) (string, error) {
	val := ctx.UserValue(key)
	if val == nil {
		return "", fmt.Errorf("%s is required", key)
	}

	return fmt.Sprint(val), nil
}

// pathID parses a numeric path parameter.
func pathID(ctx *fasthttp.RequestCtx, key string) (int64, error) {
	raw, err := pathParam(ctx, key)
	if err != nil {
		return 0, perrors.NewErrInvalidRequest("Invalid ID format", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, perrors.NewErrInvalidRequest("Invalid ID format", fmt.Errorf("invalid %s %q", key, raw))
	}
	return id, nil
}

type idHandlerFunc func(stdCtx context.Context, ctx *fasthttp.RequestCtx, actor *user.User, id int64) (any, error)

// idRoute runs the shared preamble of the routes keyed by {id}: parse the id,
// resolve the caller, then write whatever fn returns.
func idRoute(svc *services.Services, failure, success string, fn idHandlerFunc) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		stdCtx := requestContext(ctx)
		id, err := pathID(ctx, "id")
		if err != nil {
			writeError(ctx, stdCtx, "Invalid ID format", err)
			return
		}
		actor, err := currentUser(ctx, stdCtx, svc)
		if err != nil {
			writeError(ctx, stdCtx, failure, err)
			return
		}

		data, err := fn(stdCtx, ctx, actor, id)
		if err != nil {
			writeError(ctx, stdCtx, failure, err)
			return
		}

		writeOK(ctx, stdCtx, success, data)
	}
}

func queryString(ctx *fasthttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}
