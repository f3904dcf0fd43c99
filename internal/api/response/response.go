package response

import (
	"context"
	"log/slog"
	"net/http"

	json "github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/perrors"
)

func init() {
	// Money is rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type Response[T any] struct {
	ctx     context.Context
	err     *perrors.Err
	Message string `json:"message"`
	Data    T      `json:"data"`
	Status  int    `json:"-"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewResponse[T any](ctx context.Context, msg string, data T) *Response[T] {
	return &Response[T]{
		ctx:     ctx,
		Message: msg,
		Data:    data,
		Status:  http.StatusOK,
	}
}

// WithError turns the response into an error response. Errors that are not a perrors.Err are
// reported as internal errors with the response message, so driver text never reaches the body.
func (r *Response[T]) WithError(err error) *Response[T] {
	perr, ok := perrors.As(err)
	if !ok {
		perr, _ = perrors.As(perrors.NewErrInternalServerError(r.Message, err))
	}
	r.err = &perr
	r.Status = perr.HttpStatus()
	perr.Print(r.ctx)
	return r
}

// WithStatus will set the HTTP response status code.
//
// Prefer a perrors.Err carrying the status; use this for non-error codes such as 201.
func (r *Response[T]) WithStatus(code int) *Response[T] {
	r.Status = code
	return r
}

// Write will set the `content-type` to `application/json` and write the response to the fasthttp context.
func (r *Response[T]) Write(ctx *fasthttp.RequestCtx) {
	var payload any = r
	if r.err != nil {
		message := r.err.Message
		if message == "" {
			message = http.StatusText(r.Status)
		}
		payload = errorBody{Error: message, Code: r.err.Code.Code}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(r.ctx, "Unable to json encode response", slog.Any("error", err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.Response.Header.Set("content-type", "application/json")
	ctx.SetStatusCode(r.Status)
	ctx.SetBody(body)
}
