package api

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	json "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/api/authenticator"
	"github.com/curaious/projecthub/internal/api/ratelimit"
	"github.com/curaious/projecthub/internal/boardsync"
	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/mailer"
	"github.com/curaious/projecthub/internal/services"
	"github.com/curaious/projecthub/internal/services/user"
)

const testSecret = "test-secret"

var userCols = []string{"id", "external_subject", "email", "name", "role", "created_at", "updated_at"}

var projectCols = []string{"id", "title", "description", "manager_id", "client_id", "budget", "status", "start_date", "deadline",
	"completion_percentage", "is_archived", "board_id", "created_at", "updated_at"}

var projectViewCols = append(append([]string{}, projectCols...),
	"manager_name", "manager_email", "client_name", "client_email", "total_tasks", "completed_tasks", "total_paid")

type testServer struct {
	*Server
	mock     sqlmock.Sqlmock
	verifier *authenticator.HMACVerifier
}

func newTestServer(t *testing.T, conf *config.Config, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	if conf.REQUEST_TIMEOUT == 0 {
		conf.REQUEST_TIMEOUT = 5 * time.Second
	}
	if conf.ALLOWED_HEADERS == "" {
		conf.ALLOWED_HEADERS = "Authorization,Content-Type"
	}
	conf.TASK_MUTATION_REQUIRES_PROJECT_MEMBERSHIP = true

	verifier := authenticator.NewHMACVerifier(testSecret)
	svc := services.NewServices(conf, sqlx.NewDb(conn, "postgres"), boardsync.NewMemoryStore(), mailer.NewLogMailer("noreply@example.com"))

	return &testServer{Server: New(conf, svc, verifier, limiter), mock: mock, verifier: verifier}
}

func (s *testServer) token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := s.verifier.Issue(user.Identity{Subject: subject, Email: subject + "@example.com", Name: "Test"}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(method, uri, token string, body []byte) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if token != "" {
		ctx.Request.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBody(body)
	}
	s.Handler()(&ctx)
	return &ctx
}

func (s *testServer) expectUser(subject string, id int64, role string) {
	now := time.Now()
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE external_subject = $1")).
		WithArgs(subject).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(id, subject, subject+"@example.com", "Test", role, now, now))
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &out))
	return out
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)

	ctx := s.do(fasthttp.MethodGet, "/api/health", "", nil)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	body := decode(t, ctx)
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestProtectedRoute_MissingToken(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)

	ctx := s.do(fasthttp.MethodGet, "/api/projects", "", nil)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, "Access denied. No token provided.", decode(t, ctx)["error"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestProtectedRoute_InvalidToken(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)

	forged, err := authenticator.NewHMACVerifier("other").Issue(user.Identity{Subject: "u1"}, time.Hour)
	require.NoError(t, err)

	ctx := s.do(fasthttp.MethodGet, "/api/projects", forged, nil)

	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	body := decode(t, ctx)
	assert.Equal(t, "Invalid or expired token", body["error"])
	assert.Equal(t, "unauthorized", body["code"])
}

func TestMe_ResolvesRegisteredUser(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)
	s.expectUser("uid-7", 7, "manager")

	ctx := s.do(fasthttp.MethodGet, "/api/auth/me", s.token(t, "uid-7"), nil)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	data := decode(t, ctx)["data"].(map[string]any)
	assert.Equal(t, float64(7), data["id"])
	assert.Equal(t, "manager", data["role"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestMe_UnregisteredSubject(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE external_subject = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userCols))

	ctx := s.do(fasthttp.MethodGet, "/api/auth/me", s.token(t, "ghost"), nil)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "User not registered", decode(t, ctx)["error"])
}

func TestLogin_AcceptsTokenInBody(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)
	s.expectUser("uid-3", 3, "client")

	body, _ := json.Marshal(map[string]string{"token": s.token(t, "uid-3")})
	ctx := s.do(fasthttp.MethodPost, "/api/auth/login", "", body)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	data := decode(t, ctx)["data"].(map[string]any)
	assert.Equal(t, false, data["is_new_user"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestInvalidPathID(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)

	ctx := s.do(fasthttp.MethodGet, "/api/projects/abc", s.token(t, "uid-1"), nil)

	assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "Invalid ID format", decode(t, ctx)["error"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestProjectNotFound(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)
	s.expectUser("uid-1", 1, "manager")
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ctx := s.do(fasthttp.MethodGet, "/api/projects/42", s.token(t, "uid-1"), nil)

	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
	assert.Equal(t, "Project not found", decode(t, ctx)["error"])
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t, &config.Config{ALLOWED_ORIGINS: []string{"https://app.example.com"}}, nil)

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(fasthttp.MethodOptions)
	ctx.Request.SetRequestURI("/api/projects")
	ctx.Request.Header.Set("Origin", "https://app.example.com")
	s.Handler()(&ctx)

	assert.Equal(t, fasthttp.StatusNoContent, ctx.Response.StatusCode())
	assert.Equal(t, "https://app.example.com", string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")))

	var other fasthttp.RequestCtx
	other.Request.Header.SetMethod(fasthttp.MethodOptions)
	other.Request.SetRequestURI("/api/projects")
	other.Request.Header.Set("Origin", "https://evil.example.com")
	s.Handler()(&other)

	assert.Empty(t, other.Response.Header.Peek("Access-Control-Allow-Origin"))
}

func TestRateLimitPerSubject(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStorage(), ratelimit.Rule{Limit: 1, Unit: "1min"})
	t.Cleanup(func() { _ = limiter.Close() })
	s := newTestServer(t, &config.Config{}, limiter)
	s.expectUser("uid-9", 9, "client")

	token := s.token(t, "uid-9")
	first := s.do(fasthttp.MethodGet, "/api/auth/me", token, nil)
	second := s.do(fasthttp.MethodGet, "/api/auth/me", token, nil)

	assert.Equal(t, fasthttp.StatusOK, first.Response.StatusCode())
	assert.Equal(t, fasthttp.StatusTooManyRequests, second.Response.StatusCode())
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestDebugRoutes(t *testing.T) {
	disabled := newTestServer(t, &config.Config{}, nil)
	ctx := disabled.do(fasthttp.MethodGet, "/api/debug/boards", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	enabled := newTestServer(t, &config.Config{DEBUG_ROUTES_ENABLED: true}, nil)
	ctx = enabled.do(fasthttp.MethodGet, "/api/debug/boards", "", nil)
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestSyncUser_RefusesForeignEmail(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)

	body, _ := json.Marshal(map[string]string{"email": "victim@corp.com"})
	ctx := s.do(fasthttp.MethodPost, "/api/users/sync", s.token(t, "attacker"), body)

	assert.Equal(t, fasthttp.StatusForbidden, ctx.Response.StatusCode())
	assert.Equal(t, "Email does not match the signed-in account", decode(t, ctx)["error"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestSyncUser_LinksWithTokenEmail(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)
	now := time.Now()
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $2 AND external_subject IS NULL")).
		WithArgs("uid-5", "uid-5@example.com", "Dana").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "uid-5", "uid-5@example.com", "Dana", "client", now, now))

	body, _ := json.Marshal(map[string]string{"email": "UID-5@example.com", "name": "Dana"})
	ctx := s.do(fasthttp.MethodPost, "/api/users/sync", s.token(t, "uid-5"), body)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	data := decode(t, ctx)["data"].(map[string]any)
	assert.Equal(t, false, data["inserted"])
	assert.Equal(t, "uid-5@example.com", data["user"].(map[string]any)["email"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestCreateProject_ThenGet(t *testing.T) {
	s := newTestServer(t, &config.Config{}, nil)
	token := s.token(t, "uid-1")
	now := time.Now()

	s.expectUser("uid-1", 1, "manager")
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "uid-3", "uid-3@example.com", "Client", "client", now, now))
	s.mock.ExpectBegin()
	s.mock.ExpectQuery("INSERT INTO projects").
		WithArgs("Redesign", "", int64(1), int64(3), sqlmock.AnyArg(), "active", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow(11, "Redesign", "", 1, 3, "5000", "active", "2024-01-01", "2024-06-01", 0, false, nil, now, now))
	s.mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET board_id = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	body := []byte(`{"title":"Redesign","client_id":3,"budget":5000,"start_date":"2024-01-01","deadline":"2024-06-01"}`)
	created := s.do(fasthttp.MethodPost, "/api/projects", token, body)

	require.Equal(t, fasthttp.StatusOK, created.Response.StatusCode())
	data := decode(t, created)["data"].(map[string]any)
	assert.Equal(t, float64(11), data["projectId"])
	assert.Equal(t, "active", data["project"].(map[string]any)["status"])

	s.expectUser("uid-1", 1, "manager")
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(projectViewCols).
			AddRow(11, "Redesign", "", 1, 3, "5000", "active", "2024-01-01", "2024-06-01", 0, false, "board-1", now, now,
				"Test", "uid-1@example.com", "Client", "uid-3@example.com", 0, 0, "0"))

	got := s.do(fasthttp.MethodGet, "/api/projects/11", token, nil)

	require.Equal(t, fasthttp.StatusOK, got.Response.StatusCode())
	view := decode(t, got)["data"].(map[string]any)
	assert.Equal(t, "Redesign", view["title"])
	assert.Equal(t, "active", view["status"])
	assert.Equal(t, float64(0), view["completion_percentage"])
	assert.Equal(t, "2024-06-01", view["deadline"])
	assert.NoError(t, s.mock.ExpectationsWereMet())
}
