package mailer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/projecthub/internal/config"
)

func TestLogMailer(t *testing.T) {
	m := NewLogMailer("noreply@example.com")
	assert.NoError(t, m.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hi"}))
	assert.Error(t, m.Send(context.Background(), Message{Subject: "no recipient"}))
}

func TestNew_SelectsProvider(t *testing.T) {
	m, err := New(&config.Config{EMAIL_PROVIDER: "log"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	_, err = New(&config.Config{EMAIL_PROVIDER: "resend"}, nil)
	assert.Error(t, err, "resend requires an API key")

	m, err = New(&config.Config{EMAIL_PROVIDER: "resend", RESEND_API_KEY: "re_123"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ResendMailer{}, m)

	_, err = New(&config.Config{EMAIL_PROVIDER: "pigeon"}, nil)
	assert.Error(t, err)
}

func TestResendMailer_Send(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_123", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, sonic.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer("re_123", "noreply@example.com", srv.Client()).WithEndpoint(srv.URL)
	err := m.Send(context.Background(), Message{To: "ana@example.com", Subject: "New Task Assigned", HTML: "<p>hi</p>"})

	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, got.To)
	assert.Equal(t, "New Task Assigned", got.Subject)
}

func TestResendMailer_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer("re_123", "noreply@example.com", srv.Client()).WithEndpoint(srv.URL)
	require.NoError(t, m.Send(context.Background(), Message{To: "ana@example.com"}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestResendMailer_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := NewResendMailer("re_123", "noreply@example.com", srv.Client()).WithEndpoint(srv.URL)
	assert.Error(t, m.Send(context.Background(), Message{To: "ana@example.com"}))
	assert.Equal(t, int32(1), calls.Load())
}
