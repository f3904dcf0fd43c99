package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/curaious/projecthub/internal/api/authenticator"
	"github.com/curaious/projecthub/internal/api/ratelimit"
	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/services"
)

// Server is the fasthttp server exposing the REST API.
type Server struct {
	srv      *fasthttp.Server
	addr     string
	conf     *config.Config
	services *services.Services
	verifier authenticator.Verifier
	limiter  *ratelimit.Limiter
}

// New builds the server. limiter may be nil to disable rate limiting.
func New(conf *config.Config, svc *services.Services, verifier authenticator.Verifier, limiter *ratelimit.Limiter) *Server {
	s := &Server{
		srv: &fasthttp.Server{
			Name:         "projecthub",
			ReadTimeout:  conf.REQUEST_TIMEOUT,
			WriteTimeout: conf.REQUEST_TIMEOUT,
		},
		addr:     fmt.Sprintf("0.0.0.0:%s", conf.PORT),
		conf:     conf,
		services: svc,
		verifier: verifier,
		limiter:  limiter,
	}

	s.srv.Handler = s.initRoutes()

	return s
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.srv.Handler
}

// Start the rest server and block until SIGINT or SIGTERM.
func (s *Server) Start() {
	slog.Info("Starting REST server...", slog.String("addr", s.addr))
	go func() {
		if err := s.srv.ListenAndServe(s.addr); err != nil {
			slog.Error("Server shutdown", slog.Any("error", err))
		}
	}()
	slog.Info("REST server started!")

	// Listen for OS interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block till we receive an interrupt
	<-c
	slog.Info("Received interrupt...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
}

// shutdown stops accepting connections, then waits for in-flight notification emails.
func (s *Server) shutdown(ctx context.Context) {
	slog.Info("Gracefully shutting down REST server...")
	if err := s.srv.ShutdownWithContext(ctx); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}

	done := make(chan struct{})
	go func() {
		s.services.Dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Gave up waiting for notification emails", slog.Any("error", ctx.Err()))
	}

	if err := s.limiter.Close(); err != nil {
		slog.Error("Failed to close rate limiter", slog.Any("error", err))
	}
	slog.Info("REST server shutdown!")
}
