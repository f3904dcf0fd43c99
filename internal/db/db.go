package db

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/curaious/projecthub/internal/config"
)

// ConnString builds the postgres connection URL from configuration.
// Credentials are escaped so passwords may contain URL metacharacters.
func ConnString(conf *config.Config) string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(conf.DB_USERNAME, conf.DB_PASSWORD),
		Host:   net.JoinHostPort(conf.DB_HOST, conf.DB_PORT),
		Path:   "/" + conf.DB_NAME,
	}
	if conf.DISABLE_TLS == "true" {
		u.RawQuery = "sslmode=disable"
	}
	return u.String()
}

// Open configures the pool and waits for the database to answer a ping,
// retrying with exponential backoff for up to maxWait.
func Open(ctx context.Context, conf *config.Config, maxWait time.Duration) (*sqlx.DB, error) {
	conn, err := sqlx.Open("postgres", ConnString(conf))
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(conf.DB_MAX_OPEN_CONNS)
	conn.SetMaxIdleConns(conf.DB_MAX_IDLE_CONNS)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		err := conn.PingContext(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Database not reachable yet", slog.String("host", conf.DB_HOST), slog.Any("error", err))
		}
		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(maxWait))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

// NewConn is Open for commands that cannot run without a database; it exits on failure.
func NewConn(conf *config.Config) *sqlx.DB {
	slog.Info("Connecting to database", slog.String("host", conf.DB_HOST), slog.String("name", conf.DB_NAME))

	conn, err := Open(context.Background(), conf, 30*time.Second)
	if err != nil {
		slog.Error("Unable to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("Connected to database")
	return conn
}
