package cmd

import (
	"github.com/jmoiron/sqlx"

	"github.com/curaious/projecthub/internal/boardsync"
	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/db"
	"github.com/curaious/projecthub/internal/mailer"
	"github.com/curaious/projecthub/internal/services"
)

// newServices connects to the database and wires the side channels selected by conf.
func newServices(conf *config.Config) (*services.Services, *sqlx.DB, error) {
	conn := db.NewConn(conf)

	boards, err := boardsync.New(conf, nil)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	m, err := mailer.New(conf, nil)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return services.NewServices(conf, conn, boards, m), conn, nil
}
