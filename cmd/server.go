package cmd

import (
	"context"
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/curaious/projecthub/internal/api"
	"github.com/curaious/projecthub/internal/api/authenticator"
	"github.com/curaious/projecthub/internal/api/ratelimit"
	"github.com/curaious/projecthub/internal/config"
	"github.com/curaious/projecthub/internal/migrations"
	"github.com/curaious/projecthub/internal/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the REST server",
	Run: func(cmd *cobra.Command, args []string) {
		conf := config.ReadConfig()

		shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT, conf.OTEL_SERVICE_NAME)
		defer shutdownTelemetry()

		svc, conn, err := newServices(conf)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()

		if conf.MIGRATE_ON_START {
			m, err := migrations.NewMigrator(conn)
			if err != nil {
				log.Fatalln("Unable to create migrator", err)
			}
			if pending := m.Pending(); len(pending) > 0 {
				slog.Info("Running pending migrations", slog.Any("versions", pending))
			}
			if err := m.Up(0); err != nil {
				log.Fatalln("Unable to run migrations", err)
			}
		}

		verifier, err := authenticator.New(context.Background(), conf)
		if err != nil {
			log.Fatal(err)
		}

		limiter, err := ratelimit.New(conf)
		if err != nil {
			log.Fatal(err)
		}

		s := api.New(conf, svc, verifier, limiter)
		s.Start()
	},
}

// Register the "server" command
func init() {
	rootCmd.AddCommand(serverCmd)
}
