package migrations

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"text/template"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/curaious/projecthub/internal/db"
)

const dir = "./internal/migrations"

// migration is a single schema change registered from an init() func.
type migration struct {
	version string
	done    bool
	up      func(*sqlx.Tx) error
	down    func(*sqlx.Tx) error
}

// Status describes one registered version.
type Status struct {
	Version string
	Applied bool
}

// Migrator runs migrations in version order, tracked in metadata.schema_migrations.
type Migrator struct {
	db         *sqlx.DB
	versions   []string
	migrations map[string]*migration
}

// m collects migrations from init() funcs before a connection exists.
var m = &Migrator{migrations: map[string]*migration{}}

var bootstrap = []string{
	`CREATE SCHEMA IF NOT EXISTS metadata`,
	`CREATE TABLE IF NOT EXISTS metadata.schema_migrations (version varchar(255) PRIMARY KEY)`,
}

// NewMigrator binds the registered migrations to conn and loads which versions already ran.
func NewMigrator(conn *sqlx.DB) (*Migrator, error) {
	m.db = conn
	for _, mg := range m.migrations {
		mg.done = false
	}

	for _, stmt := range bootstrap {
		if _, err := conn.Exec(stmt); err != nil {
			return nil, fmt.Errorf("prepare migration bookkeeping: %w", err)
		}
	}

	var applied []string
	if err := conn.Select(&applied, `SELECT version FROM metadata.schema_migrations`); err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	for _, v := range applied {
		if mg, ok := m.migrations[v]; ok {
			mg.done = true
		}
	}

	return m, nil
}

func (m *Migrator) addMigration(mg *migration) {
	m.migrations[mg.version] = mg
	i, found := slices.BinarySearch(m.versions, mg.version)
	if !found {
		m.versions = slices.Insert(m.versions, i, mg.version)
	}
}

// Statuses lists every registered version in order.
func (m *Migrator) Statuses() []Status {
	out := make([]Status, 0, len(m.versions))
	for _, v := range m.versions {
		out = append(out, Status{Version: v, Applied: m.migrations[v].done})
	}
	return out
}

// Pending returns the versions that have not run yet, in order.
func (m *Migrator) Pending() []string {
	var pending []string
	for _, s := range m.Statuses() {
		if !s.Applied {
			pending = append(pending, s.Version)
		}
	}
	return pending
}

// CreateMigration renders template.txt into a new timestamped migration file.
func (m *Migrator) CreateMigration(title string) error {
	tmpl, err := template.ParseFiles(filepath.Join(dir, "template.txt"))
	if err != nil {
		return fmt.Errorf("parse migration template: %w", err)
	}

	version := time.Now().UTC().Format("20060102150405")
	var out bytes.Buffer
	if err := tmpl.Execute(&out, struct{ Version, Title string }{version, title}); err != nil {
		return fmt.Errorf("render migration template: %w", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("%s_%s.go", version, title))
	if err := os.WriteFile(name, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write migration file: %w", err)
	}

	slog.Info("Generated new migration file", slog.String("filename", name))
	return nil
}

// Up runs pending migrations, at most step of them when step > 0.
func (m *Migrator) Up(step int) error {
	return m.run("up", step, m.versions, func(mg *migration, tx *sqlx.Tx) error {
		if err := mg.up(tx); err != nil {
			return err
		}
		_, err := tx.Exec(`INSERT INTO metadata.schema_migrations VALUES ($1)`, mg.version)
		return err
	})
}

// Down reverts applied migrations newest first, at most step of them when step > 0.
func (m *Migrator) Down(step int) error {
	newestFirst := slices.Clone(m.versions)
	slices.Reverse(newestFirst)

	return m.run("down", step, newestFirst, func(mg *migration, tx *sqlx.Tx) error {
		if err := mg.down(tx); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM metadata.schema_migrations WHERE version = $1`, mg.version)
		return err
	})
}

// run applies fn to every migration in order whose done flag differs from the
// direction's target, all inside one transaction. done flags only flip on commit.
func (m *Migrator) run(direction string, step int, order []string, fn func(*migration, *sqlx.Tx) error) error {
	target := direction == "up"

	var touched []*migration
	err := db.RunInTx(context.Background(), m.db, func(tx *sqlx.Tx) error {
		for _, v := range order {
			if step > 0 && len(touched) == step {
				break
			}
			mg := m.migrations[v]
			if mg.done == target {
				continue
			}

			l := slog.With(slog.String("version", v), slog.String("direction", direction))
			l.Info("Running migration")
			if err := fn(mg, tx); err != nil {
				l.Error("Migration failed", slog.Any("error", err))
				return fmt.Errorf("migration %s %s: %w", v, direction, err)
			}
			touched = append(touched, mg)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, mg := range touched {
		mg.done = target
	}
	slog.Info("Migrations finished", slog.String("direction", direction), slog.Int("count", len(touched)))
	return nil
}
