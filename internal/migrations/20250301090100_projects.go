package migrations

import (
	"github.com/jmoiron/sqlx"
)

func init() {
	m.addMigration(&migration{
		version: "20250301090100",
		up:      mig_20250301090100_projects_up,
		down:    mig_20250301090100_projects_down,
	})
}

func mig_20250301090100_projects_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        CREATE TABLE IF NOT EXISTS projects (
            id BIGSERIAL PRIMARY KEY,
            title VARCHAR(255) NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            manager_id BIGINT NOT NULL REFERENCES users(id),
            client_id BIGINT NOT NULL REFERENCES users(id),
            budget NUMERIC(14, 2) NOT NULL DEFAULT 0,
            status VARCHAR(50) NOT NULL DEFAULT 'active',
            start_date DATE,
            deadline DATE,
            completion_percentage INTEGER NOT NULL DEFAULT 0 CHECK (completion_percentage BETWEEN 0 AND 100),
            is_archived BOOLEAN DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
        );
    `)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        CREATE INDEX IF NOT EXISTS idx_projects_manager_id ON projects(manager_id);
        CREATE INDEX IF NOT EXISTS idx_projects_client_id ON projects(client_id);
    `)
	return err
}

func mig_20250301090100_projects_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS projects;`)
	return err
}
