package migrations

import (
	"github.com/jmoiron/sqlx"
)

func init() {
	m.addMigration(&migration{
		version: "20250315101500",
		up:      mig_20250315101500_board_sync_up,
		down:    mig_20250315101500_board_sync_down,
	})
}

func mig_20250315101500_board_sync_up(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        ALTER TABLE projects ADD COLUMN IF NOT EXISTS board_id VARCHAR(255);
        ALTER TABLE tasks ADD COLUMN IF NOT EXISTS board_card_id VARCHAR(255);
    `)
	return err
}

func mig_20250315101500_board_sync_down(tx *sqlx.Tx) error {
	_, err := tx.Exec(`
        ALTER TABLE tasks DROP COLUMN IF EXISTS board_card_id;
        ALTER TABLE projects DROP COLUMN IF EXISTS board_id;
    `)
	return err
}
