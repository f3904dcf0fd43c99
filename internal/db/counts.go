package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TableCounts returns the row count of each named table.
func TableCounts(ctx context.Context, q sqlx.QueryerContext, tables ...string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var n int64
		// table names come from a fixed list in the caller, never from a request
		if err := sqlx.GetContext(ctx, q, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
