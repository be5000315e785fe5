package sqlite

import (
	"context"
	"fmt"
)

// AppendHistory appends a lease summary to the archive and returns the
// assigned sequential id.
func (q *queries) AppendHistory(ctx context.Context, content string, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO history (content, created_at) VALUES (?, ?)", content, now)
	if err != nil {
		return 0, fmt.Errorf("failed to append history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read history id: %w", err)
	}
	return id, nil
}

// PruneHistory deletes up to limit oldest records and reports how many were
// removed.
func (q *queries) PruneHistory(ctx context.Context, limit int) (int, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM history WHERE id IN (
			SELECT id FROM history ORDER BY id LIMIT ?
		)`, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}
