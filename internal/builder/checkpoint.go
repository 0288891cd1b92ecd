package builder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Checkpoint is the durable processed-message-IDs set. Marking happens
// per batch, after the whole batch has landed in the graph, so an aborted
// run retries its in-flight batch safely.
type Checkpoint struct {
	db *sql.DB
}

// OpenCheckpoint opens (and if needed initializes) the state database
func OpenCheckpoint(path string) (*Checkpoint, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_messages (
			id TEXT PRIMARY KEY,
			processed_at TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize state db: %w", err)
	}

	return &Checkpoint{db: db}, nil
}

// Close closes the underlying database
func (c *Checkpoint) Close() error {
	return c.db.Close()
}

// Contains reports whether one message ID has been processed
func (c *Checkpoint) Contains(ctx context.Context, id string) (bool, error) {
	var found int
	err := c.db.QueryRowContext(ctx,
		"SELECT 1 FROM processed_messages WHERE id = ?", id).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed id: %w", err)
	}
	return true, nil
}

// FilterProcessed returns the subset of ids already marked processed
func (c *Checkpoint) FilterProcessed(ctx context.Context, ids []string) (map[string]bool, error) {
	processed := make(map[string]bool)
	if len(ids) == 0 {
		return processed, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(
		"SELECT id FROM processed_messages WHERE id IN (%s)",
		placeholders(len(ids)),
	)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter processed ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan processed id: %w", err)
		}
		processed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate processed ids: %w", err)
	}

	return processed, nil
}

// MarkBatch records the given ids as processed in one transaction
func (c *Checkpoint) MarkBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO processed_messages (id, processed_at) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare checkpoint insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id, now); err != nil {
			return fmt.Errorf("failed to mark message processed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Count returns the number of processed message IDs
func (c *Checkpoint) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.QueryRowContext(ctx,
		"SELECT count(*) FROM processed_messages").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count processed ids: %w", err)
	}
	return count, nil
}

// placeholders returns n comma-separated sqlite placeholders
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = "?"
	}
	return strings.Join(list, ", ")
}
