package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresBackend keeps the snapshot in the gate_users table.
// Save rewrites the table in one transaction so it stays a flat snapshot.
type PostgresBackend struct {
	db *sqlx.DB
}

type userRow struct {
	UserID string `db:"user_id"`
	Record
}

// NewPostgresBackend wraps an open connection whose schema is already migrated.
func NewPostgresBackend(db *sqlx.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Load selects every row of gate_users.
func (b *PostgresBackend) Load(ctx context.Context) (Snapshot, error) {
	var rows []userRow
	if err := b.db.SelectContext(ctx, &rows,
		`SELECT user_id, allowed, clicked_link FROM gate_users`); err != nil {
		return nil, fmt.Errorf("select gate_users: %w", err)
	}
	snap := make(Snapshot, len(rows))
	for _, r := range rows {
		snap[r.UserID] = r.Record
	}
	return snap, nil
}

// Save replaces the table contents with snap.
func (b *PostgresBackend) Save(ctx context.Context, snap Snapshot) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM gate_users`); err != nil {
		return fmt.Errorf("clear gate_users: %w", err)
	}
	if len(snap) > 0 {
		rows := make([]userRow, 0, len(snap))
		for id, rec := range snap {
			rows = append(rows, userRow{UserID: id, Record: rec})
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO gate_users (user_id, allowed, clicked_link)
			 VALUES (:user_id, :allowed, :clicked_link)`, rows); err != nil {
			return fmt.Errorf("insert gate_users: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (b *PostgresBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
