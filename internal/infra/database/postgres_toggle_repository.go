// internal/infra/database/postgres_toggle_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"clan_raids_bot/internal/domain/toggle"
)

type PostgresToggleRepository struct {
	db *sql.DB
}

func NewPostgresToggleRepository(db *sql.DB) *PostgresToggleRepository {
	return &PostgresToggleRepository{db: db}
}

func (r *PostgresToggleRepository) GetOrCreate(ctx context.Context, name toggle.Name, def bool) (*toggle.State, error) {
	// Lazily create the row; an existing row keeps its value.
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO feature_toggles (name, enabled) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, def,
	); err != nil {
		return nil, fmt.Errorf("error creating toggle %s: %w", name, err)
	}

	st := toggle.State{}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, enabled, updated_at FROM feature_toggles WHERE name = $1`, name,
	).Scan(&st.Name, &st.Enabled, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error getting toggle %s: %w", name, err)
	}
	return &st, nil
}

func (r *PostgresToggleRepository) Toggle(ctx context.Context, name toggle.Name, def bool) (*toggle.State, error) {
	// A single upsert keeps create-then-flip atomic: a new row starts as def and is stored flipped.
	query := `INSERT INTO feature_toggles (name, enabled) VALUES ($1, NOT $2::boolean)
               ON CONFLICT (name) DO UPDATE
               SET enabled = NOT feature_toggles.enabled, updated_at = NOW()
               RETURNING name, enabled, updated_at`
	st := toggle.State{}
	if err := r.db.QueryRowContext(ctx, query, name, def).Scan(&st.Name, &st.Enabled, &st.UpdatedAt); err != nil {
		return nil, fmt.Errorf("error toggling %s: %w", name, err)
	}
	return &st, nil
}
