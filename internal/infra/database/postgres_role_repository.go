package database

import (
	"context"
	"database/sql"
	"fmt"

	"clan_raids_bot/internal/domain/member"
)

// Custom errors
var ErrGrantNotFound = fmt.Errorf("role grant not found")

type PostgresRoleRepository struct {
	db *sql.DB
}

func NewPostgresRoleRepository(db *sql.DB) *PostgresRoleRepository {
	return &PostgresRoleRepository{db: db}
}

func (r *PostgresRoleRepository) Grant(ctx context.Context, g *member.Grant) error {
	query := `INSERT INTO member_roles (telegram_id, role, display_name)
               VALUES ($1, $2, $3)
               ON CONFLICT (telegram_id, role) DO UPDATE SET display_name = EXCLUDED.display_name
               RETURNING granted_at`
	if err := r.db.QueryRowContext(ctx, query, g.TelegramID, g.Role, g.DisplayName).Scan(&g.GrantedAt); err != nil {
		return fmt.Errorf("error granting role %s to %d: %w", g.Role, g.TelegramID, err)
	}
	return nil
}

func (r *PostgresRoleRepository) Revoke(ctx context.Context, telegramID int64, role member.Role) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM member_roles WHERE telegram_id = $1 AND role = $2`, telegramID, role)
	if err != nil {
		return fmt.Errorf("error revoking role %s from %d: %w", role, telegramID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading revoke result: %w", err)
	}
	if n == 0 {
		return ErrGrantNotFound
	}
	return nil
}

func (r *PostgresRoleRepository) HasRole(ctx context.Context, telegramID int64, role member.Role) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM member_roles WHERE telegram_id = $1 AND role = $2)`,
		telegramID, role,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking role %s for %d: %w", role, telegramID, err)
	}
	return exists, nil
}

func (r *PostgresRoleRepository) ListByRole(ctx context.Context, role member.Role) ([]*member.Grant, error) {
	query := `SELECT telegram_id, role, display_name, granted_at
               FROM member_roles WHERE role = $1 ORDER BY granted_at, telegram_id`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("error listing role %s: %w", role, err)
	}
	defer rows.Close()

	grants := make([]*member.Grant, 0)
	for rows.Next() {
		g := &member.Grant{}
		if err := rows.Scan(&g.TelegramID, &g.Role, &g.DisplayName, &g.GrantedAt); err != nil {
			return nil, fmt.Errorf("error scanning role grant: %w", err)
		}
		grants = append(grants, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role grants: %w", err)
	}
	return grants, nil
}

func (r *PostgresRoleRepository) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT telegram_id) FROM member_roles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting members: %w", err)
	}
	return n, nil
}
