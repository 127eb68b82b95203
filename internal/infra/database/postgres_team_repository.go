package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clan_raids_bot/internal/domain/team"
)

var ErrTeamNotFound = fmt.Errorf("team not found")

type PostgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) *PostgresTeamRepository {
	return &PostgresTeamRepository{db: db}
}

func (r *PostgresTeamRepository) Create(ctx context.Context, t *team.Team) error {
	query := `INSERT INTO teams (team_id, title, chat_id, author_id)
               VALUES ($1, $2, $3, $4)
               RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, t.TeamID, t.Title, t.ChatID, t.AuthorID).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("error creating team: %w", err)
	}
	return nil
}

func (r *PostgresTeamRepository) Delete(ctx context.Context, teamID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE team_id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("error deleting team %s: %w", teamID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delete result: %w", err)
	}
	if n == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (r *PostgresTeamRepository) List(ctx context.Context) ([]*team.Team, error) {
	query := `SELECT id, team_id, title, chat_id, author_id, created_at FROM teams ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*team.Team, 0)
	for rows.Next() {
		t := &team.Team{}
		if err := rows.Scan(&t.ID, &t.TeamID, &t.Title, &t.ChatID, &t.AuthorID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning team: %w", err)
		}
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, nil
}

func (r *PostgresTeamRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting teams: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes registry rows left behind by sessions that never cleaned up.
func (r *PostgresTeamRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("error deleting stale teams: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading stale team delete result: %w", err)
	}
	return n, nil
}
