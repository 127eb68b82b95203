package team

import (
	"context"
	"time"
)

// Repository defines the operations on the running teams registry.
type Repository interface {
	Create(ctx context.Context, t *Team) error
	Delete(ctx context.Context, teamID string) error
	List(ctx context.Context) ([]*Team, error)
	Count(ctx context.Context) (int, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
