package member

import "context"

// Repository defines the operations for role grants.
type Repository interface {
	Grant(ctx context.Context, g *Grant) error // Upsert; refreshes DisplayName for an existing grant
	Revoke(ctx context.Context, telegramID int64, role Role) error
	HasRole(ctx context.Context, telegramID int64, role Role) (bool, error)
	ListByRole(ctx context.Context, role Role) ([]*Grant, error)
	CountMembers(ctx context.Context) (int, error) // Distinct members holding any role
}
