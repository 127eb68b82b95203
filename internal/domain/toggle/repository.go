package toggle

import "context"

// Repository persists feature toggles.
type Repository interface {
	// GetOrCreate returns the toggle, creating it with def when it does not exist yet.
	GetOrCreate(ctx context.Context, name Name, def bool) (*State, error)
	// Toggle flips the toggle atomically and returns the new state.
	// A missing toggle is created with def and then flipped.
	Toggle(ctx context.Context, name Name, def bool) (*State, error)
}
