package app

import (
	"context"
	"fmt"
	"sync"

	"clan_raids_bot/internal/domain/toggle"

	"github.com/sirupsen/logrus"
)

// ToggleStore reads and flips the persisted feature toggles.
// It remembers the last value read per toggle so the scheduler can keep
// its previous behavior when the database is unreachable.
type ToggleStore struct {
	repo toggle.Repository
	log  *logrus.Entry

	mu        sync.RWMutex
	lastKnown map[toggle.Name]bool
}

func NewToggleStore(repo toggle.Repository, log *logrus.Entry) *ToggleStore {
	return &ToggleStore{
		repo:      repo,
		log:       log,
		lastKnown: make(map[toggle.Name]bool),
	}
}

// Get returns the committed value of the toggle, creating it with its default on first access.
func (s *ToggleStore) Get(ctx context.Context, name toggle.Name) (bool, error) {
	st, err := s.repo.GetOrCreate(ctx, name, name.Default())
	if err != nil {
		return false, fmt.Errorf("failed to read toggle %s: %w", name, err)
	}
	s.remember(name, st.Enabled)
	return st.Enabled, nil
}

// IsEnabled is the scheduler's read. On a store error it falls back to the last
// known value, or to false when the toggle was never read successfully.
func (s *ToggleStore) IsEnabled(ctx context.Context, name toggle.Name) bool {
	enabled, err := s.Get(ctx, name)
	if err == nil {
		return enabled
	}

	s.mu.RLock()
	last, ok := s.lastKnown[name]
	s.mu.RUnlock()

	s.log.WithError(err).WithFields(logrus.Fields{
		"toggle":     name,
		"last_known": ok,
		"fallback":   last,
	}).Warn("Toggle store unavailable, using last known value")
	return last
}

// Toggle flips the toggle and returns the new value.
func (s *ToggleStore) Toggle(ctx context.Context, name toggle.Name) (bool, error) {
	st, err := s.repo.Toggle(ctx, name, name.Default())
	if err != nil {
		return false, fmt.Errorf("failed to toggle %s: %w", name, err)
	}
	s.remember(name, st.Enabled)
	return st.Enabled, nil
}

func (s *ToggleStore) remember(name toggle.Name, enabled bool) {
	s.mu.Lock()
	s.lastKnown[name] = enabled
	s.mu.Unlock()
}
