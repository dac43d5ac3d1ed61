// Package memory holds process-local implementations of the ports.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

// PreferencesStore keeps user preferences in a map. Contents are lost on
// restart, which is acceptable for non-authoritative session state.
type PreferencesStore struct {
	mu    sync.RWMutex
	prefs map[string]domain.Preferences
	now   func() time.Time
}

// NewPreferencesStore returns an empty store.
func NewPreferencesStore() *PreferencesStore {
	return &PreferencesStore{
		prefs: make(map[string]domain.Preferences),
		now:   time.Now,
	}
}

// GetPreferences returns a copy of the stored preferences, or nil.
func (s *PreferencesStore) GetPreferences(_ context.Context, userID string) (*domain.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// SavePreferences stores prefs, replacing any previous value.
func (s *PreferencesStore) SavePreferences(_ context.Context, prefs *domain.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *prefs
	p.UpdatedAt = s.now().UTC()
	s.prefs[p.UserID] = p
	return nil
}
