// Package postgres stores user preferences in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_preferences (
	user_id                 TEXT PRIMARY KEY,
	selected_school_year_id TEXT NOT NULL DEFAULT '',
	display_currency        TEXT NOT NULL DEFAULT '',
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PreferencesStore is a pgx-backed port.PreferencesStore.
type PreferencesStore struct {
	db *pgxpool.Pool
}

// NewPreferencesStore connects to dsn, checks the connection and makes sure
// the table exists.
func NewPreferencesStore(ctx context.Context, dsn string) (*PreferencesStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to create user_preferences: %w", err)
	}

	return &PreferencesStore{db: pool}, nil
}

// Close releases the pool.
func (s *PreferencesStore) Close() {
	s.db.Close()
}

// GetPreferences returns the stored preferences, or nil when there are none.
func (s *PreferencesStore) GetPreferences(ctx context.Context, userID string) (*domain.Preferences, error) {
	p := domain.Preferences{UserID: userID}
	var currency string
	err := s.db.QueryRow(ctx,
		"SELECT selected_school_year_id, display_currency, updated_at FROM user_preferences WHERE user_id = $1",
		userID).Scan(&p.SelectedSchoolYearID, &currency, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query preferences: %w", err)
	}
	p.DisplayCurrency = domain.Currency(currency)
	return &p, nil
}

// SavePreferences upserts prefs.
func (s *PreferencesStore) SavePreferences(ctx context.Context, prefs *domain.Preferences) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_preferences (user_id, selected_school_year_id, display_currency, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET selected_school_year_id = EXCLUDED.selected_school_year_id,
		    display_currency = EXCLUDED.display_currency,
		    updated_at = now()`,
		prefs.UserID, prefs.SelectedSchoolYearID, string(prefs.DisplayCurrency))
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
