package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
)

// PreferencesService reads and writes the per-user session preferences.
type PreferencesService struct {
	store  port.PreferencesStore
	logger *zap.Logger
}

// NewPreferencesService creates the preferences service.
func NewPreferencesService(store port.PreferencesStore, logger *zap.Logger) *PreferencesService {
	return &PreferencesService{store: store, logger: logger}
}

// Get returns the user's preferences. Missing or unreadable state yields
// the defaults: no selected year, USD display.
func (s *PreferencesService) Get(ctx context.Context, userID string) *domain.Preferences {
	prefs, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		s.logger.Warn("preferences read failed, using defaults", zap.String("user_id", userID), zap.Error(err))
	}
	if prefs == nil {
		prefs = &domain.Preferences{UserID: userID}
	}
	if prefs.DisplayCurrency == "" {
		prefs.DisplayCurrency = domain.CurrencyUSD
	}
	return prefs
}

// Save stores the user's preferences.
func (s *PreferencesService) Save(ctx context.Context, userID string, prefs domain.Preferences) (*domain.Preferences, error) {
	prefs.UserID = userID
	prefs.SelectedSchoolYearID = strings.TrimSpace(prefs.SelectedSchoolYearID)
	if prefs.DisplayCurrency != "" {
		c, ok := domain.ParseCurrency(string(prefs.DisplayCurrency))
		if !ok {
			return nil, &domain.ErrValidation{Field: "displayCurrency", Message: "must be USD or CDF"}
		}
		prefs.DisplayCurrency = c
	}
	if err := s.store.SavePreferences(ctx, &prefs); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return s.Get(ctx, userID), nil
}
