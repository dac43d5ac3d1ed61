// Package app assembles the services behind the HTTP router.
package app

import (
	"go.uber.org/zap"

	"github.com/boddenberg/school-fees-bfa-go/internal/config"
	"github.com/boddenberg/school-fees-bfa-go/internal/domain"
	"github.com/boddenberg/school-fees-bfa-go/internal/filter"
	"github.com/boddenberg/school-fees-bfa-go/internal/handler"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/cache"
	"github.com/boddenberg/school-fees-bfa-go/internal/infra/observability"
	"github.com/boddenberg/school-fees-bfa-go/internal/port"
	"github.com/boddenberg/school-fees-bfa-go/internal/service"
)

// NewServices wires every service on top of the backend and the
// preferences store. The returned func stops the cache janitors.
func NewServices(
	cfg *config.Config,
	backend port.SchoolBackend,
	prefs port.PreferencesStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) (handler.Services, func()) {
	rateCache := cache.New[*domain.ExchangeRate](cfg.CacheTTL)
	structureCache := cache.New[*domain.SchoolStructure](cfg.CacheTTL)

	rates := service.NewExchangeRateService(backend, rateCache, metrics, logger)

	engines := map[string]*filter.Engine{
		filter.ModeRemote: filter.NewEngine(filter.NewRemoteSource(backend), cfg.SearchDebounce, logger, metrics),
		filter.ModeLocal:  filter.NewEngine(filter.NewLocalSource(backend), cfg.SearchDebounce, logger, metrics),
	}

	svc := handler.Services{
		Rates:       rates,
		Students:    service.NewStudentService(backend, rates, engines, cfg.ListMode, metrics, logger),
		Payments:    service.NewPaymentService(backend, backend, rates, metrics, logger),
		SchoolYears: service.NewSchoolYearService(backend, prefs, metrics, logger),
		Preferences: service.NewPreferencesService(prefs, logger),
		Dashboard:   service.NewDashboardService(backend, rates, metrics, logger),
		Structure:   service.NewStructureService(backend, structureCache, metrics, logger),
		Users:       service.NewUserService(backend, logger),
		Auth:        service.NewAuthService(cfg.JWTSecret, logger),
		Backend:     backend,

		DefaultPageSize: cfg.DefaultPageSize,
	}

	return svc, func() {
		rateCache.Close()
		structureCache.Close()
	}
}
