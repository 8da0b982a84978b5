package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"racelog/internal/domain"
	"racelog/internal/middleware"
	"racelog/internal/service"
)

// App is the handler container. All dependencies are injected at startup.
type App struct {
	Races    *service.RaceService
	Billing  *service.BillingService
	Accounts domain.AccountRepository
	Provider service.PaymentProvider
	Logger   zerolog.Logger
}

// NewApp creates the handler container.
func NewApp(races *service.RaceService, billing *service.BillingService, accounts domain.AccountRepository, provider service.PaymentProvider, logger zerolog.Logger) *App {
	return &App{
		Races:    races,
		Billing:  billing,
		Accounts: accounts,
		Provider: provider,
		Logger:   logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// currentAccount loads the caller's account from the authenticated request
// context. A request without an identity fails with ErrUnauthenticated, a
// stale token for a deleted account with ErrNotFound; a repository failure
// comes back as-is so callers never mistake an outage for a bad session.
func (a *App) currentAccount(r *http.Request) (*domain.Account, error) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return a.Accounts.GetByID(r.Context(), accountID)
}

// callerError answers a failed currentAccount call. Missing identity and
// deleted account are both Unauthorized; anything else is a persistence
// failure and reports 500 with the cause logged, never echoed.
func (a *App) callerError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrUnauthenticated) || errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	a.Logger.Error().Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Msg("load caller account failed")
	a.error(w, http.StatusInternalServerError, "Internal server error")
}

// serviceError maps a service failure onto the wire contract. Validation and
// not-found details pass through; everything else degrades to the supplied
// generic message with the cause logged, never echoed.
func (a *App) serviceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg, internalMsg string) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		a.error(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrUnauthenticated):
		a.error(w, http.StatusUnauthorized, "Unauthorized")
	default:
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		a.error(w, http.StatusInternalServerError, internalMsg)
	}
}
