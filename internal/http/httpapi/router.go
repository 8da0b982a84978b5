package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"racelog/internal/http/handlers"
	"racelog/internal/middleware"
)

// Options carries everything the router needs beyond the handlers.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	Logger          zerolog.Logger
}

// NewRouter assembles the HTTP surface. The webhook route sits outside the
// auth group: Stripe authenticates with its signature, not a bearer token.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger, opts.CountryLookup),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Post("/billing/webhook", app.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Get("/me", app.Me)

		r.Route("/races", func(r chi.Router) {
			r.Get("/", app.RacesList)
			r.Post("/", app.RacesCreate)
			r.Get("/{id}", app.RacesGet)
			r.Patch("/{id}", app.RacesUpdate)
			r.Delete("/{id}", app.RacesDelete)
		})

		r.Post("/billing/checkout", app.BillingCheckout)
	})

	return r
}
