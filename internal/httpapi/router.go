package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bookingdesk/internal/api"
	"bookingdesk/internal/booking"
	"bookingdesk/internal/connect"
	"bookingdesk/internal/payment"
	"bookingdesk/internal/webhook"
	"bookingdesk/pkg/config"
)

type Dependencies struct {
	Cfg      config.Config
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer

	Bookings *booking.Service
	Payments *payment.Orchestrator
	Connect  connect.Handlers
	Webhooks *webhook.Handler
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	bookingHandlers := booking.Handlers{Service: deps.Bookings}
	paymentHandlers := payment.Handlers{Orchestrator: deps.Payments}

	// v1
	r.Route("/v1", func(r chi.Router) {
		// Dashboards run on their own origins.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			MaxAgeSeconds:  600,
		}))

		// Signed by the payment processor, not a session.
		if deps.Webhooks != nil {
			r.Post("/webhooks/stripe", deps.Webhooks.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			// Production: bearer session token.
			// Dev: falls back to X-User-ID / X-Actor-Role if Authorization is missing.
			r.Use(api.SessionAuth(deps.Cfg))

			r.Get("/bookings", bookingHandlers.List)
			r.Get("/bookings/{id}", bookingHandlers.Get)
			r.Get("/bookings/{id}/events", bookingHandlers.Events)
			r.Get("/bookings/{id}/cancel-preview", bookingHandlers.CancelPreview)
			r.Get("/bookings/{id}/invoice", bookingHandlers.Invoice)
			r.Post("/bookings/{id}/conversation", bookingHandlers.Conversation)

			r.Get("/connect/status", deps.Connect.Status)

			// Actions that move money or status.
			r.Group(func(r chi.Router) {
				r.Use(api.RateLimit(deps.Cfg.ActionRatePerMinute, deps.Cfg.ActionRateBurst, deps.Logger))

				r.Post("/bookings/{id}/approve", bookingHandlers.Approve)
				r.Post("/bookings/{id}/decline", bookingHandlers.Decline)
				r.Post("/bookings/{id}/cancel", bookingHandlers.Cancel)

				r.Post("/bookings/{id}/payment-intent", paymentHandlers.CreateIntent)
				r.Post("/bookings/{id}/payment-complete", paymentHandlers.Complete)
			})
		})
	})

	return r
}
