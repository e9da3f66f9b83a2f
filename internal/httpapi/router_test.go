package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookingdesk/internal/booking"
	"bookingdesk/internal/inflight"
	"bookingdesk/internal/metrics"
	"bookingdesk/internal/webhook"
	"bookingdesk/pkg/backend"
	"bookingdesk/pkg/config"
	"bookingdesk/pkg/session"
)

type emptyBackend struct{ booking.Backend }

func (emptyBackend) ListBookings(context.Context, *session.Session) ([]map[string]any, error) {
	return []map[string]any{{"BookingID": "b-1", "Status": "confirmed", "EventDate": "2999-01-01"}}, nil
}

func (emptyBackend) RefundPreview(context.Context, *session.Session, string) (backend.RefundPreview, error) {
	return backend.RefundPreview{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveAction("approve", "success")
	return NewRouter(Dependencies{
		Cfg:      config.Config{AppEnv: "dev", AllowedOrigins: []string{"http://localhost:5173"}},
		Logger:   zap.NewNop(),
		Gatherer: reg,
		Bookings: &booking.Service{Backend: emptyBackend{}, Guard: inflight.NewMemoryGuard(), Metrics: m},
	})
}

func TestRouter_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bookingdesk_action_total{action="approve",outcome="success"} 1`)
}

func TestRouter_BookingsRequireSession(t *testing.T) {
	h := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bookings", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings/b-1/cancel-preview", nil)
	req.Header.Set("X-User-ID", "v-1")
	req.Header.Set("X-Actor-Role", "vendor")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"fullRefundOnCancel":true}`, rec.Body.String())
}

func TestRouter_PreflightSkipsAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/v1/bookings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_StripeWebhookBypassesSession(t *testing.T) {
	h := NewRouter(Dependencies{
		Cfg:      config.Config{AppEnv: "prod"},
		Logger:   zap.NewNop(),
		Gatherer: prometheus.NewRegistry(),
		Webhooks: &webhook.Handler{Secret: "whsec_test"},
	})

	// Unsigned payload: rejected by the signature check rather than by session auth.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid webhook signature")
}
