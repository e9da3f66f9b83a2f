package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingdesk/pkg/backend"
	"bookingdesk/pkg/session"
)

func serve(t *testing.T, o *Orchestrator, sess *session.Session, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := Handlers{Orchestrator: o}
	r := chi.NewRouter()
	r.Post("/v1/bookings/{id}/payment-intent", h.CreateIntent)
	r.Post("/v1/bookings/{id}/payment-complete", h.Complete)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if sess != nil {
		req = req.WithContext(session.WithSession(context.Background(), sess))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_CreateIntent(t *testing.T) {
	be := &fakeBackend{bookings: []map[string]any{payable()}, intent: backend.IntentResponse{ClientSecret: "pi_9_secret_z"}}
	o, _, _ := newOrchestrator(be)

	rec := serve(t, o, payer, http.MethodPost, "/v1/bookings/b-1/payment-intent", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clientSecret":"pi_9_secret_z"`)
	assert.Contains(t, rec.Body.String(), `"code":"CA-BC"`)

	rec = serve(t, o, nil, http.MethodPost, "/v1/bookings/b-1/payment-intent", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(t, o, payer, http.MethodPost, "/v1/bookings/nope/payment-intent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_CompleteSurfacesSDKMessage(t *testing.T) {
	o, _, _ := newOrchestrator(&fakeBackend{bookings: []map[string]any{payable()}})
	o.Confirmer = fakeConfirmer{err: &SDKError{Message: "Your card was declined."}}

	rec := serve(t, o, payer, http.MethodPost, "/v1/bookings/b-1/payment-complete", `{"paymentIntentId":"pi_9","paymentMethodId":"pm_1"}`)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your card was declined.")

	rec = serve(t, o, payer, http.MethodPost, "/v1/bookings/b-1/payment-complete", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAYMENT_INTENT_MISSING")
}

func TestHandlers_CompleteChecksOwnership(t *testing.T) {
	o, tl, _ := newOrchestrator(&fakeBackend{bookings: []map[string]any{payable()}})
	vendor := &session.Session{UserID: "v-1", Role: session.RoleVendor}

	rec := serve(t, o, vendor, http.MethodPost, "/v1/bookings/b-1/payment-complete", `{"paymentIntentId":"pi_9"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, o, payer, http.MethodPost, "/v1/bookings/someone-elses-booking/payment-complete", `{"paymentIntentId":"pi_9"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, tl.types)
}
