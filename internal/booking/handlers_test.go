package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingdesk/pkg/session"
)

func newRouter(t *testing.T, be *fakeBackend) http.Handler {
	t.Helper()
	svc, _, _, _ := newService(t, be)
	h := Handlers{Service: svc, Now: func() time.Time { return testNow }}

	r := chi.NewRouter()
	r.Get("/v1/bookings", h.List)
	r.Get("/v1/bookings/{id}", h.Get)
	r.Post("/v1/bookings/{id}/approve", h.Approve)
	r.Post("/v1/bookings/{id}/decline", h.Decline)
	r.Get("/v1/bookings/{id}/cancel-preview", h.CancelPreview)
	r.Post("/v1/bookings/{id}/cancel", h.Cancel)
	return r
}

func do(t *testing.T, h http.Handler, sess *session.Session, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if sess != nil {
		req = req.WithContext(session.WithSession(context.Background(), sess))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_ListRequiresSession(t *testing.T) {
	rec := do(t, newRouter(t, &fakeBackend{}), nil, http.MethodGet, "/v1/bookings", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlers_ListAcceptsTabAlias(t *testing.T) {
	be := &fakeBackend{bookings: []map[string]any{pendingRequest(), confirmedBooking()}}
	rec := do(t, newRouter(t, be), clientSess, http.MethodGet, "/v1/bookings?tab=accepted&sort=name", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []struct {
			Record         Record         `json:"record"`
			Classification Classification `json:"classification"`
			Permissions    Permissions    `json:"permissions"`
		} `json:"items"`
		Counts     map[string]int `json:"counts"`
		LoadFailed bool           `json:"loadFailed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "b-2", body.Items[0].Record.BookingID)
	assert.Equal(t, "Pay Now", body.Items[0].Permissions.PayLabel)
	assert.Equal(t, 2, body.Counts["all"])

	rec = do(t, newRouter(t, be), clientSess, http.MethodGet, "/v1/bookings?tab=archive", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_ListLoadFailedStillOK(t *testing.T) {
	be := &fakeBackend{listErr: assert.AnError}
	rec := do(t, newRouter(t, be), clientSess, http.MethodGet, "/v1/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"loadFailed":true`)
}

func TestHandlers_ErrorMapping(t *testing.T) {
	refused := false
	be := &fakeBackend{bookings: []map[string]any{pendingRequest(), confirmedBooking()}}
	h := newRouter(t, be)

	assert.Equal(t, http.StatusNotFound, do(t, h, vendorSess, http.MethodGet, "/v1/bookings/nope", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, vendorSess, http.MethodPost, "/v1/bookings/b-2/approve", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, vendorSess, http.MethodPost, "/v1/bookings/r-1/decline", "{").Code)

	be.actionRes.Success = &refused
	be.actionRes.Message = "Already declined"
	rec := do(t, h, vendorSess, http.MethodPost, "/v1/bookings/r-1/decline", `{"reason":"busy"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ACTION_FAILED"`)
	assert.Contains(t, rec.Body.String(), `"rawStatus":"pending"`)

	be.previewErr = assert.AnError
	rec = do(t, h, clientSess, http.MethodGet, "/v1/bookings/b-2/cancel-preview", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlers_CancelWithEmptyBody(t *testing.T) {
	be := &fakeBackend{bookings: []map[string]any{confirmedBooking()}}
	rec := do(t, newRouter(t, be), vendorSess, http.MethodPost, "/v1/bookings/b-2/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rawStatus":"cancelled_by_vendor"`)
}
