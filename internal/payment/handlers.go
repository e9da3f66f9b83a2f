package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookingdesk/internal/api"
	"bookingdesk/internal/booking"
	"bookingdesk/internal/inflight"
	"bookingdesk/pkg/backend"
	"bookingdesk/pkg/session"
)

type Handlers struct {
	Orchestrator *Orchestrator
}

func (h Handlers) CreateIntent(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	handoff, err := h.Orchestrator.Begin(r.Context(), sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, handoff)
}

func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.BookingID = id
	}

	conf, err := h.Orchestrator.Complete(r.Context(), sess, req)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, conf)
}

func writeError(w http.ResponseWriter, err error) {
	var (
		ve  ValidationError
		sdk *SDKError
		be  *backend.Error
	)
	switch {
	case errors.As(err, &ve):
		api.WriteError(w, http.StatusBadRequest, ve.Code, ve.Message)
	case errors.As(err, &sdk):
		// Shown to the payer verbatim; the form stays open for another try.
		api.WriteError(w, http.StatusPaymentRequired, "PAYMENT_FAILED", sdk.Message)
	case errors.Is(err, ErrBookingNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
	case errors.Is(err, booking.ErrActionNotPermitted):
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "this booking can't be paid")
	case errors.Is(err, inflight.ErrInFlight):
		api.WriteError(w, http.StatusConflict, "IN_PROGRESS", "a payment for this booking is already starting")
	case errors.Is(err, ErrBreakdownMissing):
		api.WriteError(w, http.StatusConflict, "BREAKDOWN_MISSING", "this booking has no quoted amount yet")
	case errors.Is(err, ErrNoClientSecret):
		api.WriteError(w, http.StatusBadGateway, "NO_CLIENT_SECRET", "payment could not be started")
	case errors.As(err, &be):
		api.WriteUpstreamError(w, be.Message, "payment could not be started")
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
