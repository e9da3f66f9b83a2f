package booking

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bookingdesk/internal/api"
	"bookingdesk/internal/inflight"
	"bookingdesk/pkg/backend"
	"bookingdesk/pkg/session"
)

type Handlers struct {
	Service *Service
	Now     func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	tab, err := ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	sortKey, err := ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	api.WriteJSON(w, http.StatusOK, h.Service.List(r.Context(), sess, tab, sortKey, h.now()))
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Get(r.Context(), sess, id, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": v})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	items, err := h.Service.History(r.Context(), sess, id, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Approve(r.Context(), sess, id, h.now())
	writeActionResult(w, v, err)
}

func (h Handlers) Decline(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := decodeReason(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Decline(r.Context(), sess, id, req.Reason, h.now())
	writeActionResult(w, v, err)
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := decodeReason(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Cancel(r.Context(), sess, id, req.Reason, h.now())
	writeActionResult(w, v, err)
}

func (h Handlers) CancelPreview(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	plan, err := h.Service.CancelPreview(r.Context(), sess, id, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, plan)
}

func (h Handlers) Invoice(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	ref, err := h.Service.Invoice(r.Context(), sess, id, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, ref)
}

func (h Handlers) Conversation(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.target(w, r)
	if !ok {
		return
	}
	convID, err := h.Service.EnsureConversation(r.Context(), sess, id, h.now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"conversationId": convID})
}

func (h Handlers) target(w http.ResponseWriter, r *http.Request) (*session.Session, string, bool) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return nil, "", false
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return nil, "", false
	}
	return sess, id, true
}

// decodeReason accepts an empty body.
func decodeReason(w http.ResponseWriter, r *http.Request) (ReasonRequest, bool) {
	var req ReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return req, false
	}
	return req, true
}

func writeActionResult(w http.ResponseWriter, v View, err error) {
	var ae *ActionError
	if errors.As(err, &ae) {
		// The rolled-back record goes back so the dashboard can restore its row.
		api.WriteRollback(w, "ACTION_FAILED", ae.Message, ae.View)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"booking": v})
}

func writeServiceError(w http.ResponseWriter, err error) {
	var be *backend.Error
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "booking not found")
	case errors.Is(err, ErrActionNotPermitted):
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "action not permitted for this booking")
	case errors.Is(err, inflight.ErrInFlight):
		api.WriteError(w, http.StatusConflict, "IN_PROGRESS", "this action is already in progress")
	case errors.Is(err, ErrRefundPolicyUnavailable):
		api.WriteError(w, http.StatusServiceUnavailable, "REFUND_POLICY_UNAVAILABLE", "could not load the cancellation policy")
	case errors.As(err, &be):
		api.WriteUpstreamError(w, be.Message, "backend request failed")
	default:
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
