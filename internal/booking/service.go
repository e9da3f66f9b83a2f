package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bookingdesk/internal/audit"
	"bookingdesk/internal/events"
	"bookingdesk/internal/inflight"
	"bookingdesk/internal/metrics"
	"bookingdesk/pkg/backend"
	"bookingdesk/pkg/session"
)

var (
	ErrNotFound                = errors.New("booking not found")
	ErrActionNotPermitted      = errors.New("action not permitted")
	ErrRefundPolicyUnavailable = errors.New("refund policy unavailable")
)

// ActionError is an approve/decline/cancel the backend refused or failed. View is the record
// as it was before the optimistic patch.
type ActionError struct {
	Action  Action
	Message string
	View    View
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Action, e.Message)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Backend is the slice of the REST collaborator the dashboard service calls.
type Backend interface {
	ListBookings(ctx context.Context, sess *session.Session) ([]map[string]any, error)
	ApproveRequest(ctx context.Context, sess *session.Session, requestID string) (backend.ActionResult, error)
	DeclineRequest(ctx context.Context, sess *session.Session, requestID, reason string) (backend.ActionResult, error)
	CancelBooking(ctx context.Context, sess *session.Session, bookingID, reason string) (backend.ActionResult, error)
	RefundPreview(ctx context.Context, sess *session.Session, bookingID string) (backend.RefundPreview, error)
	LookupInvoice(ctx context.Context, sess *session.Session, id string) (string, error)
	CreateConversation(ctx context.Context, sess *session.Session, req backend.ConversationRequest) (string, error)
}

type AuditLog interface {
	Insert(ctx context.Context, e audit.Entry) (string, error)
}

type Timeline interface {
	Insert(ctx context.Context, bookingID, eventType, summary, actor string, occurredAt time.Time, data any) error
	ListByBooking(ctx context.Context, keys ...string) ([]events.Event, error)
}

// Service composes the engine for one actor's dashboard. It holds no per-user state; each
// call loads the list fresh from the backend.
type Service struct {
	Backend  Backend
	Guard    inflight.Guard
	Audit    AuditLog
	Timeline Timeline
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type ListResult struct {
	Items      []View      `json:"items"`
	Counts     map[Tab]int `json:"counts"`
	LoadFailed bool        `json:"loadFailed"`
	Message    string      `json:"message,omitempty"`
}

// List never fails: a backend failure is an empty list with LoadFailed set.
func (s *Service) List(ctx context.Context, sess *session.Session, tab Tab, sortKey SortKey, now time.Time) ListResult {
	board, err := s.load(ctx, sess, now)
	if err != nil {
		s.logger().Error("list bookings failed", zap.String("user_id", sess.UserID), zap.String("role", string(sess.Role)), zap.Error(err))
		return ListResult{Items: []View{}, Counts: Counts(nil), LoadFailed: true, Message: "Could not load bookings"}
	}
	all := board.Views()
	return ListResult{
		Items:  Sort(Filter(all, tab), sortKey),
		Counts: Counts(all),
	}
}

func (s *Service) Get(ctx context.Context, sess *session.Session, id string, now time.Time) (View, error) {
	board, err := s.load(ctx, sess, now)
	if err != nil {
		return View{}, fmt.Errorf("load bookings: %w", err)
	}
	v, ok := board.Find(id)
	if !ok {
		return View{}, ErrNotFound
	}
	return v, nil
}

func (s *Service) Approve(ctx context.Context, sess *session.Session, id string, now time.Time) (View, error) {
	return s.transition(ctx, sess, id, ActionApprove, "", now, func(rec Record) (backend.ActionResult, error) {
		return s.Backend.ApproveRequest(ctx, sess, rec.RequestID)
	})
}

func (s *Service) Decline(ctx context.Context, sess *session.Session, id, reason string, now time.Time) (View, error) {
	return s.transition(ctx, sess, id, ActionDecline, reason, now, func(rec Record) (backend.ActionResult, error) {
		return s.Backend.DeclineRequest(ctx, sess, rec.RequestID, reason)
	})
}

// Cancel by a client is refused unless the vendor's refund policy can be previewed first.
func (s *Service) Cancel(ctx context.Context, sess *session.Session, id, reason string, now time.Time) (View, error) {
	return s.transition(ctx, sess, id, ActionCancel, reason, now, func(rec Record) (backend.ActionResult, error) {
		return s.Backend.CancelBooking(ctx, sess, rec.BackendID(), reason)
	})
}

// CancelPlan is what the cancel confirmation step shows.
type CancelPlan struct {
	FullRefundOnCancel bool                   `json:"fullRefundOnCancel"`
	Preview            *backend.RefundPreview `json:"preview,omitempty"`
}

func (s *Service) CancelPreview(ctx context.Context, sess *session.Session, id string, now time.Time) (CancelPlan, error) {
	v, err := s.permitted(ctx, sess, id, ActionCancel, now)
	if err != nil {
		return CancelPlan{}, err
	}
	plan := CancelPlan{FullRefundOnCancel: v.Permissions.FullRefundOnCancel}
	if plan.FullRefundOnCancel {
		return plan, nil
	}
	preview, err := s.Backend.RefundPreview(ctx, sess, v.Record.BackendID())
	if err != nil {
		s.logger().Warn("refund preview failed", zap.String("booking", v.Record.Key()), zap.Error(err))
		return CancelPlan{}, fmt.Errorf("%w: %v", ErrRefundPolicyUnavailable, err)
	}
	plan.Preview = &preview
	return plan, nil
}

type InvoiceRef struct {
	InvoiceID  string `json:"invoiceId"`
	ViewerPath string `json:"viewerPath"`
}

func (s *Service) Invoice(ctx context.Context, sess *session.Session, id string, now time.Time) (InvoiceRef, error) {
	v, err := s.permitted(ctx, sess, id, ActionViewInvoice, now)
	if err != nil {
		return InvoiceRef{}, err
	}
	invoiceID, err := s.Backend.LookupInvoice(ctx, sess, v.Record.BackendID())
	if err != nil {
		return InvoiceRef{}, fmt.Errorf("lookup invoice: %w", err)
	}
	return InvoiceRef{InvoiceID: invoiceID, ViewerPath: "/invoices/" + invoiceID}, nil
}

// History is the booking's server-side timeline. Only a participant can read it.
func (s *Service) History(ctx context.Context, sess *session.Session, id string, now time.Time) ([]events.Event, error) {
	v, err := s.Get(ctx, sess, id, now)
	if err != nil {
		return nil, err
	}
	if s.Timeline == nil {
		return []events.Event{}, nil
	}
	return s.Timeline.ListByBooking(ctx, v.Record.Keys()...)
}

// EnsureConversation returns the record's thread, creating it on first use.
func (s *Service) EnsureConversation(ctx context.Context, sess *session.Session, id string, now time.Time) (string, error) {
	v, err := s.permitted(ctx, sess, id, ActionMessage, now)
	if err != nil {
		return "", err
	}
	if v.Record.ConversationID != "" {
		return v.Record.ConversationID, nil
	}
	// Without a counterparty id the backend adds the other side from the booking.
	participants := []string{sess.UserID}
	if v.Record.CounterpartyID != "" {
		participants = append(participants, v.Record.CounterpartyID)
	}
	convID, err := s.Backend.CreateConversation(ctx, sess, backend.ConversationRequest{
		BookingID:    v.Record.BackendID(),
		Participants: participants,
	})
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	return convID, nil
}

// transition runs authorize, guard, optimistic patch, backend call and rollback on failure.
func (s *Service) transition(
	ctx context.Context,
	sess *session.Session,
	id string,
	action Action,
	reason string,
	now time.Time,
	call func(Record) (backend.ActionResult, error),
) (View, error) {
	board, err := s.load(ctx, sess, now)
	if err != nil {
		return View{}, fmt.Errorf("load bookings: %w", err)
	}
	v, ok := board.Find(id)
	if !ok {
		return View{}, ErrNotFound
	}
	rec := v.Record
	if !v.Permissions.Has(action) {
		s.record(ctx, sess, rec, action, "denied", nil)
		return v, ErrActionNotPermitted
	}

	release, err := s.Guard.Acquire(ctx, inflight.Key(rec.Key(), string(action)))
	if err != nil {
		if errors.Is(err, inflight.ErrInFlight) {
			s.record(ctx, sess, rec, action, "in_flight", nil)
		}
		return v, err
	}
	defer release()

	if action == ActionCancel && !v.Permissions.FullRefundOnCancel {
		if _, err := s.Backend.RefundPreview(ctx, sess, rec.BackendID()); err != nil {
			s.record(ctx, sess, rec, action, "policy_unavailable", map[string]any{"error": err.Error()})
			return v, fmt.Errorf("%w: %v", ErrRefundPolicyUnavailable, err)
		}
	}

	next, _ := NextStatus(action, sess.Role)
	patched, rollback := v, func() {}
	if CanTransition(rec.RawStatus, next) {
		patched, rollback, _ = board.Patch(rec.Key(), func(r *Record) {
			r.RawStatus = next
			r.StatusCategory = ""
			switch action {
			case ActionDecline:
				r.DeclineReason = reason
			case ActionCancel:
				r.CancelReason = reason
			}
		})
	} else {
		s.logger().Debug("no optimistic patch for transition",
			zap.String("booking", rec.Key()), zap.String("from", string(rec.RawStatus)), zap.String("to", string(next)))
	}

	res, err := call(rec)
	if err == nil && !res.OK() {
		err = errors.New(res.Message)
	}
	if err != nil {
		rollback()
		restored, _ := board.Find(rec.Key())
		msg := failureMessage(res, err)
		s.logger().Warn("booking action failed",
			zap.String("action", string(action)), zap.String("booking", rec.Key()), zap.String("message", msg), zap.Error(err))
		s.record(ctx, sess, rec, action, "failed", map[string]any{"message": msg})
		return restored, &ActionError{Action: action, Message: msg, View: restored, Err: err}
	}

	s.record(ctx, sess, rec, action, "success", map[string]any{"reason": reason, "status": string(next)})
	s.timeline(ctx, sess, rec, action, reason, now)
	return patched, nil
}

func (s *Service) permitted(ctx context.Context, sess *session.Session, id string, action Action, now time.Time) (View, error) {
	v, err := s.Get(ctx, sess, id, now)
	if err != nil {
		return View{}, err
	}
	if !v.Permissions.Has(action) {
		return v, ErrActionNotPermitted
	}
	return v, nil
}

// load fetches and classifies the actor's bookings, reporting every fallback.
func (s *Service) load(ctx context.Context, sess *session.Session, now time.Time) (*Board, error) {
	build := func(rec Record) View { return BuildView(rec, sess.Role, now) }

	raws, err := s.Backend.ListBookings(ctx, sess)
	if err != nil {
		return nil, err
	}
	// The caller went away mid-fetch; nothing may act on what it loaded.
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}

	views := make([]View, 0, len(raws))
	for _, rec := range NormalizeAll(raws, sess.Role) {
		v := build(rec)
		if v.Classification.Fallback != "" {
			s.logger().Warn("booking status fell back",
				zap.String("booking", rec.Key()),
				zap.String("raw_status", string(rec.RawStatus)),
				zap.String("status_category", string(rec.StatusCategory)),
				zap.String("role", string(sess.Role)),
				zap.String("reason", v.Classification.Fallback),
			)
			s.Metrics.ObserveFallback(v.Classification.Fallback)
		}
		views = append(views, v)
	}
	return NewBoard(build, views), nil
}

func (s *Service) record(ctx context.Context, sess *session.Session, rec Record, action Action, outcome string, meta map[string]any) {
	s.Metrics.ObserveAction(string(action), outcome)
	if s.Audit == nil {
		return
	}
	_, err := s.Audit.Insert(ctx, audit.Entry{
		ActorID:   sess.UserID,
		ActorRole: string(sess.Role),
		BookingID: rec.Key(),
		Action:    string(action),
		Outcome:   outcome,
		Metadata:  meta,
	})
	if err != nil {
		s.logger().Warn("audit insert failed", zap.String("booking", rec.Key()), zap.Error(err))
	}
}

func (s *Service) timeline(ctx context.Context, sess *session.Session, rec Record, action Action, reason string, now time.Time) {
	if s.Timeline == nil {
		return
	}
	eventType, summary := events.TypeApproved, "Request approved"
	switch action {
	case ActionDecline:
		eventType, summary = events.TypeDeclined, "Request declined"
	case ActionCancel:
		eventType, summary = events.TypeCancelled, fmt.Sprintf("Cancelled by %s", sess.Role)
	}
	var data any
	if reason != "" {
		data = map[string]string{"reason": reason}
	}
	if err := s.Timeline.Insert(ctx, rec.Key(), eventType, summary, sess.UserID, now, data); err != nil {
		s.logger().Warn("timeline insert failed", zap.String("booking", rec.Key()), zap.Error(err))
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func failureMessage(res backend.ActionResult, err error) string {
	var be *backend.Error
	switch {
	case errors.As(err, &be) && be.Message != "":
		return be.Message
	case res.Message != "":
		return res.Message
	case err != nil && err.Error() != "":
		return err.Error()
	default:
		return "Action failed"
	}
}
