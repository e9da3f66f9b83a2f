package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookingdesk/internal/booking"
	"bookingdesk/internal/events"
	"bookingdesk/internal/inflight"
	"bookingdesk/internal/metrics"
	"bookingdesk/internal/tax"
	"bookingdesk/pkg/backend"
	"bookingdesk/pkg/session"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrNoClientSecret  = errors.New("payment intent returned no client secret")
)

// SDKError is a failure reported by the payment SDK. Message is shown to the payer as is.
type SDKError struct {
	Message string
	Err     error
}

func (e *SDKError) Error() string { return e.Message }

func (e *SDKError) Unwrap() error { return e.Err }

type Backend interface {
	ListBookings(ctx context.Context, sess *session.Session) ([]map[string]any, error)
	CreatePaymentIntent(ctx context.Context, sess *session.Session, req backend.IntentRequest) (backend.IntentResponse, error)
	VerifyPayment(ctx context.Context, sess *session.Session, paymentIntentID string) (backend.Verification, error)
}

// Confirmer confirms a payment intent with a collected payment method and returns the
// intent status.
type Confirmer interface {
	Confirm(ctx context.Context, paymentIntentID, paymentMethodID string) (string, error)
}

type Timeline interface {
	Insert(ctx context.Context, bookingID, eventType, summary, actor string, occurredAt time.Time, data any) error
}

// Orchestrator runs the pay flow: resolve booking, resolve tax region, request an intent with
// the stored breakdown, hand off to the payment UI, then confirm and verify.
type Orchestrator struct {
	Backend   Backend
	Confirmer Confirmer
	Guard     inflight.Guard
	Timeline  Timeline
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	PublishableKey      string
	ConfirmationPath    string
	DefaultJurisdiction string

	Now func() time.Time
}

// Handoff is everything the payment element needs to collect a card.
type Handoff struct {
	BookingID       string           `json:"bookingId"`
	ClientSecret    string           `json:"clientSecret"`
	PaymentIntentID string           `json:"paymentIntentId"`
	PublishableKey  string           `json:"publishableKey,omitempty"`
	Breakdown       Breakdown        `json:"breakdown"`
	Jurisdiction    tax.Jurisdiction `json:"jurisdiction"`
	PayLabel        string           `json:"payLabel"`
}

// Begin aborts on any failure; nothing has been charged yet.
func (o *Orchestrator) Begin(ctx context.Context, sess *session.Session, bookingID string) (Handoff, error) {
	if sess.Role != session.RoleClient {
		return Handoff{}, booking.ErrActionNotPermitted
	}
	now := o.now()

	raws, err := o.Backend.ListBookings(ctx, sess)
	if err != nil {
		return Handoff{}, fmt.Errorf("load bookings: %w", err)
	}
	raw, rec, ok := findBooking(raws, sess.Role, bookingID)
	if !ok {
		return Handoff{}, ErrBookingNotFound
	}

	view := booking.BuildView(rec, sess.Role, now)
	if !view.Permissions.Has(booking.ActionPay) {
		return Handoff{}, booking.ErrActionNotPermitted
	}

	if o.Guard != nil {
		release, err := o.Guard.Acquire(ctx, inflight.Key(rec.Key(), string(booking.ActionPay)))
		if err != nil {
			return Handoff{}, err
		}
		defer release()
	}

	bd, err := BreakdownFrom(raw)
	if err != nil {
		return Handoff{}, err
	}
	jur := tax.Resolve(rec.Location, o.DefaultJurisdiction)

	resp, err := o.Backend.CreatePaymentIntent(ctx, sess, backend.IntentRequest{
		BookingID:       rec.BackendID(),
		BookingKey:      rec.Key(),
		TaxJurisdiction: jur.Code,
		Amounts:         bd.Amounts(),
		IdempotencyKey:  IdempotencyKey(rec.Key(), bd, sess.UserID),
	})
	if err != nil {
		return Handoff{}, fmt.Errorf("create payment intent: %w", err)
	}
	if resp.ClientSecret == "" {
		return Handoff{}, ErrNoClientSecret
	}
	if resp.Breakdown != nil {
		// The backend has the final say on the charge.
		bd = breakdownOf(*resp.Breakdown)
	}
	intentID := resp.PaymentIntentID
	if intentID == "" {
		intentID = IntentIDFromSecret(resp.ClientSecret)
	}

	o.timeline(ctx, rec.Key(), events.TypeIntentCreated, "Payment intent created", sess.UserID, now,
		map[string]any{"paymentIntentId": intentID, "grandTotal": bd.GrandTotal.StringFixed(2), "jurisdiction": jur.Code})

	return Handoff{
		BookingID:       rec.BackendID(),
		ClientSecret:    resp.ClientSecret,
		PaymentIntentID: intentID,
		PublishableKey:  o.PublishableKey,
		Breakdown:       bd,
		Jurisdiction:    jur,
		PayLabel:        view.Permissions.PayLabel,
	}, nil
}

type CompleteRequest struct {
	BookingID       string `json:"bookingId"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// Confirmation is where the payer lands after paying. Verified is false when the backend
// could not confirm yet; the webhook reconciles it later.
type Confirmation struct {
	PaymentIntentID string `json:"paymentIntentId"`
	BookingID       string `json:"bookingId"`
	Status          string `json:"status,omitempty"`
	RedirectPath    string `json:"redirectPath"`
	Verified        bool   `json:"verified"`
}

// Complete confirms and verifies a payment for one of the payer's own bookings. Confirming
// with a payment method needs the pay permission; a verify-only call (the SDK already
// confirmed) only needs the booking to be the payer's.
func (o *Orchestrator) Complete(ctx context.Context, sess *session.Session, req CompleteRequest) (Confirmation, error) {
	intentID := strings.TrimSpace(req.PaymentIntentID)
	if intentID == "" {
		intentID = IntentIDFromSecret(req.ClientSecret)
	}
	if intentID == "" {
		return Confirmation{}, ValidationError{Code: "PAYMENT_INTENT_MISSING", Message: "paymentIntentId or clientSecret is required"}
	}
	if strings.TrimSpace(req.BookingID) == "" {
		return Confirmation{}, ValidationError{Code: "BOOKING_ID_MISSING", Message: "bookingId is required"}
	}
	if sess.Role != session.RoleClient {
		return Confirmation{}, booking.ErrActionNotPermitted
	}
	now := o.now()

	raws, err := o.Backend.ListBookings(ctx, sess)
	if err != nil {
		return Confirmation{}, fmt.Errorf("load bookings: %w", err)
	}
	_, rec, ok := findBooking(raws, sess.Role, req.BookingID)
	if !ok {
		return Confirmation{}, ErrBookingNotFound
	}
	key := rec.Key()

	conf := Confirmation{PaymentIntentID: intentID, BookingID: rec.BackendID()}

	if req.PaymentMethodID != "" {
		view := booking.BuildView(rec, sess.Role, now)
		if !view.Permissions.Has(booking.ActionPay) {
			return Confirmation{}, booking.ErrActionNotPermitted
		}
		if o.Confirmer == nil {
			return Confirmation{}, errors.New("payment confirmation is not configured")
		}
		status, err := o.confirm(ctx, key, intentID, req.PaymentMethodID)
		if err != nil {
			return Confirmation{}, err
		}
		conf.Status = status
		o.timeline(ctx, key, events.TypePaymentConfirmed, "Payment confirmed", sess.UserID, now,
			map[string]string{"paymentIntentId": intentID, "status": status})
	}

	// Verification closes the race with the webhook. A failure here doesn't block the payer.
	v, err := o.Backend.VerifyPayment(ctx, sess, intentID)
	if err != nil {
		o.logger().Warn("payment verification failed",
			zap.String("payment_intent", intentID), zap.String("booking", key), zap.Error(err))
		o.Metrics.ObserveVerification("failed")
		o.timeline(ctx, key, events.TypeVerifyFailed, "Payment verification failed", sess.UserID, now,
			map[string]string{"paymentIntentId": intentID, "error": err.Error()})
	} else {
		conf.Verified = true
		if v.Status != "" {
			conf.Status = v.Status
		}
		o.Metrics.ObserveVerification("verified")
		o.timeline(ctx, key, events.TypePaymentVerified, "Payment verified", sess.UserID, now,
			map[string]string{"paymentIntentId": intentID})
	}

	conf.RedirectPath = o.redirectPath(intentID, conf.BookingID)
	return conf, nil
}

// confirm holds the record's pay slot while the processor confirms, so a double submit can't
// confirm the same booking twice.
func (o *Orchestrator) confirm(ctx context.Context, recordKey, intentID, paymentMethodID string) (string, error) {
	if o.Guard != nil {
		release, err := o.Guard.Acquire(ctx, inflight.Key(recordKey, string(booking.ActionPay)))
		if err != nil {
			return "", err
		}
		defer release()
	}

	status, err := o.Confirmer.Confirm(ctx, intentID, paymentMethodID)
	if err != nil {
		var sdkErr *SDKError
		if errors.As(err, &sdkErr) {
			return "", sdkErr
		}
		return "", &SDKError{Message: err.Error(), Err: err}
	}
	if !confirmedStatus(status) {
		return "", &SDKError{Message: fmt.Sprintf("Payment could not be completed (status: %s).", status)}
	}
	return status, nil
}

func (o *Orchestrator) redirectPath(intentID, bookingID string) string {
	path := o.ConfirmationPath
	if path == "" {
		path = "/payment-success"
	}
	q := url.Values{}
	q.Set("payment_intent", intentID)
	q.Set("booking_id", bookingID)
	return path + "?" + q.Encode()
}

func (o *Orchestrator) timeline(ctx context.Context, bookingKey, eventType, summary, actor string, at time.Time, data any) {
	if o.Timeline == nil {
		return
	}
	if err := o.Timeline.Insert(ctx, bookingKey, eventType, summary, actor, at, data); err != nil {
		o.logger().Warn("timeline insert failed", zap.String("booking", bookingKey), zap.Error(err))
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// findBooking matches on booking, request and public ids since the backend may echo any of them.
func findBooking(raws []map[string]any, role session.Role, id string) (map[string]any, booking.Record, bool) {
	for _, raw := range raws {
		rec := booking.Normalize(raw, role)
		if rec.Matches(id) {
			return raw, rec, true
		}
	}
	return nil, booking.Record{}, false
}

// IntentIDFromSecret recovers "pi_123" from "pi_123_secret_abc".
func IntentIDFromSecret(secret string) string {
	id, _, ok := strings.Cut(strings.TrimSpace(secret), "_secret_")
	if !ok {
		return ""
	}
	return id
}

var idempotencyNamespace = uuid.MustParse("6f1c1d2e-58a4-4f7e-9a53-0b6a3c7f2d10")

// IdempotencyKey is stable for the same payer, booking and amount, so a retried Begin
// reuses the backend's intent instead of creating a second one.
func IdempotencyKey(bookingKey string, bd Breakdown, userID string) string {
	name := bookingKey + "|" + bd.GrandTotal.StringFixed(2) + "|" + userID
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String()
}

func confirmedStatus(status string) bool {
	switch status {
	case "succeeded", "processing", "requires_capture":
		return true
	}
	return false
}
