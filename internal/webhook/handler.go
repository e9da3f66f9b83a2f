package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"bookingdesk/internal/api"
	"bookingdesk/internal/events"
	"bookingdesk/internal/metrics"
	"bookingdesk/pkg/db"
)

const maxPayloadBytes = 1 << 20

var errDuplicate = errors.New("webhook already processed")

// Handler receives payment processor webhooks and reconciles them onto the booking timeline.
// It is the backstop for client confirmations whose server-side verification failed.
type Handler struct {
	Secret  string
	DB      db.TxBeginner
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

type timelineEntry struct {
	bookingKey string
	eventType  string
	summary    string
	data       map[string]string
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid body")
		return
	}

	evt, err := Verify(body, r.Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		h.logger().Warn("stripe webhook rejected", zap.Error(err))
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook signature")
		return
	}

	topic := NormalizeTopic(string(evt.Type))
	entry, ok, err := entryFor(topic, evt)
	switch {
	case err != nil:
		// Acknowledge so the processor stops retrying a payload we will never parse.
		h.logger().Warn("stripe webhook payload unreadable", zap.String("event_id", evt.ID), zap.String("type", topic), zap.Error(err))
		h.Metrics.ObserveWebhook(topic, "malformed")
		w.WriteHeader(http.StatusOK)
		return
	case !ok:
		h.Metrics.ObserveWebhook(topic, "ignored")
		w.WriteHeader(http.StatusOK)
		return
	case entry.bookingKey == "":
		h.logger().Warn("stripe webhook missing booking reference", zap.String("event_id", evt.ID), zap.String("type", topic))
		h.Metrics.ObserveWebhook(topic, "unmatched")
		w.WriteHeader(http.StatusOK)
		return
	}

	payloadHash := sha256Hex(body)
	eventID := evt.ID
	if eventID == "" {
		eventID = payloadHash
	}
	occurredAt := h.now()
	if evt.Created > 0 {
		occurredAt = time.Unix(evt.Created, 0).UTC()
	}

	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		if err := insertWebhookEvent(r.Context(), tx, eventID, topic, payloadHash); err != nil {
			if isUniqueViolation(err) {
				return errDuplicate
			}
			return err
		}
		return events.NewRepository(tx).Insert(r.Context(), entry.bookingKey, entry.eventType, entry.summary,
			"stripe", occurredAt, entry.data)
	})
	switch {
	case errors.Is(err, errDuplicate):
		h.Metrics.ObserveWebhook(topic, "duplicate")
	case err != nil:
		h.logger().Error("stripe webhook tx error", zap.String("event_id", eventID), zap.String("type", topic), zap.Error(err))
		h.Metrics.ObserveWebhook(topic, "failed")
		// Non-2xx makes the processor redeliver.
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "could not record webhook")
		return
	default:
		h.Metrics.ObserveWebhook(topic, "recorded")
	}

	w.WriteHeader(http.StatusOK)
}

// entryFor maps the event types the booking timeline cares about. ok is false for everything else.
func entryFor(topic string, evt stripe.Event) (timelineEntry, bool, error) {
	if !handledTopic(topic) {
		return timelineEntry{}, false, nil
	}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return timelineEntry{}, true, fmt.Errorf("event %s has no object", evt.ID)
	}

	if topic == topicChargeRefunded {
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return timelineEntry{}, true, err
		}
		data := map[string]string{
			"chargeId":       ch.ID,
			"amountRefunded": minorUnits(ch.AmountRefunded),
		}
		if ch.PaymentIntent != nil {
			data["paymentIntentId"] = ch.PaymentIntent.ID
		}
		return timelineEntry{
			bookingKey: bookingRef(ch.Metadata, ch.Description),
			eventType:  events.TypeRefunded,
			summary:    "Refund issued",
			data:       data,
		}, true, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return timelineEntry{}, true, err
	}
	entry := timelineEntry{
		bookingKey: bookingRef(pi.Metadata, pi.Description),
		data: map[string]string{
			"paymentIntentId": pi.ID,
			"amount":          minorUnits(pi.Amount),
			"currency":        string(pi.Currency),
		},
	}
	if topic == topicIntentSucceeded {
		entry.eventType, entry.summary = events.TypePaymentConfirmed, "Payment confirmed by processor"
	} else {
		entry.eventType, entry.summary = events.TypePaymentFailed, "Payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			entry.data["error"] = pi.LastPaymentError.Msg
		}
	}
	return entry, true, nil
}

// minorUnits renders a two-decimal currency amount from cents.
func minorUnits(n int64) string {
	return decimal.New(n, -2).StringFixed(2)
}

func (h Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
