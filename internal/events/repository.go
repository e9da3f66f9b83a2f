package events

import (
	"context"
	"encoding/json"
	"time"

	"bookingdesk/pkg/db"
)

// Event types on a booking timeline.
const (
	TypeApproved         = "approved"
	TypeDeclined         = "declined"
	TypeCancelled        = "cancelled"
	TypeIntentCreated    = "payment_intent_created"
	TypePaymentConfirmed = "payment_confirmed"
	TypePaymentVerified  = "payment_verified"
	TypeVerifyFailed     = "payment_verification_failed"
	TypePaymentFailed    = "payment_failed"
	TypeRefunded         = "refunded"
)

type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, bookingID, eventType, summary, actor string, occurredAt time.Time, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO booking_events (booking_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := r.db.Exec(ctx, q, bookingID, eventType, summary, actor, occurredAt, s)
	return err
}
