package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bookingdesk/pkg/db"
)

// Entry is one actor action against a booking, whatever its outcome.
type Entry struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actorId"`
	ActorRole string         `json:"actorRole"`
	BookingID string         `json:"bookingId"`
	Action    string         `json:"action"`
	Outcome   string         `json:"outcome"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, e Entry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var meta *string
	if e.Metadata != nil {
		b, _ := json.Marshal(e.Metadata)
		s := string(b)
		meta = &s
	}
	const q = `
INSERT INTO booking_audit_logs (id, actor_id, actor_role, booking_id, action, outcome, metadata)
VALUES ($1, $2, $3, $4, $5, $6, CAST($7 AS jsonb))
`
	if _, err := r.db.Exec(ctx, q, e.ID, e.ActorID, e.ActorRole, e.BookingID, e.Action, e.Outcome, meta); err != nil {
		return "", err
	}
	return e.ID, nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `
SELECT id, actor_id, actor_role, booking_id, action, outcome, COALESCE(metadata, '{}'::jsonb), created_at
FROM booking_audit_logs
WHERE booking_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.Query(ctx, q, bookingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.BookingID, &e.Action, &e.Outcome, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
