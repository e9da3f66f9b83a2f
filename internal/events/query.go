package events

import (
	"context"
)

type Event struct {
	ID         string `json:"id"`
	BookingID  string `json:"bookingId"`
	EventType  string `json:"eventType"`
	Summary    string `json:"summary"`
	Actor      string `json:"actor"`
	OccurredAt string `json:"occurredAt"`
	Data       any    `json:"data,omitempty"`
}

// ListByBooking merges the timelines of every key a record has carried. A request promoted to
// a booking keeps its pre-approval entries under "request:<id>".
func (r *Repository) ListByBooking(ctx context.Context, keys ...string) ([]Event, error) {
	if len(keys) == 0 {
		return []Event{}, nil
	}
	const q = `
SELECT id::text, booking_id, event_type, summary, actor, occurred_at::text, COALESCE(data, '{}'::jsonb)
FROM booking_events
WHERE booking_id = ANY($1)
ORDER BY occurred_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.BookingID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
