package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"bookingdesk/pkg/db"
)

// insertWebhookEvent is the idempotency gate: a redelivered event id hits the primary key.
func insertWebhookEvent(ctx context.Context, tx db.DBTX, eventID, topic, payloadHash string) error {
	const q = `
INSERT INTO processed_webhook_events (event_id, topic, payload_hash, processed_at)
VALUES ($1, $2, $3, NOW())
`
	_, err := tx.Exec(ctx, q, eventID, topic, payloadHash)
	return err
}

func sha256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if ok := errors.As(err, &pgErr); ok {
		return pgErr.Code == "23505"
	}
	return false
}
