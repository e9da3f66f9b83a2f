package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"bookingdesk/pkg/session"
)

// ListBookings returns the raw booking objects visible to the session's role. The backend has
// shipped a bare array as well as {"bookings": [...]}, {"data": [...]} and {"items": [...]}.
func (c *Client) ListBookings(ctx context.Context, sess *session.Session) ([]map[string]any, error) {
	q := url.Values{}
	if sess != nil {
		q.Set("role", string(sess.Role))
	}
	var raw json.RawMessage
	if _, err := c.doJSON(ctx, sess, http.MethodGet, "/bookings?"+q.Encode(), nil, &raw, requestOpts{}); err != nil {
		return nil, err
	}
	return decodeBookingList(raw)
}

func decodeBookingList(raw json.RawMessage) ([]map[string]any, error) {
	if len(raw) == 0 {
		return []map[string]any{}, nil
	}
	var list []map[string]any
	if err := unmarshalNumbers(raw, &list); err == nil {
		return list, nil
	}
	var env map[string]json.RawMessage
	if err := unmarshalNumbers(raw, &env); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	for _, key := range []string{"bookings", "data", "items", "requests"} {
		if v, ok := env[key]; ok {
			if err := unmarshalNumbers(v, &list); err != nil {
				return nil, fmt.Errorf("decode bookings.%s: %w", key, err)
			}
			return list, nil
		}
	}
	return []map[string]any{}, nil
}

// ActionResult is the backend's reply to approve/decline/cancel. success=false is a refusal
// carrying a user-facing message, not a transport error.
type ActionResult struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// OK treats a 2xx reply without a success flag as success.
func (r ActionResult) OK() bool {
	return r.Success == nil || *r.Success
}

type reasonBody struct {
	Reason string `json:"reason,omitempty"`
}

func (c *Client) ApproveRequest(ctx context.Context, sess *session.Session, requestID string) (ActionResult, error) {
	var out ActionResult
	_, err := c.doJSON(ctx, sess, http.MethodPost, "/bookings/requests/"+url.PathEscape(requestID)+"/approve", reasonBody{}, &out, requestOpts{})
	return out, err
}

func (c *Client) DeclineRequest(ctx context.Context, sess *session.Session, requestID, reason string) (ActionResult, error) {
	var out ActionResult
	_, err := c.doJSON(ctx, sess, http.MethodPost, "/bookings/requests/"+url.PathEscape(requestID)+"/decline", reasonBody{Reason: reason}, &out, requestOpts{})
	return out, err
}

func (c *Client) CancelBooking(ctx context.Context, sess *session.Session, bookingID, reason string) (ActionResult, error) {
	var out ActionResult
	_, err := c.doJSON(ctx, sess, http.MethodPost, "/bookings/"+url.PathEscape(bookingID)+"/cancel", reasonBody{Reason: reason}, &out, requestOpts{})
	return out, err
}

// RefundPreview is the server-computed outcome of a client cancellation under the vendor's policy.
type RefundPreview struct {
	PolicyName      string          `json:"policyName"`
	RefundPercent   decimal.Decimal `json:"refundPercent"`
	RefundAmount    decimal.Decimal `json:"refundAmount"`
	CancellationFee decimal.Decimal `json:"cancellationFee"`
	Message         string          `json:"message,omitempty"`
}

func (c *Client) RefundPreview(ctx context.Context, sess *session.Session, bookingID string) (RefundPreview, error) {
	var out RefundPreview
	_, err := c.doJSON(ctx, sess, http.MethodGet, "/bookings/"+url.PathEscape(bookingID)+"/refund-preview", nil, &out, requestOpts{})
	return out, err
}

func (c *Client) LookupInvoice(ctx context.Context, sess *session.Session, id string) (string, error) {
	var out struct {
		InvoiceID string `json:"invoiceId"`
		Invoice   *struct {
			InvoiceID string `json:"InvoiceID"`
		} `json:"invoice"`
	}
	if _, err := c.doJSON(ctx, sess, http.MethodGet, "/invoices/booking/"+url.PathEscape(id), nil, &out, requestOpts{}); err != nil {
		return "", err
	}
	if out.InvoiceID == "" && out.Invoice != nil {
		out.InvoiceID = out.Invoice.InvoiceID
	}
	if out.InvoiceID == "" {
		return "", fmt.Errorf("invoice lookup returned empty id")
	}
	return out.InvoiceID, nil
}

type ConversationRequest struct {
	BookingID    string   `json:"bookingId,omitempty"`
	Participants []string `json:"participants"`
}

func (c *Client) CreateConversation(ctx context.Context, sess *session.Session, req ConversationRequest) (string, error) {
	var out struct {
		ConversationID string `json:"conversationId"`
	}
	if _, err := c.doJSON(ctx, sess, http.MethodPost, "/messages/conversations", req, &out, requestOpts{}); err != nil {
		return "", err
	}
	if out.ConversationID == "" {
		return "", fmt.Errorf("conversation create returned empty id")
	}
	return out.ConversationID, nil
}
