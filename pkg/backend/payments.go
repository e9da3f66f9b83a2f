package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"bookingdesk/pkg/session"
)

// Amounts is the server-computed money breakdown for a booking. It is echoed back verbatim.
type Amounts struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	PlatformFee   decimal.Decimal `json:"platformFee"`
	Tax           decimal.Decimal `json:"taxAmount"`
	ProcessingFee decimal.Decimal `json:"processingFee"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}

// IntentRequest.BookingKey ("booking:<id>" or "request:<id>") is copied onto the intent's
// metadata so processor webhooks land on the same timeline as the pay flow.
type IntentRequest struct {
	BookingID       string  `json:"bookingId"`
	BookingKey      string  `json:"bookingKey,omitempty"`
	TaxJurisdiction string  `json:"taxJurisdiction"`
	Amounts         Amounts `json:"amounts"`

	IdempotencyKey string `json:"-"`
}

type IntentResponse struct {
	ClientSecret    string   `json:"clientSecret"`
	PaymentIntentID string   `json:"paymentIntentId"`
	Breakdown       *Amounts `json:"breakdown,omitempty"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, sess *session.Session, req IntentRequest) (IntentResponse, error) {
	var out IntentResponse
	_, err := c.doJSON(ctx, sess, http.MethodPost, "/payments/create-payment-intent", req, &out, requestOpts{idempotencyKey: req.IdempotencyKey})
	return out, err
}

type Verification struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VerifyPayment asks the backend to reconcile a payment intent. The endpoint is idempotent.
func (c *Client) VerifyPayment(ctx context.Context, sess *session.Session, paymentIntentID string) (Verification, error) {
	var out Verification
	_, err := c.doJSON(ctx, sess, http.MethodPost, "/payments/verify-payment", map[string]string{"paymentIntentId": paymentIntentID}, &out, requestOpts{})
	if err != nil {
		return out, err
	}
	if !out.Success {
		return out, fmt.Errorf("payment verification not confirmed: status=%s message=%s", out.Status, out.Message)
	}
	return out, nil
}

// ConnectAccount returns the vendor's connected payment account id.
func (c *Client) ConnectAccount(ctx context.Context, sess *session.Session) (string, error) {
	var out struct {
		AccountID string `json:"accountId"`
	}
	if _, err := c.doJSON(ctx, sess, http.MethodGet, "/payments/connect/account", nil, &out, requestOpts{}); err != nil {
		return "", err
	}
	if out.AccountID == "" {
		return "", fmt.Errorf("no connected account")
	}
	return out.AccountID, nil
}
