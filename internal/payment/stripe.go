package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeConfirmer confirms payment intents server-side with a payment method the payment
// element collected.
type StripeConfirmer struct {
	api *client.API
}

// NewStripeConfirmer builds a confirmer. backends may be nil for the live Stripe API.
func NewStripeConfirmer(secretKey string, backends *stripe.Backends) *StripeConfirmer {
	return &StripeConfirmer{api: client.New(secretKey, backends)}
}

func (c *StripeConfirmer) Confirm(ctx context.Context, paymentIntentID, paymentMethodID string) (string, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Confirm(paymentIntentID, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Msg != "" {
			return "", &SDKError{Message: se.Msg, Err: err}
		}
		return "", err
	}
	return string(pi.Status), nil
}
