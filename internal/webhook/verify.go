package webhook

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	stripewebhook "github.com/stripe/stripe-go/v76/webhook"
)

var ErrBadSignature = errors.New("invalid webhook signature")

// Verify checks the Stripe-Signature header (t=<unix>,v1=<hex hmac>) against the endpoint secret and
// decodes the event. The payload's API version is not pinned to the SDK's.
func Verify(body []byte, sigHeader, secret string) (stripe.Event, error) {
	if sigHeader == "" || secret == "" {
		return stripe.Event{}, ErrBadSignature
	}
	evt, err := stripewebhook.ConstructEventWithOptions(body, sigHeader, secret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return evt, nil
}
