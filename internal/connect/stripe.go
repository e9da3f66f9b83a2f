package connect

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeAccountChecker reads a connected account's onboarding flags from Stripe.
type StripeAccountChecker struct {
	api *client.API
}

// NewStripeAccountChecker builds a checker. backends may be nil for the live Stripe API.
func NewStripeAccountChecker(secretKey string, backends *stripe.Backends) *StripeAccountChecker {
	return &StripeAccountChecker{api: client.New(secretKey, backends)}
}

func (c *StripeAccountChecker) Check(ctx context.Context, accountID string) (Status, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := c.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return Status{AccountID: accountID}, err
	}
	st := Status{
		AccountID:        acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
	if acct.Requirements != nil {
		st.CurrentlyDue = acct.Requirements.CurrentlyDue
	}
	return st, nil
}
