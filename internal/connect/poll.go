package connect

import (
	"context"
	"errors"
	"time"
)

var ErrPollCeiling = errors.New("onboarding status poll gave up")

// Status is a vendor's payment account onboarding state.
type Status struct {
	AccountID        string   `json:"accountId"`
	ChargesEnabled   bool     `json:"chargesEnabled"`
	PayoutsEnabled   bool     `json:"payoutsEnabled"`
	DetailsSubmitted bool     `json:"detailsSubmitted"`
	CurrentlyDue     []string `json:"currentlyDue,omitempty"`
}

func (s Status) Complete() bool {
	return s.ChargesEnabled && s.DetailsSubmitted
}

type Checker interface {
	Check(ctx context.Context, accountID string) (Status, error)
}

// Poll checks every interval until onboarding completes, ctx is done, or ceiling passes.
// At the ceiling it returns the last status it saw with ErrPollCeiling. Check errors are
// retried until the ceiling.
func Poll(ctx context.Context, checker Checker, accountID string, interval, ceiling time.Duration) (Status, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeoutCause(ctx, ceiling, ErrPollCeiling)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		last    = Status{AccountID: accountID}
		lastErr error
	)
	for {
		st, err := checker.Check(ctx, accountID)
		switch {
		case err == nil:
			last, lastErr = st, nil
			if st.Complete() {
				return st, nil
			}
		case ctx.Err() == nil:
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if errors.Is(context.Cause(ctx), ErrPollCeiling) {
				if lastErr != nil {
					return last, errors.Join(ErrPollCeiling, lastErr)
				}
				return last, ErrPollCeiling
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
