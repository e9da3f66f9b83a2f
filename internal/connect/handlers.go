package connect

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bookingdesk/internal/api"
	"bookingdesk/pkg/session"
)

// AccountResolver finds the vendor's connected account id.
type AccountResolver interface {
	ConnectAccount(ctx context.Context, sess *session.Session) (string, error)
}

type Handlers struct {
	Accounts AccountResolver
	Checker  Checker
	Interval time.Duration
	Ceiling  time.Duration
	Logger   *zap.Logger
}

// Status reports onboarding state. With ?wait=true it holds the request until onboarding
// completes or the poll ceiling passes; a disconnecting client stops the poll.
func (h Handlers) Status(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}
	if sess.Role != session.RoleVendor {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "only vendors have payout accounts")
		return
	}

	if h.Checker == nil {
		api.WriteError(w, http.StatusServiceUnavailable, "CONNECT_DISABLED", "payment accounts are not configured")
		return
	}

	accountID, err := h.Accounts.ConnectAccount(r.Context(), sess)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "NO_CONNECTED_ACCOUNT", "no connected payment account")
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		st, err := h.Checker.Check(r.Context(), accountID)
		if err != nil {
			h.logger().Error("connect status check failed", zap.String("account", accountID), zap.Error(err))
			api.WriteError(w, http.StatusBadGateway, "CONNECT_STATUS_FAILED", "could not read account status")
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"status": st, "complete": st.Complete()})
		return
	}

	st, err := Poll(r.Context(), h.Checker, accountID, h.Interval, h.Ceiling)
	switch {
	case err == nil:
		api.WriteJSON(w, http.StatusOK, map[string]any{"status": st, "complete": true})
	case errors.Is(err, ErrPollCeiling):
		api.WriteJSON(w, http.StatusOK, map[string]any{"status": st, "complete": false, "timedOut": true})
	default:
		// Caller went away; nobody is listening.
		h.logger().Debug("connect poll stopped", zap.String("account", accountID), zap.Error(err))
	}
}

func (h Handlers) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
