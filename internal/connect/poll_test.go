package connect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingdesk/pkg/session"
)

type scriptedChecker struct {
	calls    atomic.Int32
	doneAt   int32
	failures int32
}

func (c *scriptedChecker) Check(_ context.Context, accountID string) (Status, error) {
	n := c.calls.Add(1)
	if n <= c.failures {
		return Status{}, errors.New("stripe unavailable")
	}
	st := Status{AccountID: accountID, DetailsSubmitted: true}
	if c.doneAt > 0 && n >= c.doneAt {
		st.ChargesEnabled = true
	}
	return st, nil
}

func TestPoll_ReturnsWhenComplete(t *testing.T) {
	c := &scriptedChecker{doneAt: 3}
	st, err := Poll(context.Background(), c, "acct_1", time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.True(t, st.Complete())
	assert.Equal(t, int32(3), c.calls.Load())
}

func TestPoll_CeilingReturnsLastStatus(t *testing.T) {
	c := &scriptedChecker{}
	st, err := Poll(context.Background(), c, "acct_1", 5*time.Millisecond, 30*time.Millisecond)
	require.ErrorIs(t, err, ErrPollCeiling)
	assert.Equal(t, "acct_1", st.AccountID)
	assert.True(t, st.DetailsSubmitted)
	assert.False(t, st.Complete())
}

func TestPoll_RetriesCheckErrors(t *testing.T) {
	c := &scriptedChecker{failures: 2, doneAt: 3}
	st, err := Poll(context.Background(), c, "acct_1", time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.True(t, st.Complete())
}

func TestPoll_StopsOnCancel(t *testing.T) {
	c := &scriptedChecker{}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := Poll(ctx, c, "acct_1", time.Millisecond, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrPollCeiling)
	assert.Less(t, time.Since(start), time.Second)

	calls := c.calls.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, c.calls.Load(), "no checks after Poll returns")
}

type staticAccounts string

func (s staticAccounts) ConnectAccount(context.Context, *session.Session) (string, error) {
	if s == "" {
		return "", errors.New("none")
	}
	return string(s), nil
}

func TestHandlers_Status(t *testing.T) {
	h := Handlers{Accounts: staticAccounts("acct_1"), Checker: &scriptedChecker{doneAt: 2}, Interval: time.Millisecond, Ceiling: time.Second}
	vendor := &session.Session{UserID: "v-1", Role: session.RoleVendor}

	req := httptest.NewRequest(http.MethodGet, "/v1/connect/status?wait=true", nil)
	req = req.WithContext(session.WithSession(req.Context(), vendor))
	rec := httptest.NewRecorder()
	h.Status(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"complete":true`)

	req = httptest.NewRequest(http.MethodGet, "/v1/connect/status", nil)
	req = req.WithContext(session.WithSession(req.Context(), &session.Session{UserID: "c-1", Role: session.RoleClient}))
	rec = httptest.NewRecorder()
	h.Status(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h.Accounts = staticAccounts("")
	req = httptest.NewRequest(http.MethodGet, "/v1/connect/status", nil)
	req = req.WithContext(session.WithSession(req.Context(), vendor))
	rec = httptest.NewRecorder()
	h.Status(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	h.Checker = nil
	req = httptest.NewRequest(http.MethodGet, "/v1/connect/status", nil)
	req = req.WithContext(session.WithSession(req.Context(), vendor))
	rec = httptest.NewRecorder()
	h.Status(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
