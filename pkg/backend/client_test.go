package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingdesk/pkg/session"
)

func TestListBookings_ForwardsTokenAndAcceptsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "vendor", r.URL.Query().Get("role"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bookings":[{"RequestID":7,"Status":"pending","TotalAmount":120.50}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", 0)
	got, err := c.ListBookings(context.Background(), &session.Session{Role: session.RoleVendor, Token: "tok-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, json.Number("7"), got[0]["RequestID"])
	assert.Equal(t, json.Number("120.50"), got[0]["TotalAmount"])
}

func TestListBookings_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"BookingID":"b-1"},{"BookingID":"b-2"}]`))
	}))
	defer srv.Close()

	got, err := New(srv.URL, 0).ListBookings(context.Background(), &session.Session{Role: session.RoleClient})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDoJSON_NonSuccessSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"Request already processed"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).ApproveRequest(context.Background(), &session.Session{Role: session.RoleVendor}, "r-1")
	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, http.StatusConflict, be.Status)
	assert.Equal(t, "Request already processed", be.Message)
}

func TestCreatePaymentIntent_EchoesAmountsAndIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		amounts := body["amounts"].(map[string]any)
		assert.Equal(t, "113", amounts["grandTotal"])
		assert.Equal(t, "CA-ON", body["taxJurisdiction"])
		_, _ = w.Write([]byte(`{"clientSecret":"pi_123_secret_abc","paymentIntentId":"pi_123"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, 0).CreatePaymentIntent(context.Background(), &session.Session{Role: session.RoleClient}, IntentRequest{
		BookingID:       "b-1",
		TaxJurisdiction: "CA-ON",
		Amounts:         Amounts{GrandTotal: decimal.RequireFromString("113.00")},
		IdempotencyKey:  "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret_abc", resp.ClientSecret)
}

func TestVerifyPayment_UnsuccessfulIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"status":"processing"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 0).VerifyPayment(context.Background(), nil, "pi_1")
	assert.Error(t, err)
}

func TestLookupInvoice_NestedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/booking/b-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"invoice":{"InvoiceID":"inv-3"}}`))
	}))
	defer srv.Close()

	id, err := New(srv.URL, 0).LookupInvoice(context.Background(), nil, "b-9")
	require.NoError(t, err)
	assert.Equal(t, "inv-3", id)
}

func TestActionResult_MissingFlagCountsAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bookings/b-1/cancel":
			_, _ = w.Write([]byte(`{"message":"Cancelled"}`))
		default:
			_, _ = w.Write([]byte(`{"success":false,"message":"Too late to decline"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	res, err := c.CancelBooking(context.Background(), &session.Session{Role: session.RoleClient}, "b-1", "")
	require.NoError(t, err)
	assert.True(t, res.OK())

	res, err = c.DeclineRequest(context.Background(), &session.Session{Role: session.RoleVendor}, "r-1", "busy")
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "Too late to decline", res.Message)
}
