package booking

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is the canonical booking every view works from. A record is either a request
// (RequestID only, awaiting the vendor) or a booking (BookingID set after approval, RequestID
// kept for history).
type Record struct {
	RequestID string `json:"requestId,omitempty"`
	BookingID string `json:"bookingId,omitempty"`
	PublicID  string `json:"publicId,omitempty"`
	DisplayID string `json:"displayId"`

	RawStatus      Status   `json:"rawStatus"`
	StatusCategory Category `json:"statusCategory,omitempty"`

	EventDate   *time.Time `json:"eventDate"`
	StartTime   string     `json:"startTime"`
	EndTime     string     `json:"endTime"`
	RequestedOn *time.Time `json:"requestedOn"`

	FullAmountPaid bool            `json:"fullAmountPaid"`
	DepositPaid    bool            `json:"depositPaid"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`

	DeclineReason string `json:"declineReason"`
	CancelReason  string `json:"cancelReason"`

	CounterpartyName string `json:"counterpartyName"`
	CounterpartyID   string `json:"counterpartyId"`
	ConversationID   string `json:"conversationId"`

	ServiceName string `json:"serviceName"`
	Location    string `json:"location"`
}

// Key identifies the record for in-flight guards. Booking and request ids live in
// different namespaces, so the prefix keeps "12" the request apart from "12" the booking.
func (r Record) Key() string {
	switch {
	case r.BookingID != "":
		return "booking:" + r.BookingID
	case r.RequestID != "":
		return "request:" + r.RequestID
	default:
		return "public:" + r.PublicID
	}
}

// Keys lists every key the record has been filed under, newest first. Timeline entries written
// before approval stay under the request key.
func (r Record) Keys() []string {
	var keys []string
	if r.BookingID != "" {
		keys = append(keys, "booking:"+r.BookingID)
	}
	if r.RequestID != "" {
		keys = append(keys, "request:"+r.RequestID)
	}
	if len(keys) == 0 {
		keys = append(keys, "public:"+r.PublicID)
	}
	return keys
}

// Matches reports whether id names this record under any of its ids or its Key. The backend
// echoes whichever one it has at hand.
func (r Record) Matches(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	return id == r.BookingID || id == r.RequestID || id == r.PublicID || id == r.DisplayID || id == r.Key()
}

// BackendID is the id the backend addresses the record by: the booking id once approved,
// the request id before.
func (r Record) BackendID() string {
	switch {
	case r.BookingID != "":
		return r.BookingID
	case r.RequestID != "":
		return r.RequestID
	default:
		return r.PublicID
	}
}

// When renders the event date and time window, or TBD when the date is unknown.
func (r Record) When() string {
	if r.EventDate == nil {
		return "TBD"
	}
	s := r.EventDate.Format("Mon, Jan 2, 2006")
	switch {
	case r.StartTime != "" && r.EndTime != "":
		s += " " + r.StartTime + " - " + r.EndTime
	case r.StartTime != "":
		s += " " + r.StartTime
	}
	return s
}
