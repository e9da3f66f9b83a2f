package payment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"bookingdesk/internal/booking"
	"bookingdesk/pkg/backend"
)

var ErrBreakdownMissing = errors.New("booking has no stored amount breakdown")

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Breakdown is the money split the backend computed when the booking was requested. It is
// echoed back to the backend as stored and never re-derived here.
type Breakdown struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	PlatformFee   decimal.Decimal `json:"platformFee"`
	Tax           decimal.Decimal `json:"taxAmount"`
	ProcessingFee decimal.Decimal `json:"processingFee"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}

// BreakdownFrom reads the stored breakdown off a raw booking. The backend has kept it both
// nested (PaymentBreakdown / priceBreakdown) and flat on the booking.
func BreakdownFrom(raw map[string]any) (Breakdown, error) {
	src := booking.LookupMap(raw, "PaymentBreakdown", "paymentBreakdown", "PriceBreakdown", "priceBreakdown", "Breakdown", "breakdown")
	if src == nil {
		src = raw
	}

	b := Breakdown{
		Subtotal:      booking.LookupDecimal(src, "Subtotal", "subtotal", "SubTotal", "BaseAmount", "baseAmount"),
		PlatformFee:   booking.LookupDecimal(src, "PlatformFee", "platformFee", "ServiceFee", "serviceFee"),
		Tax:           booking.LookupDecimal(src, "TaxAmount", "taxAmount", "Tax", "tax"),
		ProcessingFee: booking.LookupDecimal(src, "ProcessingFee", "processingFee", "StripeFee", "stripeFee"),
		GrandTotal:    booking.LookupDecimal(src, "GrandTotal", "grandTotal", "TotalWithFees", "totalWithFees"),
	}
	if b.GrandTotal.LessThanOrEqual(decimal.Zero) {
		return Breakdown{}, ErrBreakdownMissing
	}
	for name, v := range map[string]decimal.Decimal{
		"subtotal": b.Subtotal, "platform fee": b.PlatformFee, "tax": b.Tax, "processing fee": b.ProcessingFee,
	} {
		if v.IsNegative() {
			return Breakdown{}, ValidationError{Code: "BREAKDOWN_INVALID", Message: name + " must be >= 0"}
		}
	}
	return b, nil
}

func (b Breakdown) Amounts() backend.Amounts {
	return backend.Amounts(b)
}

func breakdownOf(a backend.Amounts) Breakdown {
	return Breakdown(a)
}
