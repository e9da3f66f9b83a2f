package booking

import (
	"slices"
	"time"

	"bookingdesk/pkg/session"
)

type Action string

const (
	ActionPay         Action = "pay"
	ActionCancel      Action = "cancel"
	ActionApprove     Action = "approve"
	ActionDecline     Action = "decline"
	ActionMessage     Action = "message"
	ActionViewInvoice Action = "viewInvoice"
)

// Permissions is the set of controls a caller may render for a record. A missing action is
// not an error; the control simply isn't offered.
type Permissions struct {
	Actions []Action `json:"actions"`

	// FullRefundOnCancel is true when a cancel by this actor refunds everything (vendor
	// cancels). Client cancels go through the vendor's refund policy preview instead.
	FullRefundOnCancel bool `json:"fullRefundOnCancel"`

	// PayLabel is the call to action for the pay control, empty when pay is not offered.
	PayLabel string `json:"payLabel,omitempty"`
}

func (p Permissions) Has(a Action) bool {
	return slices.Contains(p.Actions, a)
}

// Authorize intersects independent gates per action.
func Authorize(rec Record, cls Classification, role session.Role, now time.Time) Permissions {
	p := Permissions{
		Actions:            []Action{},
		FullRefundOnCancel: role == session.RoleVendor,
	}

	if role == session.RoleClient {
		switch cls.Stage {
		case StageAwaitingPayment:
			p.Actions = append(p.Actions, ActionPay)
			p.PayLabel = "Pay Now"
		case StageAwaitingBalance:
			p.Actions = append(p.Actions, ActionPay)
			p.PayLabel = "Pay Balance"
		}
	}

	if role == session.RoleVendor && cls.Stage == StageAwaitingVendorApproval &&
		rec.RequestID != "" && rec.BookingID == "" {
		p.Actions = append(p.Actions, ActionApprove, ActionDecline)
	}

	eventAhead := rec.EventDate == nil || now.Before(*rec.EventDate)
	if eventAhead && !cls.Category.Terminal() {
		p.Actions = append(p.Actions, ActionCancel)
	}

	// Both parties of a visible record are known to the backend, so a thread can always be
	// opened even when this payload omits the other side.
	p.Actions = append(p.Actions, ActionMessage)

	if rec.FullAmountPaid {
		p.Actions = append(p.Actions, ActionViewInvoice)
	}

	return p
}
