package booking

import (
	"strings"

	"bookingdesk/pkg/session"
)

// Status is the lowercase status token the backend stores on a booking or request.
type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusAccepted          Status = "accepted"
	StatusConfirmed         Status = "confirmed"
	StatusPaid              Status = "paid"
	StatusDeclined          Status = "declined"
	StatusCancelled         Status = "cancelled"
	StatusCancelledByClient Status = "cancelled_by_client"
	StatusCancelledByVendor Status = "cancelled_by_vendor"
	StatusCancelledByAdmin  Status = "cancelled_by_admin"
	StatusCompleted         Status = "completed"
	StatusExpired           Status = "expired"
)

// NormalizeStatus lowercases and trims a backend token. Empty becomes pending. The American
// "canceled" spelling is folded into "cancelled".
func NormalizeStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StatusPending
	}
	s = strings.ReplaceAll(s, " ", "_")
	if strings.HasPrefix(s, "canceled") {
		s = "cancelled" + strings.TrimPrefix(s, "canceled")
	}
	return Status(s)
}

// IsCancellation covers "cancelled" and every "cancelled_by_*" variant.
func (s Status) IsCancellation() bool {
	return s == StatusCancelled || strings.HasPrefix(string(s), "cancelled_by_")
}

// IsConfirmed reports the post-approval statuses that make a booking billable.
func (s Status) IsConfirmed() bool {
	switch s {
	case StatusConfirmed, StatusAccepted, StatusApproved, StatusPaid:
		return true
	}
	return false
}

// IsPreConfirmation reports statuses a request can hold before it is ever promoted to a booking.
func (s Status) IsPreConfirmation() bool {
	return s == StatusPending || s == StatusDeclined || s == StatusExpired
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusApproved: true, StatusDeclined: true, StatusExpired: true,
		StatusCancelledByClient: true, StatusCancelledByVendor: true, StatusCancelledByAdmin: true,
	},
	StatusApproved:  confirmedExits(),
	StatusAccepted:  confirmedExits(),
	StatusConfirmed: confirmedExits(),
	StatusPaid: {
		StatusCompleted: true,
		StatusCancelledByClient: true, StatusCancelledByVendor: true, StatusCancelledByAdmin: true,
	},
	StatusDeclined:  {},
	StatusExpired:   {},
	StatusCompleted: {},
}

func confirmedExits() map[Status]bool {
	return map[Status]bool{
		StatusPaid: true, StatusCompleted: true,
		StatusCancelledByClient: true, StatusCancelledByVendor: true, StatusCancelledByAdmin: true,
	}
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// NextStatus is the status an actor's action optimistically moves a record to.
func NextStatus(action Action, role session.Role) (Status, bool) {
	switch action {
	case ActionApprove:
		return StatusApproved, true
	case ActionDecline:
		return StatusDeclined, true
	case ActionCancel:
		if role == session.RoleVendor {
			return StatusCancelledByVendor, true
		}
		return StatusCancelledByClient, true
	default:
		return "", false
	}
}
