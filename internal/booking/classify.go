package booking

import (
	"strings"
	"time"

	"bookingdesk/pkg/session"
)

// Category is the coarse tab bucket. Every record lands in exactly one per role.
type Category string

const (
	CategoryPending   Category = "pending"
	CategoryUpcoming  Category = "upcoming"
	CategoryCompleted Category = "completed"
	CategoryCancelled Category = "cancelled"
	CategoryDeclined  Category = "declined"
	CategoryExpired   Category = "expired"
)

func NormalizeCategory(s string) Category {
	return Category(strings.ToLower(strings.TrimSpace(s)))
}

func (c Category) Valid() bool {
	switch c {
	case CategoryPending, CategoryUpcoming, CategoryCompleted, CategoryCancelled, CategoryDeclined, CategoryExpired:
		return true
	}
	return false
}

func (c Category) Terminal() bool {
	switch c {
	case CategoryCompleted, CategoryCancelled, CategoryDeclined, CategoryExpired:
		return true
	}
	return false
}

// Stage is the badge-level refinement of a category. It is actor-aware and never used for
// tab filtering.
type Stage string

const (
	StageCompleted              Stage = "completed"
	StageCancelled              Stage = "cancelled"
	StageDeclined               Stage = "declined"
	StageExpired                Stage = "expired"
	StagePaid                   Stage = "paid"
	StageAwaitingVendorApproval Stage = "awaiting_vendor_approval"
	StageAwaitingVendorResponse Stage = "awaiting_vendor_response"
	StageAwaitingBalance        Stage = "awaiting_balance"
	StageAwaitingPayment        Stage = "awaiting_payment"
	// StagePending is the unmapped fallback; it renders with the default badge.
	StagePending Stage = "pending"
)

// Fallback reasons reported on a Classification. Empty means the record mapped cleanly.
const (
	FallbackUnknownStatus   = "unknown_status"
	FallbackPastPending     = "past_pending"
	FallbackUnknownCategory = "unknown_category"
	FallbackPaidOverride    = "paid_category_override"
	FallbackPastOverride    = "past_category_override"
)

type Classification struct {
	Stage    Stage    `json:"stage"`
	Category Category `json:"category"`
	IsPast   bool     `json:"isPast"`

	// Fallback names the rule that had to paper over the data. Callers log it.
	Fallback string `json:"-"`
}

// Classify derives the lifecycle position of a record. It is pure: same inputs, same output.
func Classify(rec Record, role session.Role, now time.Time) Classification {
	isPast := rec.EventDate != nil && rec.EventDate.Before(now)

	var (
		category Category
		fallback string
	)
	switch {
	case rec.StatusCategory.Valid():
		// Backend bucket is authoritative.
		category = rec.StatusCategory
	case rec.StatusCategory != "":
		category, fallback = deriveCategory(rec.RawStatus, isPast)
		if fallback == "" {
			fallback = FallbackUnknownCategory
		}
	default:
		category, fallback = deriveCategory(rec.RawStatus, isPast)
	}

	// A fully paid record is never waiting on approval and was never declined.
	if rec.FullAmountPaid && (category == CategoryPending || category == CategoryDeclined) {
		category = CategoryUpcoming
		if isPast {
			category = CategoryCompleted
		}
		fallback = FallbackPaidOverride
	}

	// An honored booking whose date has passed is completed whatever the stale status says.
	if isPast && honored(rec) && (category == CategoryPending || category == CategoryUpcoming) {
		category = CategoryCompleted
		if fallback == "" {
			fallback = FallbackPastOverride
		}
	}

	return Classification{
		Stage:    deriveStage(rec, role, category),
		Category: category,
		IsPast:   isPast,
		Fallback: fallback,
	}
}

func honored(rec Record) bool {
	return rec.FullAmountPaid || rec.RawStatus.IsConfirmed() || rec.RawStatus == StatusCompleted
}

func deriveCategory(st Status, isPast bool) (Category, string) {
	switch {
	case st.IsCancellation():
		return CategoryCancelled, ""
	case st == StatusDeclined:
		return CategoryDeclined, ""
	case st == StatusExpired:
		return CategoryExpired, ""
	case st == StatusCompleted, st.IsConfirmed() && isPast:
		return CategoryCompleted, ""
	case st == StatusPending && !isPast:
		return CategoryPending, ""
	case st.IsConfirmed():
		return CategoryUpcoming, ""
	case st == StatusPending:
		return CategoryPending, FallbackPastPending
	default:
		return CategoryPending, FallbackUnknownStatus
	}
}

// deriveStage refines the category. Terminal categories map onto the stage of the same
// name so a stage never contradicts its bucket.
func deriveStage(rec Record, role session.Role, category Category) Stage {
	switch category {
	case CategoryCompleted:
		return StageCompleted
	case CategoryCancelled:
		return StageCancelled
	case CategoryDeclined:
		return StageDeclined
	case CategoryExpired:
		return StageExpired
	}

	switch {
	case rec.FullAmountPaid, rec.RawStatus == StatusPaid:
		return StagePaid
	case rec.RawStatus == StatusPending:
		if role == session.RoleVendor {
			return StageAwaitingVendorApproval
		}
		return StageAwaitingVendorResponse
	case rec.RawStatus.IsConfirmed() && rec.DepositPaid:
		return StageAwaitingBalance
	case rec.RawStatus.IsConfirmed():
		return StageAwaitingPayment
	default:
		return StagePending
	}
}
