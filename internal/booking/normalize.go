package booking

import (
	"bookingdesk/pkg/session"
)

// Normalize maps a raw backend booking object onto a Record. It never fails: every missing
// field takes its zero value and a missing status becomes pending.
func Normalize(raw map[string]any, role session.Role) Record {
	if raw == nil {
		raw = map[string]any{}
	}

	rec := Record{
		RequestID: LookupString(raw, "RequestID", "requestId", "request_id"),
		BookingID: LookupString(raw, "BookingID", "bookingId", "booking_id"),
		PublicID:  LookupString(raw, "PublicID", "publicId", "BookingPublicID", "public_id"),

		RawStatus: NormalizeStatus(LookupString(raw, "Status", "status", "BookingStatus", "bookingStatus")),

		EventDate:   LookupTime(raw, "EventDate", "eventDate", "event_date", "BookingDate", "bookingDate"),
		StartTime:   LookupString(raw, "StartTime", "startTime", "EventTime", "eventTime"),
		EndTime:     LookupString(raw, "EndTime", "endTime"),
		RequestedOn: LookupTime(raw, "CreatedAt", "createdAt", "RequestedOn", "requestedOn", "RequestDate"),

		FullAmountPaid: LookupBool(raw, "FullAmountPaid", "fullAmountPaid", "IsPaid", "isPaid"),
		DepositPaid:    LookupBool(raw, "DepositPaid", "depositPaid"),
		TotalAmount:    LookupDecimal(raw, "TotalAmount", "totalAmount", "TotalPrice", "Budget"),

		DeclineReason: LookupString(raw, "DeclineReason", "declineReason", "DeclinedReason"),
		CancelReason:  LookupString(raw, "CancellationReason", "cancellationReason", "CancelReason", "cancelReason"),

		ConversationID: LookupString(raw, "ConversationID", "conversationId"),
		ServiceName:    LookupString(raw, "ServiceName", "serviceName", "EventName", "eventName"),
		Location:       LookupString(raw, "EventLocation", "eventLocation", "Location", "location"),
	}

	if c := LookupString(raw, "StatusCategory", "statusCategory"); c != "" {
		rec.StatusCategory = NormalizeCategory(c)
	}

	if role == session.RoleVendor {
		rec.CounterpartyName = LookupString(raw, "ClientName", "clientName")
		rec.CounterpartyID = LookupString(raw, "ClientUserID", "clientUserId", "UserID", "userId")
	} else {
		rec.CounterpartyName = LookupString(raw, "VendorName", "vendorName", "BusinessName", "businessName")
		rec.CounterpartyID = LookupString(raw, "VendorProfileID", "vendorProfileId", "VendorUserID")
	}

	rec.DisplayID = displayID(rec)
	return rec
}

func displayID(r Record) string {
	if r.RequestID != "" && (r.RawStatus.IsPreConfirmation() || r.BookingID == "") {
		return r.RequestID
	}
	if r.BookingID != "" {
		return r.BookingID
	}
	return r.PublicID
}

// NormalizeAll keeps input order.
func NormalizeAll(raws []map[string]any, role session.Role) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw, role))
	}
	return out
}
