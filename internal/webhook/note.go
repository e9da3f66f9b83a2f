package webhook

import (
	"regexp"
	"strings"
)

var noteKVRe = regexp.MustCompile(`(?i)(?:^|[\s,;])([a-zA-Z0-9_]+)=([a-zA-Z0-9-]+)`)

// ParseKeyFromNote extracts a key=value token from a free-text description.
// Intents created before metadata was attached only carry the booking in their description.
//
// Example description:
//   "Deposit for booking_id=b-42 (Jane & Co)"
func ParseKeyFromNote(note string, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	matches := noteKVRe.FindAllStringSubmatch(note, -1)
	for _, m := range matches {
		if len(m) != 3 {
			continue
		}
		if strings.EqualFold(m[1], key) {
			return m[2]
		}
	}
	return ""
}

// bookingRef returns the timeline key an intent or charge belongs to. A bookingKey stamped by
// the pay flow wins so both sides write to one timeline; bare ids fall back to their prefix.
func bookingRef(metadata map[string]string, description string) string {
	if v := strings.TrimSpace(metadata["bookingKey"]); strings.HasPrefix(v, "booking:") || strings.HasPrefix(v, "request:") {
		return v
	}
	for _, k := range []string{"bookingId", "booking_id", "BookingID"} {
		if v := strings.TrimSpace(metadata[k]); v != "" {
			return "booking:" + v
		}
	}
	for _, k := range []string{"requestId", "request_id"} {
		if v := strings.TrimSpace(metadata[k]); v != "" {
			return "request:" + v
		}
	}
	if v := ParseKeyFromNote(description, "booking_id"); v != "" {
		return "booking:" + v
	}
	if v := ParseKeyFromNote(description, "request_id"); v != "" {
		return "request:" + v
	}
	return ""
}
