package booking

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The backend has renamed fields several times (PascalCase, camelCase, snake_case). These
// helpers walk a fallback chain and never fail: a miss returns the zero value.

func lookup(raw map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

// LookupString returns the first present key rendered as a trimmed string. Numeric ids are
// rendered without exponent or trailing ".0".
func LookupString(raw map[string]any, keys ...string) string {
	v, ok := lookup(raw, keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// LookupBool accepts true, 1 and "1" as truthy. Everything else is false.
func LookupBool(raw map[string]any, keys ...string) bool {
	v, ok := lookup(raw, keys...)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		return t.String() == "1"
	case float64:
		return t == 1
	case int:
		return t == 1
	case int64:
		return t == 1
	case string:
		return strings.TrimSpace(t) == "1"
	default:
		return false
	}
}

// LookupDecimal parses numbers and numeric strings. Unparseable values are zero.
func LookupDecimal(raw map[string]any, keys ...string) decimal.Decimal {
	v, ok := lookup(raw, keys...)
	if !ok {
		return decimal.Zero
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "$"))
		s = strings.ReplaceAll(s, ",", "")
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LookupTime parses the first present key as a timestamp or a bare date (UTC midnight).
func LookupTime(raw map[string]any, keys ...string) *time.Time {
	v, ok := lookup(raw, keys...)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case string:
		return parseTime(t)
	default:
		return nil
	}
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// LookupMap returns a nested object, e.g. a stored amount breakdown.
func LookupMap(raw map[string]any, keys ...string) map[string]any {
	v, ok := lookup(raw, keys...)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}
