package booking

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Tab is a list filter: "all" or one of the categories.
type Tab string

const TabAll Tab = "all"

// ParseTab accepts the category names plus the labels the dashboards historically used
// for the upcoming bucket ("accepted" on the client side, "approved" on the vendor side).
func ParseTab(s string) (Tab, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", string(TabAll):
		return TabAll, nil
	case "accepted", "approved":
		return Tab(CategoryUpcoming), nil
	default:
		if Category(v).Valid() {
			return Tab(v), nil
		}
		return "", fmt.Errorf("unknown tab: %s", s)
	}
}

type SortKey string

const (
	SortEventDate        SortKey = "eventDate"
	SortRequestedOn      SortKey = "requestedOn"
	SortCounterpartyName SortKey = "counterpartyName"
)

func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "eventdate", "date":
		return SortEventDate, nil
	case "requestedon", "created", "createdat":
		return SortRequestedOn, nil
	case "counterpartyname", "name", "clientname", "vendorname":
		return SortCounterpartyName, nil
	default:
		return "", fmt.Errorf("unknown sort key: %s", s)
	}
}

// Filter keeps the views in tab, preserving order. TabAll is the identity.
func Filter(views []View, tab Tab) []View {
	if tab == TabAll || tab == "" {
		return slices.Clone(views)
	}
	out := make([]View, 0, len(views))
	for _, v := range views {
		if Tab(v.Classification.Category) == tab {
			out = append(out, v)
		}
	}
	return out
}

// Sort orders a copy of views. Dates sort newest first with missing dates as the epoch;
// names sort A-Z ignoring case with missing names first. Ties keep their input order.
func Sort(views []View, key SortKey) []View {
	out := slices.Clone(views)
	switch key {
	case SortRequestedOn:
		slices.SortStableFunc(out, func(a, b View) int {
			return cmp.Compare(unixOrZero(b.Record.RequestedOn), unixOrZero(a.Record.RequestedOn))
		})
	case SortCounterpartyName:
		slices.SortStableFunc(out, func(a, b View) int {
			return cmp.Compare(strings.ToLower(a.Record.CounterpartyName), strings.ToLower(b.Record.CounterpartyName))
		})
	default:
		slices.SortStableFunc(out, func(a, b View) int {
			return cmp.Compare(unixOrZero(b.Record.EventDate), unixOrZero(a.Record.EventDate))
		})
	}
	return out
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

// Counts tallies views per tab for tab badges.
func Counts(views []View) map[Tab]int {
	out := map[Tab]int{TabAll: len(views)}
	for _, c := range []Category{CategoryPending, CategoryUpcoming, CategoryCompleted, CategoryCancelled, CategoryDeclined, CategoryExpired} {
		out[Tab(c)] = 0
	}
	for _, v := range views {
		out[Tab(v.Classification.Category)]++
	}
	return out
}
