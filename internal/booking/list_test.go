package booking

import (
	"strings"
	"testing"

	"bookingdesk/pkg/session"
)

func namedViews(names ...string) []View {
	out := make([]View, 0, len(names))
	for i, n := range names {
		raw := map[string]any{"BookingID": string(rune('a' + i)), "ClientName": n, "Status": "confirmed", "EventDate": "2999-01-01"}
		out = append(out, view(raw, session.RoleVendor))
	}
	return out
}

func ids(views []View) string {
	s := ""
	for _, v := range views {
		s += v.Record.BookingID
	}
	return s
}

func TestParseTab_Aliases(t *testing.T) {
	cases := map[string]Tab{
		"":          TabAll,
		"all":       TabAll,
		"accepted":  Tab(CategoryUpcoming),
		"Approved":  Tab(CategoryUpcoming),
		"upcoming":  Tab(CategoryUpcoming),
		"cancelled": Tab(CategoryCancelled),
	}
	for in, want := range cases {
		got, err := ParseTab(in)
		if err != nil || got != want {
			t.Fatalf("ParseTab(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTab("archive"); err == nil {
		t.Fatalf("expected error for unknown tab")
	}
}

func TestFilter(t *testing.T) {
	views := []View{
		view(map[string]any{"BookingID": "a", "Status": "pending", "EventDate": "2999-01-01"}, session.RoleClient),
		view(map[string]any{"BookingID": "b", "Status": "confirmed", "EventDate": "2999-01-01"}, session.RoleClient),
		view(map[string]any{"BookingID": "c", "Status": "cancelled"}, session.RoleClient),
		view(map[string]any{"BookingID": "d", "Status": "approved", "EventDate": "2999-02-01"}, session.RoleClient),
	}
	if got := ids(Filter(views, TabAll)); got != "abcd" {
		t.Fatalf("all should be identity, got %q", got)
	}
	if got := ids(Filter(views, Tab(CategoryUpcoming))); got != "bd" {
		t.Fatalf("expected bd, got %q", got)
	}
	if got := ids(Filter(views, Tab(CategoryDeclined))); got != "" {
		t.Fatalf("expected none, got %q", got)
	}

	counts := Counts(views)
	if counts[TabAll] != 4 || counts[Tab(CategoryUpcoming)] != 2 || counts[Tab(CategoryExpired)] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestSort_DatesDescendingMissingLast(t *testing.T) {
	views := []View{
		view(map[string]any{"BookingID": "a", "EventDate": "2026-01-01", "CreatedAt": "2025-12-01"}, session.RoleClient),
		view(map[string]any{"BookingID": "b"}, session.RoleClient),
		view(map[string]any{"BookingID": "c", "EventDate": "2026-03-01", "CreatedAt": "2025-10-01"}, session.RoleClient),
		view(map[string]any{"BookingID": "d", "EventDate": "2026-02-01"}, session.RoleClient),
	}
	if got := ids(Sort(views, SortEventDate)); got != "cdab" {
		t.Fatalf("expected cdab, got %q", got)
	}
	if got := ids(Sort(views, SortRequestedOn)); got != "acbd" {
		t.Fatalf("expected acbd, got %q", got)
	}
	if ids(views) != "abcd" {
		t.Fatalf("Sort must not reorder its input")
	}
}

func TestSort_NameAscendingCaseInsensitiveStable(t *testing.T) {
	views := namedViews("bob", "", "Alice", "alice", "Bob", "carol")
	got := ids(Sort(views, SortCounterpartyName))
	// ties keep input order: "Alice"(c) before "alice"(d), "bob"(a) before "Bob"(e)
	if got != "bcdaef" {
		t.Fatalf("expected bcdaef, got %q", got)
	}
}

func TestSort_ReverseKeepsTieGroupOrder(t *testing.T) {
	views := namedViews("x", "Y", "x", "y", "z")
	asc := Sort(views, SortCounterpartyName)

	// Reverse group order but keep each tie group's internal order.
	var groups [][]View
	for _, v := range asc {
		n := len(groups)
		if n > 0 && strings.EqualFold(groups[n-1][0].Record.CounterpartyName, v.Record.CounterpartyName) {
			groups[n-1] = append(groups[n-1], v)
			continue
		}
		groups = append(groups, []View{v})
	}
	var desc []View
	for i := len(groups) - 1; i >= 0; i-- {
		desc = append(desc, groups[i]...)
	}
	if got := ids(desc); got != "ebdac" {
		t.Fatalf("expected ebdac, got %q", got)
	}
}

func TestBoard_ViewsIsACopy(t *testing.T) {
	b := NewBoard(func(r Record) View { return BuildView(r, session.RoleClient, testNow) }, namedViews("a", "b"))
	got := b.Views()
	got[0].Record.CounterpartyName = "changed"
	if v := b.Views(); v[0].Record.CounterpartyName != "a" {
		t.Fatalf("callers must not mutate the board, got %q", v[0].Record.CounterpartyName)
	}
}

func TestBoard_PatchAndRollback(t *testing.T) {
	b := NewBoard(func(r Record) View { return BuildView(r, session.RoleVendor, testNow) }, []View{
		view(map[string]any{"RequestID": "r-1", "Status": "pending", "EventDate": "2999-01-01"}, session.RoleVendor),
	})

	patched, rollback, ok := b.Patch("r-1", func(r *Record) { r.RawStatus = StatusApproved })
	if !ok {
		t.Fatalf("expected record to be found")
	}
	if patched.Classification.Category != CategoryUpcoming {
		t.Fatalf("patched view should be reclassified, got %s", patched.Classification.Category)
	}
	if v, _ := b.Find("request:r-1"); v.Record.RawStatus != StatusApproved {
		t.Fatalf("board should hold the patched record")
	}

	rollback()
	if v, _ := b.Find("r-1"); v.Record.RawStatus != StatusPending || v.Classification.Category != CategoryPending {
		t.Fatalf("rollback should restore the original view, got %+v", v.Record)
	}

	if _, _, ok := b.Patch("missing", func(*Record) {}); ok {
		t.Fatalf("missing id should not patch")
	}
}

func TestTransitions(t *testing.T) {
	if !CanTransition(StatusPending, StatusApproved) || !CanTransition(StatusConfirmed, StatusCancelledByClient) {
		t.Fatalf("expected allowed transitions")
	}
	if CanTransition(StatusCompleted, StatusCancelledByVendor) || CanTransition(StatusDeclined, StatusApproved) {
		t.Fatalf("terminal statuses have no exits")
	}
	if next, _ := NextStatus(ActionCancel, session.RoleVendor); next != StatusCancelledByVendor {
		t.Fatalf("expected cancelled_by_vendor, got %s", next)
	}
	if next, _ := NextStatus(ActionCancel, session.RoleClient); next != StatusCancelledByClient {
		t.Fatalf("expected cancelled_by_client, got %s", next)
	}
	if _, ok := NextStatus(ActionMessage, session.RoleClient); ok {
		t.Fatalf("message does not change status")
	}
}
