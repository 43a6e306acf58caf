package notifications

import (
	"testing"
	"time"

	"github.com/avaldezm/marketbox-backend/pkg/enums"
	"github.com/avaldezm/marketbox-backend/pkg/pagination"
	"github.com/avaldezm/marketbox-backend/pkg/upstream"
	"github.com/google/uuid"
)

func sampleInbox() []upstream.Notification {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []upstream.Notification{
		{ID: "n1", Type: enums.NotificationTypeMessage, Title: "New message from carrier", Message: "Your driver sent a note", IsRead: false, Priority: enums.NotificationPriorityNormal, CreatedAt: base.Add(-3 * time.Hour)},
		{ID: "n2", Type: enums.NotificationTypeMatchUpdate, Title: "Match proposal", Message: "A courier accepted your request", IsRead: false, Priority: enums.NotificationPriorityHigh, CreatedAt: base.Add(-1 * time.Hour)},
		{ID: "n3", Type: enums.NotificationTypePaymentSuccess, Title: "Payment received", Message: "Order #42 paid", IsRead: true, Priority: enums.NotificationPriorityNormal, CreatedAt: base.Add(-2 * time.Hour)},
		{ID: "n4", Type: enums.NotificationTypeSystem, Title: "Maintenance window", Message: "Scheduled downtime", IsRead: true, Priority: enums.NotificationPriorityHigh, CreatedAt: base},
	}
}

func idsOf(list []upstream.Notification) []string {
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	return ids
}

func assertIDs(t *testing.T, got []upstream.Notification, want ...string) {
	t.Helper()
	gotIDs := idsOf(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, gotIDs)
		}
	}
}

func TestFilterUnreadReturnsExactSubsetNewestFirst(t *testing.T) {
	got := Filter(sampleInbox(), FilterQuery{ActiveFilter: "unread"})
	assertIDs(t, got, "n2", "n1")
	for _, n := range got {
		if n.IsRead {
			t.Fatalf("read notification %s leaked into unread filter", n.ID)
		}
	}
}

func TestFilterAllSortsNewestFirst(t *testing.T) {
	got := Filter(sampleInbox(), FilterQuery{})
	assertIDs(t, got, "n4", "n2", "n3", "n1")
}

func TestFilterImportantMatchesHighPriority(t *testing.T) {
	got := Filter(sampleInbox(), FilterQuery{ActiveFilter: "important"})
	assertIDs(t, got, "n4", "n2")
}

func TestFilterByTypeMatchesExactly(t *testing.T) {
	got := Filter(sampleInbox(), FilterQuery{ActiveFilter: "MATCH_UPDATE"})
	assertIDs(t, got, "n2")
}

func TestFilterSearchTermIsCaseInsensitiveOverTitleAndMessage(t *testing.T) {
	got := Filter(sampleInbox(), FilterQuery{SearchTerm: "PAYMENT"})
	assertIDs(t, got, "n3")

	got = Filter(sampleInbox(), FilterQuery{SearchTerm: "courier"})
	assertIDs(t, got, "n2")
}

func TestFilterComposesTextAndCategory(t *testing.T) {
	got := Filter(sampleInbox(), FilterQuery{SearchTerm: "message", ActiveFilter: "read"})
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", idsOf(got))
	}
}

func TestFilterUnknownCategoryMatchesNothing(t *testing.T) {
	got := Filter(sampleInbox(), FilterQuery{ActiveFilter: "bogus"})
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %v", idsOf(got))
	}
}

func TestSelectionToggleAndBulkOps(t *testing.T) {
	selection := NewSelection()
	selection.Toggle("n1")
	selection.Toggle("n2")
	selection.Toggle("n1")

	if selection.Has("n1") {
		t.Fatal("expected n1 toggled off")
	}
	if !selection.Has("n2") {
		t.Fatal("expected n2 selected")
	}

	selection.Add("n3", "n4")
	selection.Remove("n2")
	ids := selection.IDs()
	if len(ids) != 2 || ids[0] != "n3" || ids[1] != "n4" {
		t.Fatalf("unexpected selection %v", ids)
	}
}

func TestActionsForDispatch(t *testing.T) {
	got := ActionsFor(enums.NotificationTypeMatchUpdate)
	want := []Action{ActionAcceptAndPay, ActionView, ActionReject}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if got := ActionsFor(enums.NotificationTypeSystem); len(got) != 0 {
		t.Fatalf("expected no actions for SYSTEM, got %v", got)
	}
	if got := ActionsFor(enums.NotificationType("UNKNOWN")); got != nil {
		t.Fatalf("expected nil actions for unknown type, got %v", got)
	}
}

func pagedInbox() []upstream.Notification {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	list := make([]upstream.Notification, 0, 5)
	for i := 0; i < 5; i++ {
		list = append(list, upstream.Notification{
			ID:        uuid.NewString(),
			Type:      enums.NotificationTypeSystem,
			Title:     "entry",
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
		})
	}
	return list
}

func TestPageWalksListingViaCursor(t *testing.T) {
	list := pagedInbox()

	page, next := Page(list, nil, 2)
	assertIDs(t, page, list[0].ID, list[1].ID)
	if next == "" {
		t.Fatal("expected a next cursor")
	}

	cursor, err := pagination.ParseCursor(next)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	page, next = Page(list, cursor, 2)
	assertIDs(t, page, list[2].ID, list[3].ID)
	if next == "" {
		t.Fatal("expected a next cursor")
	}

	cursor, err = pagination.ParseCursor(next)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	page, next = Page(list, cursor, 2)
	assertIDs(t, page, list[4].ID)
	if next != "" {
		t.Fatalf("expected exhausted listing, got cursor %q", next)
	}
}

func TestPageDefaultLimitReturnsEverything(t *testing.T) {
	list := pagedInbox()
	page, next := Page(list, nil, 0)
	if len(page) != len(list) || next != "" {
		t.Fatalf("expected the whole listing, got %d entries cursor %q", len(page), next)
	}
}

func TestPageResumesPastDeletedCursorRow(t *testing.T) {
	list := pagedInbox()

	_, next := Page(list, nil, 2)
	cursor, err := pagination.ParseCursor(next)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}

	shrunk := append([]upstream.Notification{}, list[0])
	shrunk = append(shrunk, list[2:]...)

	page, _ := Page(shrunk, cursor, 2)
	assertIDs(t, page, list[2].ID, list[3].ID)
}
