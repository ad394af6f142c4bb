package service

import (
	"testing"
	"time"

	"BroadcastSync/internal/model"
)

func eventStartingAt(id string, start *time.Time) *model.Event {
	return &model.Event{ExternalID: id, StartDate: start}
}

func TestFilterByDateRange(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past8 := now.AddDate(0, 0, -8)
	future3 := now.AddDate(0, 0, 3)
	future20 := now.AddDate(0, 0, 20)

	events := []*model.Event{
		eventStartingAt("too-old", &past8),
		eventStartingAt("ok-future", &future3),
		eventStartingAt("too-far", &future20),
		eventStartingAt("no-date", nil),
	}

	// pastDays=7：8天前的被过滤
	kept := FilterByDateRange(events, now, 7, 14)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept events, got %d", len(kept))
	}
	if kept[0].ExternalID != "ok-future" || kept[1].ExternalID != "no-date" {
		t.Fatalf("unexpected kept events: %v, %v", kept[0].ExternalID, kept[1].ExternalID)
	}

	// pastDays=8：窗口边界上的保留
	kept = FilterByDateRange(events, now, 8, 14)
	if len(kept) != 3 {
		t.Fatalf("expected 3 kept events with pastDays=8, got %d", len(kept))
	}
	if kept[0].ExternalID != "too-old" {
		t.Fatalf("expected boundary event kept, got %v", kept[0].ExternalID)
	}
}

func TestFilterByDateRangeKeepsMissingDates(t *testing.T) {
	t.Parallel()

	now := time.Now()
	events := []*model.Event{eventStartingAt("a", nil), eventStartingAt("b", nil)}
	kept := FilterByDateRange(events, now, 1, 1)
	if len(kept) != 2 {
		t.Fatalf("expected missing-date events kept, got %d", len(kept))
	}
}
