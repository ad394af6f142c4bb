package service

import (
	"testing"
	"time"

	"BroadcastSync/internal/model"
)

func TestNormalizeStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want model.EventStatus
	}{
		{"다시보기", model.EventEnded},
		{"종료", model.EventEnded},
		{"진행중", model.EventOngoing},
		{"방송중", model.EventOngoing},
		{"LIVE", model.EventOngoing},
		{"라이브 다시보기", model.EventEnded}, // 复合文案：回放优先
		{"예정", model.EventUpcoming},
		{"  upcoming  ", model.EventUpcoming},
		{"", model.EventUnknown},
		{"알수없는상태", model.EventUnknown},
	}
	for _, c := range cases {
		if got := NormalizeStatus(c.raw); got != c.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want model.EventType
	}{
		{"live", model.TypeLive},
		{"라이브", model.TypeLive},
		{"생방송", model.TypeLive},
		{"replay", model.TypeReplay},
		{"다시보기", model.TypeReplay},
		{"VOD", model.TypeReplay},
		{"쇼츠", model.TypeUnknown},
		{"bridge", model.TypeUnknown},
		{"", model.TypeUnknown},
	}
	for _, c := range cases {
		if got := NormalizeType(c.raw); got != c.want {
			t.Fatalf("NormalizeType(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestFilterCandidatesByType(t *testing.T) {
	t.Parallel()

	candidates := []model.BroadcastCandidate{
		{ExternalID: "1", EventType: "live"},
		{ExternalID: "2", EventType: "쇼츠"},
		{ExternalID: "3", EventType: "다시보기"},
		{ExternalID: "4", EventType: ""},
	}
	kept := FilterCandidatesByType(candidates)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept candidates, got %d", len(kept))
	}
	if kept[0].ExternalID != "1" || kept[1].ExternalID != "3" {
		t.Fatalf("unexpected kept candidates: %+v", kept)
	}
}

func TestParseEventDate(t *testing.T) {
	t.Parallel()

	got := ParseEventDate("2025-03-01T18:00:00Z")
	if got == nil || !got.Equal(time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected parse result: %v", got)
	}

	if got := ParseEventDate("2025.03.01"); got == nil || got.Year() != 2025 || got.Month() != 3 {
		t.Fatalf("unexpected parse result: %v", got)
	}

	if got := ParseEventDate("언젠가"); got != nil {
		t.Fatalf("expected nil for unparseable input, got %v", got)
	}
	if got := ParseEventDate(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
