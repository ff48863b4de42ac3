package service

import (
	"errors"
	"testing"
	"time"
)

func mustMs(t *testing.T, value string) int64 {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts.UnixMilli()
}

func TestResolveRange_7d(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

	tr, err := ResolveRange("7d", "", "", now)
	if err != nil {
		t.Fatalf("ResolveRange error: %v", err)
	}

	if want := mustMs(t, "2024-03-11T00:00:00.000Z"); tr.EndMs != want {
		t.Fatalf("end = %d, want %d", tr.EndMs, want)
	}
	if want := mustMs(t, "2024-03-04T00:00:00.000Z"); tr.StartMs != want {
		t.Fatalf("start = %d, want %d", tr.StartMs, want)
	}
}

func TestResolveRange_30d(t *testing.T) {
	now := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	tr, err := ResolveRange("30d", "", "", now)
	if err != nil {
		t.Fatalf("ResolveRange error: %v", err)
	}

	if width := tr.EndMs - tr.StartMs; width != 30*24*time.Hour.Milliseconds() {
		t.Fatalf("width = %dms, want 30 days", width)
	}
}

func TestResolveRange_DefaultsTo7d(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tr, err := ResolveRange("", "", "", now)
	if err != nil {
		t.Fatalf("ResolveRange error: %v", err)
	}
	if width := tr.EndMs - tr.StartMs; width != 7*24*time.Hour.Milliseconds() {
		t.Fatalf("width = %dms, want 7 days", width)
	}
}

func TestResolveRange_IgnoresLocalTimezone(t *testing.T) {
	// 2024-03-10 23:00 in UTC-5 is already 2024-03-11 in UTC.
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2024, 3, 10, 23, 0, 0, 0, loc)

	tr, err := ResolveRange("7d", "", "", now)
	if err != nil {
		t.Fatalf("ResolveRange error: %v", err)
	}
	if want := mustMs(t, "2024-03-12T00:00:00.000Z"); tr.EndMs != want {
		t.Fatalf("end = %d, want %d", tr.EndMs, want)
	}
}

func TestResolveRange_CustomSingleDay(t *testing.T) {
	tr, err := ResolveRange("custom", "2024-01-01", "2024-01-01", time.Now())
	if err != nil {
		t.Fatalf("ResolveRange error: %v", err)
	}

	if want := mustMs(t, "2024-01-01T00:00:00.000Z"); tr.StartMs != want {
		t.Fatalf("start = %d, want %d", tr.StartMs, want)
	}
	if want := mustMs(t, "2024-01-01T23:59:59.999Z"); tr.EndMs != want {
		t.Fatalf("end = %d, want %d", tr.EndMs, want)
	}
}

func TestResolveRange_CustomMissingBounds(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "2024-01-31"},
		{"missing end", "2024-01-01", ""},
		{"unparseable start", "January 1st", "2024-01-31"},
		{"unparseable end", "2024-01-01", "31/01/2024"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveRange("custom", tc.start, tc.end, time.Now())
			if !errors.Is(err, ErrInvalidCustomRange) {
				t.Fatalf("expected ErrInvalidCustomRange, got %v", err)
			}
		})
	}
}
