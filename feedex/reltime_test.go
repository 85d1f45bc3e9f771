package feedex

import (
	"testing"
	"time"
)

func TestParsePublishedAtRelative(t *testing.T) {
	now := time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"3d", now.Add(-3 * 24 * time.Hour)},
		{"16m", now.Add(-16 * time.Minute)},
		{"5h", now.Add(-5 * time.Hour)},
		{"2 wk", now.Add(-14 * 24 * time.Hour)},
		{"1 month ago", now.Add(-30 * 24 * time.Hour)},
		{"2 yr", now.Add(-2 * 365 * 24 * time.Hour)},
		{"3d • Edited • Visible to anyone", now.Add(-3 * 24 * time.Hour)},
		{"5 ч", now.Add(-5 * time.Hour)},
		{"2 недели назад", now.Add(-14 * 24 * time.Hour)},
		{"3 мес.", now.Add(-90 * 24 * time.Hour)},
	}
	for _, tt := range tests {
		got, ok := ParsePublishedAt(tt.raw, now)
		if !ok {
			t.Errorf("ParsePublishedAt(%q) not recognised", tt.raw)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParsePublishedAt(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParsePublishedAtAbsolute(t *testing.T) {
	now := time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2026-01-05", time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)},
		{"2026-01-05T08:30:00Z", time.Date(2026, time.January, 5, 8, 30, 0, 0, time.UTC)},
		{"Jan 2, 2026", time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{"7 фев 2026", time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC)},
		{"7 февраля 2026", time.Date(2026, time.February, 7, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, ok := ParsePublishedAt(tt.raw, now)
		if !ok {
			t.Errorf("ParsePublishedAt(%q) not recognised", tt.raw)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParsePublishedAt(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParsePublishedAtRejects(t *testing.T) {
	now := time.Now()
	for _, raw := range []string{"", "yesterday", "0d", "3 parsecs", "Public"} {
		if _, ok := ParsePublishedAt(raw, now); ok {
			t.Errorf("ParsePublishedAt(%q) unexpectedly parsed", raw)
		}
	}
}
