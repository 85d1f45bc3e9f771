package feedex

import "testing"

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"1,234", 1234, true},
		{"12 345", 12345, true},
		{"1.234.567", 1234567, true},
		{"1.2K", 1200, true},
		{"1.5m", 1500000, true},
		{"3 тыс.", 3000, true},
		{"1,2 тыс.", 1200, true},
		{"2 млн", 2000000, true},
		{"7к", 7000, true},
		{"1.234,5", 1235, true},
		{"1 234", 1234, true},
		{"", 0, false},
		{"likes", 0, false},
		{"k", 0, false},
		{"тыс.", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCount(tt.raw)
		if ok != tt.ok {
			t.Errorf("ParseCount(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestParseCountRejectsWordSuffixCollision(t *testing.T) {
	// "spam" ends in m but has no digits; must not read as millions.
	if _, ok := ParseCount("spam"); ok {
		t.Fatal("parsed a bare word as a count")
	}
}
