package feedex

import (
	"math"
	"strings"
)

// count suffixes in the two locales the source platform serves us.
// Keys are matched case-insensitively after trailing dots are stripped.
var countSuffixes = map[string]float64{
	"k":   1_000,
	"m":   1_000_000,
	"к":   1_000,
	"тыс": 1_000,
	"млн": 1_000_000,
}

// ParseCount parses a locale-ambiguous count token such as "1,234",
// "1.234,5", "2.5K" or "3 тыс." into an integer. The second return is
// false for empty or non-numeric input.
func ParseCount(raw string) (int64, bool) {
	s := strings.TrimSpace(stripSpaces(raw))
	if s == "" {
		return 0, false
	}

	s = strings.ToLower(s)

	mult := 1.0
	for suffix, m := range countSuffixes {
		trimmed, found := cutSuffixWord(s, suffix)
		if found {
			mult = m
			s = trimmed
			break
		}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	num, ok := parseSeparated(s)
	if !ok {
		return 0, false
	}

	return int64(math.Round(num * mult)), true
}

// stripSpaces removes regular, non-breaking and narrow non-breaking
// spaces used as digit groupers.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', ' ', ' ':
			return -1
		}
		return r
	}, s)
}

// cutSuffixWord strips a magnitude suffix, tolerating a trailing dot
// ("тыс."). Returns the remaining numeric part and whether it matched.
func cutSuffixWord(s, suffix string) (string, bool) {
	t := strings.TrimRight(s, ".")
	if strings.HasSuffix(t, suffix) {
		head := t[:len(t)-len(suffix)]
		// Reject bare suffixes and word collisions ("spam" ends in m
		// but has no digits in front).
		if head == "" || !strings.ContainsAny(head, "0123456789") {
			return s, false
		}
		return head, true
	}
	return s, false
}

// parseSeparated resolves the decimal-vs-thousands ambiguity of '.' and
// ','. When both appear, the later one is the decimal separator. A
// separator that repeats is always a grouper. A single separator
// followed by exactly three digits is read as a grouper ("1,234"),
// otherwise as a decimal point ("2,5").
func parseSeparated(s string) (float64, bool) {
	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	var decimal byte
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			decimal = ','
		} else {
			decimal = '.'
		}
	case lastComma >= 0:
		if isGrouper(s, ',') {
			decimal = 0
		} else {
			decimal = ','
		}
	case lastDot >= 0:
		if isGrouper(s, '.') {
			decimal = 0
		} else {
			decimal = '.'
		}
	}

	var intPart, fracPart strings.Builder
	inFrac := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			if inFrac {
				fracPart.WriteByte(c)
			} else {
				intPart.WriteByte(c)
			}
		case c == decimal && decimal != 0:
			if inFrac {
				return 0, false
			}
			inFrac = true
		case c == ',' || c == '.':
			// grouper, drop
		default:
			return 0, false
		}
	}

	if intPart.Len() == 0 {
		return 0, false
	}

	num := 0.0
	for i := 0; i < intPart.Len(); i++ {
		num = num*10 + float64(intPart.String()[i]-'0')
	}
	frac := 0.0
	scale := 0.1
	for i := 0; i < fracPart.Len(); i++ {
		frac += float64(fracPart.String()[i]-'0') * scale
		scale /= 10
	}
	return num + frac, true
}

// isGrouper reports whether sep is used as a thousands grouper in s:
// it repeats, or its single occurrence is followed by exactly three
// digits.
func isGrouper(s string, sep byte) bool {
	if strings.Count(s, string(sep)) > 1 {
		return true
	}
	idx := strings.LastIndexByte(s, sep)
	tail := s[idx+1:]
	if len(tail) != 3 {
		return false
	}
	for i := 0; i < len(tail); i++ {
		if tail[i] < '0' || tail[i] > '9' {
			return false
		}
	}
	return true
}
