package feedex

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// absoluteLayouts are tried in order before any relative parsing.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// relUnits maps relative-time unit words to their fixed duration.
// Weeks are 7 days, months 30, years 365: the page only ever shows
// coarse buckets, so calendar math would be false precision.
var relUnits = []struct {
	word string
	dur  time.Duration
}{
	{"months", 30 * 24 * time.Hour},
	{"month", 30 * 24 * time.Hour},
	{"mos", 30 * 24 * time.Hour},
	{"mo", 30 * 24 * time.Hour},
	{"minutes", time.Minute},
	{"minute", time.Minute},
	{"mins", time.Minute},
	{"min", time.Minute},
	{"m", time.Minute},
	{"hours", time.Hour},
	{"hour", time.Hour},
	{"hrs", time.Hour},
	{"hr", time.Hour},
	{"h", time.Hour},
	{"days", 24 * time.Hour},
	{"day", 24 * time.Hour},
	{"d", 24 * time.Hour},
	{"weeks", 7 * 24 * time.Hour},
	{"week", 7 * 24 * time.Hour},
	{"wks", 7 * 24 * time.Hour},
	{"wk", 7 * 24 * time.Hour},
	{"w", 7 * 24 * time.Hour},
	{"years", 365 * 24 * time.Hour},
	{"year", 365 * 24 * time.Hour},
	{"yrs", 365 * 24 * time.Hour},
	{"yr", 365 * 24 * time.Hour},
	{"y", 365 * 24 * time.Hour},

	{"минут", time.Minute},
	{"минуты", time.Minute},
	{"минуту", time.Minute},
	{"мин", time.Minute},
	{"часов", time.Hour},
	{"часа", time.Hour},
	{"час", time.Hour},
	{"ч", time.Hour},
	{"дней", 24 * time.Hour},
	{"дня", 24 * time.Hour},
	{"день", 24 * time.Hour},
	{"дн", 24 * time.Hour},
	{"д", 24 * time.Hour},
	{"недель", 7 * 24 * time.Hour},
	{"недели", 7 * 24 * time.Hour},
	{"неделю", 7 * 24 * time.Hour},
	{"нед", 7 * 24 * time.Hour},
	{"месяцев", 30 * 24 * time.Hour},
	{"месяца", 30 * 24 * time.Hour},
	{"месяц", 30 * 24 * time.Hour},
	{"мес", 30 * 24 * time.Hour},
	{"лет", 365 * 24 * time.Hour},
	{"года", 365 * 24 * time.Hour},
	{"год", 365 * 24 * time.Hour},
	{"г", 365 * 24 * time.Hour},
}

// ruMonths translates abbreviated Russian month names for absolute
// dates like "7 фев 2026".
var ruMonths = map[string]time.Month{
	"янв": time.January, "фев": time.February, "мар": time.March,
	"апр": time.April, "мая": time.May, "май": time.May,
	"июн": time.June, "июл": time.July, "авг": time.August,
	"сен": time.September, "окт": time.October, "ноя": time.November,
	"дек": time.December,
}

var (
	relPattern     = regexp.MustCompile(`(?i)^(\d+)\s*([\p{L}]+)\.?`)
	ruDatePattern  = regexp.MustCompile(`(?i)^(\d{1,2})\s+([\p{L}]+)\.?\s+(\d{4})$`)
	relNoiseWords  = []string{"ago", "назад", "edited", "изменено", "•", "·"}
	visibilityTail = regexp.MustCompile(`(?i)\s*[•·].*$`)
)

// ParsePublishedAt turns a raw publish stamp into an absolute instant.
// Absolute dates are honoured as-is; otherwise a "<n> <unit>" relative
// token (English or Russian) is subtracted from now. The second return
// is false when nothing was recognised.
func ParsePublishedAt(raw string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	// Stamps often carry a visibility marker ("3d • Edited • Public").
	s = visibilityTail.ReplaceAllString(s, "")
	for _, w := range relNoiseWords {
		s = strings.TrimSpace(strings.TrimSuffix(s, w))
	}
	s = strings.TrimSpace(s)

	for _, layout := range absoluteLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}

	if ts, ok := parseRussianDate(s); ok {
		return ts, true
	}

	return parseRelative(s, now)
}

func parseRelative(s string, now time.Time) (time.Time, bool) {
	m := relPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return time.Time{}, false
	}

	unit := strings.ToLower(m[2])
	for _, u := range relUnits {
		if unit == u.word {
			return now.Add(-time.Duration(n) * u.dur), true
		}
	}
	return time.Time{}, false
}

func parseRussianDate(s string) (time.Time, bool) {
	m := ruDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(m[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(m[3])
	if err != nil {
		return time.Time{}, false
	}

	name := strings.ToLower(m[2])
	if len(name) > 3 {
		// Truncate full month names to the three-rune stem.
		runes := []rune(name)
		if len(runes) > 3 {
			name = string(runes[:3])
		}
	}
	month, ok := ruMonths[name]
	if !ok {
		return time.Time{}, false
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}
