package engine

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/tartampluch/birthdayd/internal/config"
)

// ErrRejected marks a birthday value no candidate format could parse.
// Callers skip the affected user silently; this is never surfaced upward.
var ErrRejected = errors.New(config.ErrDateParse)

// canonicalWithTime matches the canonical form optionally followed by a
// time-of-day component, as stored by profile plugins that persist datetimes.
var canonicalWithTime = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})([ T]\d{2}:\d{2}:\d{2})?$`)

// formatTokens maps display-style format notation (the form stored in field
// metadata, e.g. "DD/MM/YYYY") to Go reference layouts. The time-of-day token
// is listed first so its MM is not consumed by the month token.
var formatTokens = strings.NewReplacer(
	"HH:MM:SS", "15:04:05",
	"YYYY", "2006",
	"MM", "01",
	"DD", "02",
)

// dateOnlyLayouts are the common date-only layouts that gain a datetime
// variant during fallback, mirroring how profile plugins append " HH:MM:SS"
// when persisting date fields.
var dateOnlyLayouts = map[string]bool{
	"2006-01-02": true,
	"02/01/2006": true,
	"01/02/2006": true,
}

// Normalizer resolves raw, inconsistently formatted birthday values into
// canonical calendar dates.
type Normalizer struct {
	Clock Clock
}

// Normalize resolves a raw stored value into a canonical birth date at
// midnight UTC, or returns ErrRejected. The configured format of the source
// field is tried first, then a fixed fallback list of regional layouts, each
// under a strict reformat-and-compare round trip. Accepted years fall in
// [1900, current year].
func (n *Normalizer) Normalize(raw RawValue, configuredFormat string) (time.Time, error) {
	value, err := raw.extract()
	if err != nil {
		return time.Time{}, ErrRejected
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrRejected
	}

	currentYear := n.Clock.Now().Year()

	// Fast path: canonical storage form, optionally carrying a time component.
	// Only the date portion is validated and kept.
	if m := canonicalWithTime.FindStringSubmatch(value); m != nil {
		if t, err := time.ParseInLocation(config.DateFormatCanonical, m[1], time.UTC); err == nil {
			if yearInRange(t.Year(), currentYear) {
				return t, nil
			}
		}
		return time.Time{}, ErrRejected
	}

	for _, layout := range candidateLayouts(configuredFormat) {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err != nil {
			continue
		}
		// Strict round trip rejects values that only parsed by accident
		// (lenient digit matching, normalized out-of-range days).
		if t.Format(layout) != value {
			continue
		}
		if !yearInRange(t.Year(), currentYear) {
			continue
		}
		return midnightUTC(t), nil
	}

	// Last resort: loose parse against general date/time layouts.
	for _, layout := range config.FreeFormDateFormats {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err != nil {
			continue
		}
		if yearInRange(t.Year(), currentYear) {
			return midnightUTC(t), nil
		}
	}

	slog.Debug(config.MsgSkippedDate,
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyValue, value,
	)
	return time.Time{}, ErrRejected
}

// candidateLayouts builds the ordered, deduplicated parse attempt list:
// the configured layout, its datetime variant when it is a common date-only
// form, then the fixed regional fallbacks.
func candidateLayouts(configuredFormat string) []string {
	var layouts []string

	if configuredFormat != "" {
		layout := LayoutFor(configuredFormat)
		layouts = append(layouts, layout)
		if dateOnlyLayouts[layout] {
			layouts = append(layouts, layout+" 15:04:05")
		}
	}

	layouts = append(layouts, config.FallbackDateFormats...)

	seen := make(map[string]bool, len(layouts))
	deduped := layouts[:0]
	for _, l := range layouts {
		if seen[l] {
			continue
		}
		seen[l] = true
		deduped = append(deduped, l)
	}
	return deduped
}

// LayoutFor converts a display-style format string ("DD/MM/YYYY") into a Go
// reference layout. Strings already in layout form pass through unchanged.
func LayoutFor(format string) string {
	return formatTokens.Replace(format)
}

// CanonicalString renders a birth date in the canonical YYYY-MM-DD form.
func CanonicalString(t time.Time) string {
	return t.Format(config.DateFormatCanonical)
}

func yearInRange(year, currentYear int) bool {
	return year >= config.MinBirthYear && year <= currentYear
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
