package codes

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"hoyocodes/internal/components/assert"
	"hoyocodes/internal/components/telemetry"
)

const (
	report_resolver_parse_date = "resolver.parse-date"
)

var referenceMonths = []string{
	"january",
	"february",
	"march",
	"april",
	"may",
	"june",
	"july",
	"august",
	"september",
	"october",
	"november",
	"december",
}

func parseMonth(text string) (time.Month, bool) {
	text = strings.ToLower(strings.TrimSuffix(text, "."))
	if len(text) < 3 {
		return 0, false
	}
	for i, month := range referenceMonths {
		if strings.HasPrefix(month, text) {
			return time.January + time.Month(i), true
		}
	}
	return 0, false
}

var calendarDateRegex = regexp.MustCompile(`([A-Za-z]{3,9}\.?) +(\d{1,2})(?:st|nd|rd|th)?,? +(\d{4})`)

// ParseCalendarDate finds the first "<month> <day>, <year>" expression in text
// and returns midnight of that day in loc.
func ParseCalendarDate(text string, loc *time.Location) (time.Time, bool) {
	for _, match := range calendarDateRegex.FindAllStringSubmatch(text, -1) {
		month, ok := parseMonth(match[1])
		if !ok {
			continue
		}
		day, err := strconv.Atoi(match[2])
		if err != nil || day < 1 || day > 31 {
			continue
		}
		year, err := strconv.Atoi(match[3])
		if err != nil {
			continue
		}
		return time.Date(year, month, day, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

func isIndefinite(valid string) bool {
	valid = strings.TrimSpace(valid)
	if strings.HasPrefix(valid, "Unknown") {
		return true
	}
	return strings.HasPrefix(valid, "(") &&
		strings.Contains(strings.ToLower(valid), "indefinite")
}

// Resolver derives a Status from a parsed Duration.
type Resolver struct {
	tel telemetry.API
}

func NewResolver(tel telemetry.API) Resolver {
	assert.NotNil(tel)
	return Resolver{tel: telemetry.NewScopedAPI("codes", tel)}
}

// Resolve applies, first match wins:
//  1. valid is "(indefinite)" or "Unknown" -> indefinite
//  2. valid is a calendar date -> active if that day is today or later, else expired
//  3. valid is present but not a date -> unknown
//  4. only expired is present -> expired
//  5. otherwise -> unknown
func (r Resolver) Resolve(d Duration, now time.Time) Status {
	if d.Valid != nil {
		valid := *d.Valid
		if isIndefinite(valid) {
			return StatusIndefinite
		}
		date, ok := ParseCalendarDate(valid, now.Location())
		if !ok {
			r.tel.ReportWarning(report_resolver_parse_date, valid)
			return StatusUnknown
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if date.Before(today) {
			return StatusExpired
		}
		return StatusActive
	}
	if d.Expired != nil {
		return StatusExpired
	}
	return StatusUnknown
}

// Collapse maps a resolved status onto the two persisted statuses.
//
// indefinite is active. unknown is expired only when the raw duration text
// mentions expiry, active otherwise.
func Collapse(status Status, rawDuration string) Status {
	switch status {
	case StatusActive, StatusIndefinite:
		return StatusActive
	case StatusExpired:
		return StatusExpired
	}
	if strings.Contains(strings.ToLower(rawDuration), "expired") {
		return StatusExpired
	}
	return StatusActive
}
