package codes

import (
	"testing"
	"time"

	"hoyocodes/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

var utc8 = time.FixedZone("UTC+8", 8*60*60)

func TestParseCalendarDate(t *testing.T) {
	cases := []struct {
		text   string
		ok     bool
		expect time.Time
	}{
		{text: "July 1, 2099", ok: true, expect: time.Date(2099, time.July, 1, 0, 0, 0, 0, utc8)},
		{text: "Jan 1, 2021", ok: true, expect: time.Date(2021, time.January, 1, 0, 0, 0, 0, utc8)},
		{text: "Sept. 3rd, 2024", ok: true, expect: time.Date(2024, time.September, 3, 0, 0, 0, 0, utc8)},
		{text: "August 22nd 2024 (UTC+8)", ok: true, expect: time.Date(2024, time.August, 22, 0, 0, 0, 0, utc8)},
		{text: "until March 14, 2025 23:59", ok: true, expect: time.Date(2025, time.March, 14, 0, 0, 0, 0, utc8)},
		{text: "Unknown", ok: false},
		{text: "Foo 1, 2024", ok: false},
		{text: "June 40, 2024", ok: false},
	}

	for _, test := range cases {
		got, ok := ParseCalendarDate(test.text, utc8)
		require.Equal(t, test.ok, ok, test.text)
		if test.ok {
			require.True(t, test.expect.Equal(got), "%s: expected %v, got %v", test.text, test.expect, got)
		}
	}
}

func TestResolve(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, utc8)

	cases := []struct {
		name     string
		duration Duration
		expect   Status
	}{
		{
			name:     "indefinite",
			duration: Duration{Valid: str("(indefinite)")},
			expect:   StatusIndefinite,
		},
		{
			name:     "unknown prefix",
			duration: Duration{Valid: str("Unknown")},
			expect:   StatusIndefinite,
		},
		{
			name:     "future date",
			duration: Duration{Valid: str("July 1, 2099")},
			expect:   StatusActive,
		},
		{
			name:     "today is still active",
			duration: Duration{Valid: str("June 15, 2024")},
			expect:   StatusActive,
		},
		{
			name:     "past date",
			duration: Duration{Valid: str("June 14, 2024")},
			expect:   StatusExpired,
		},
		{
			name:     "unparseable date",
			duration: Duration{Valid: str("when the event ends")},
			expect:   StatusUnknown,
		},
		{
			name:     "expired without valid",
			duration: ParseDuration("Discovered: Jan 1, 2020 Expired: Jan 1, 2021"),
			expect:   StatusExpired,
		},
		{
			name:     "nothing",
			duration: Duration{Discovered: str("Jan 1, 2020")},
			expect:   StatusUnknown,
		},
	}

	resolver := NewResolver(telemetry.NewRecorder())
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			first := resolver.Resolve(test.duration, now)
			require.Equal(t, test.expect, first)
			require.Equal(t, first, resolver.Resolve(test.duration, now))
		})
	}
}

func TestResolveReportsUnparseableDate(t *testing.T) {
	rec := telemetry.NewRecorder()
	resolver := NewResolver(rec)

	resolver.Resolve(Duration{Valid: str("soon")}, time.Now())

	reports := rec.Find("warning", report_resolver_parse_date)
	require.Len(t, reports, 1)
	require.Equal(t, []any{"soon"}, reports[0].Params)
}

func TestCollapse(t *testing.T) {
	require.Equal(t, StatusActive, Collapse(StatusActive, ""))
	require.Equal(t, StatusExpired, Collapse(StatusExpired, ""))
	require.Equal(t, StatusActive, Collapse(StatusIndefinite, "Valid: (indefinite) Expired: never"))
	require.Equal(t, StatusActive, Collapse(StatusUnknown, "Valid: when the event ends"))
	require.Equal(t, StatusExpired, Collapse(StatusUnknown, "Valid: ??? (EXPIRED)"))
}
