package calendar_test

import (
	"testing"
	"time"

	"sapsdispatch/internal/calendar"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	day, err := calendar.Parse(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return day
}

func TestWalkSingleDay(t *testing.T) {
	day := mustParse(t, "2015-06-01")
	got := calendar.Days(day, day)
	if len(got) != 1 || !got[0].Equal(day) {
		t.Fatalf("expected exactly %s, got %v", day, got)
	}
}

func TestWalkIncludesEndDate(t *testing.T) {
	cases := []struct {
		init, end string
		want      int
	}{
		{"2015-06-01", "2015-06-03", 3},
		{"2015-12-30", "2016-01-02", 4},
		{"2016-02-28", "2016-03-01", 3},
		{"2015-02-28", "2015-03-01", 2},
		{"2015-06-03", "2015-06-01", 0},
	}
	for _, tc := range cases {
		init, end := mustParse(t, tc.init), mustParse(t, tc.end)
		days := calendar.Days(init, end)
		if len(days) != tc.want {
			t.Fatalf("%s..%s: got %d days, want %d", tc.init, tc.end, len(days), tc.want)
		}
		if calendar.Count(init, end) != tc.want {
			t.Fatalf("%s..%s: Count = %d, want %d", tc.init, tc.end, calendar.Count(init, end), tc.want)
		}
		if tc.want > 0 && !days[len(days)-1].Equal(end) {
			t.Fatalf("%s..%s: last day %s, want %s", tc.init, tc.end, days[len(days)-1], end)
		}
	}
}

func TestWalkNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	init := time.Date(2015, 6, 1, 22, 30, 0, 0, loc)
	days := calendar.Days(init, init)
	want := time.Date(2015, 6, 2, 0, 0, 0, 0, time.UTC)
	if len(days) != 1 || !days[0].Equal(want) {
		t.Fatalf("expected %s, got %v", want, days)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	init := mustParse(t, "2015-01-01")
	end := mustParse(t, "2015-12-31")
	seen := 0
	for range calendar.Walk(init, end) {
		seen++
		if seen == 5 {
			break
		}
	}
	if seen != 5 {
		t.Fatalf("expected to stop after 5 days, saw %d", seen)
	}
}

func TestParseRejectsBadDates(t *testing.T) {
	for _, bad := range []string{"", "2015-13-01", "01/06/2015", "2015-02-30"} {
		if _, err := calendar.Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
