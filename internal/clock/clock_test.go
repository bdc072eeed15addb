// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"strings"
	"testing"
	"time"
)

func TestSystemNowFormat(t *testing.T) {
	ts := System{}.Now()

	parsed, err := time.Parse(LayoutISOMillis, ts)
	if err != nil {
		t.Fatalf("expected canonical layout, got %q: %v", ts, err)
	}
	if parsed.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", parsed.Location())
	}
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected Z suffix, got %q", ts)
	}
	if len(ts) != len("2006-01-02T15:04:05.000Z") {
		t.Fatalf("expected fixed-width millisecond timestamp, got %q", ts)
	}
}

func TestSystemNowIsRFC3339(t *testing.T) {
	ts := System{}.Now()
	if !Valid(ts) {
		t.Fatalf("expected stamped timestamp to validate, got %q", ts)
	}
}

func TestValid(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{in: "2026-08-23T10:00:00Z", want: true},
		{in: "2026-08-23T10:00:00.123Z", want: true},
		{in: "2026-08-23T10:00:00+02:00", want: true},
		{in: "2026-08-23", want: false},
		{in: "yesterday", want: false},
		{in: "", want: false},
	}

	for _, tc := range cases {
		if got := Valid(tc.in); got != tc.want {
			t.Fatalf("Valid(%q): expected %v got %v", tc.in, tc.want, got)
		}
	}
}

func TestTimestampsSortLexicographically(t *testing.T) {
	early := time.Date(2026, 8, 23, 9, 59, 59, 999e6, time.UTC).Format(LayoutISOMillis)
	late := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC).Format(LayoutISOMillis)

	if !(early < late) {
		t.Fatalf("expected %q < %q as text", early, late)
	}
}
