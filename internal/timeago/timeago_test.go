package timeago

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       time.Duration
		notMatched bool
		fault      bool
	}{
		{name: "minutes", text: "5 minutes ago", want: 5 * time.Minute},
		{name: "single minute", text: "1 minute ago", want: time.Minute},
		{name: "hour", text: "1 hour ago", want: time.Hour},
		{name: "hours", text: "3 hours ago", want: 3 * time.Hour},
		{name: "days", text: "2 days ago", want: 48 * time.Hour},
		{name: "weeks", text: "2 weeks ago", want: 14 * 24 * time.Hour},
		{name: "no space", text: "10minutes ago", want: 10 * time.Minute},
		{name: "uppercase unit", text: "7 Hours ago", want: 7 * time.Hour},
		{name: "surrounding text", text: "updated 59 minutes ago!", want: 59 * time.Minute},
		{name: "no timestamp", text: "no timestamp", notMatched: true},
		{name: "empty", text: "", notMatched: true},
		{name: "month unit", text: "2 months ago", notMatched: true},
		{name: "suffix case matters", text: "5 minutes AGO", notMatched: true},
		{name: "missing suffix", text: "5 minutes", notMatched: true},
		{name: "amount overflow", text: "99999999999999999999 minutes ago", fault: true},
		{name: "duration overflow", text: "999999999999 weeks ago", fault: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			switch {
			case tt.notMatched:
				if !errors.Is(err, ErrNotMatched) {
					t.Fatalf("expected ErrNotMatched, got %v", err)
				}
				return
			case tt.fault:
				var fe *FaultError
				if !errors.As(err, &fe) {
					t.Fatalf("expected *FaultError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestUnitDurationUnknown(t *testing.T) {
	if _, err := unitDuration("fortnight"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}
