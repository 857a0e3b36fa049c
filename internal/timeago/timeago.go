// Package timeago parses the relative publication times shown on the listing page.
package timeago

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNotMatched is returned when the text carries no "N unit ago" phrase.
var ErrNotMatched = errors.New("relative time not matched")

// FaultError reports text that matched the pattern but could not be converted.
type FaultError struct {
	Text   string
	Reason string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("parse relative time %q: %s", e.Text, e.Reason)
}

// The "ago" suffix is matched verbatim, units case-insensitively.
var relativeRe = regexp.MustCompile(`(\d+)\s*((?i:minutes?|hours?|days?|weeks?))\s*ago`)

// Parse converts text such as "5 minutes ago" into a duration.
func Parse(text string) (time.Duration, error) {
	m := relativeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, ErrNotMatched
	}

	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, &FaultError{Text: text, Reason: "invalid amount"}
	}

	unit, err := unitDuration(m[2])
	if err != nil {
		return 0, &FaultError{Text: text, Reason: err.Error()}
	}

	if amount > int64(maxDuration/unit) {
		return 0, &FaultError{Text: text, Reason: "duration overflows"}
	}
	return time.Duration(amount) * unit, nil
}

const maxDuration = time.Duration(1<<63 - 1)

func unitDuration(unit string) (time.Duration, error) {
	switch strings.ToLower(unit) {
	case "minute", "minutes":
		return time.Minute, nil
	case "hour", "hours":
		return time.Hour, nil
	case "day", "days":
		return 24 * time.Hour, nil
	case "week", "weeks":
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
}
