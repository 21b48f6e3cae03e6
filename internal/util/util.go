// Package util holds small formatting helpers for messages sent to people.
package util

import (
	"fmt"
	"strings"
	"time"
)

// HumanizeDuration spells a duration out for emails, e.g. "1 hour 30 minutes" or "45 seconds".
// Durations are rounded to the second; zero parts are left out.
func HumanizeDuration(duration time.Duration) string {
	duration = duration.Round(time.Second)
	if duration <= 0 {
		return "0 seconds"
	}

	parts := make([]string, 0, 3)
	if h := int(duration / time.Hour); h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if m := int(duration/time.Minute) % 60; m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	if s := int(duration/time.Second) % 60; s > 0 {
		parts = append(parts, plural(s, "second"))
	}

	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}

	return fmt.Sprintf("%d %ss", n, unit)
}
