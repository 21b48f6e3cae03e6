package util

import (
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "zero", duration: 0, expected: "0 seconds"},
		{name: "seconds only", duration: 45 * time.Second, expected: "45 seconds"},
		{name: "rounded up to a minute", duration: 59*time.Second + 500*time.Millisecond, expected: "1 minute"},
		{name: "reset token lifetime", duration: 30 * time.Minute, expected: "30 minutes"},
		{name: "hour and minutes", duration: time.Hour + 30*time.Minute, expected: "1 hour 30 minutes"},
		{name: "every part", duration: 2*time.Hour + time.Minute + 5*time.Second, expected: "2 hours 1 minute 5 seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := HumanizeDuration(tt.duration); got != tt.expected {
				t.Fatalf("HumanizeDuration(%s) = %s, want %s", tt.duration, got, tt.expected)
			}
		})
	}
}
