// Package format renders durations and timestamps for the board.
package format

import (
	"fmt"
	"strings"
	"time"
)

const NoTimeTracked = "No time tracked"

// Elapsed renders d as zero-padded HH:MM:SS, floored to the second.
func Elapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// ElapsedMillis is Elapsed for a millisecond count.
func ElapsedMillis(ms int64) string {
	return Elapsed(time.Duration(ms) * time.Millisecond)
}

// Human renders d as "1 hour 5 minutes 3 seconds", skipping zero units.
func Human(d time.Duration) string {
	if d <= 0 {
		return NoTimeTracked
	}

	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, plural(seconds, "second"))
	}

	return strings.Join(parts, " ")
}

// HumanMillis is Human for an optional millisecond count.
func HumanMillis(ms *int64) string {
	if ms == nil {
		return NoTimeTracked
	}
	return Human(time.Duration(*ms) * time.Millisecond)
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
