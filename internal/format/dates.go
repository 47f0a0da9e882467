package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// DueStatus describes how close a due date is.
type DueStatus struct {
	Text    string `json:"text"`
	Overdue bool   `json:"overdue"`
	Urgent  bool   `json:"urgent"`
}

const dueLayout = "Jan 2, 3:04 PM"

// DueDate classifies due relative to now. Day boundaries are taken in now's
// location.
func DueDate(due, now time.Time) DueStatus {
	due = due.In(now.Location())
	label := due.Format(dueLayout)

	diff := due.Sub(now)
	if diff < 0 {
		return DueStatus{Text: "Overdue: " + label, Overdue: true}
	}

	days := calendarDays(now, due)
	hours := int(diff / time.Hour)

	switch {
	case days == 0:
		return DueStatus{Text: "Due today: " + label, Urgent: true}
	case days == 1:
		return DueStatus{Text: "Due tomorrow: " + label, Urgent: true}
	case hours < 48:
		return DueStatus{Text: fmt.Sprintf("Due in %dh: %s", hours, label), Urgent: true}
	}
	return DueStatus{Text: "Due: " + label}
}

func calendarDays(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// Timestamp renders t as "Monday, Jan 2, 2006 at 3:04 PM".
func Timestamp(t time.Time) string {
	return t.Format("Monday, Jan 2, 2006 at 3:04 PM")
}

// Relative renders t against now, e.g. "3 hours ago".
func Relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}
