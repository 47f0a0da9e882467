package model

import (
	"time"

	"task-board.com/task-board/internal/constants"
)

// Migrate upgrades a record loaded from storage to the current shape. It fills
// defaults for fields older records lack and repairs known inconsistencies.
// Migrate(Migrate(t, now), now) == Migrate(t, now) for any t.
func Migrate(t Task, now time.Time) Task {
	now = now.UTC()

	if !t.Priority.Valid() {
		t.Priority = constants.PriorityMedium
	}
	if !t.Column.Valid() {
		t.Column = constants.ColumnTodo
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.TimeSpent < 0 {
		t.TimeSpent = 0
	}
	if t.Version == 0 {
		t.Version = 1
	}

	t.DueDate = utc(t.DueDate)
	t.LastEditedAt = utc(t.LastEditedAt)
	t.StartedAt = utc(t.StartedAt)
	t.InProgressSince = utc(t.InProgressSince)
	t.CompletedAt = utc(t.CompletedAt)
	t.TimerStartTime = utc(t.TimerStartTime)

	if t.Column == constants.ColumnDone && t.CompletedAt == nil {
		completed := t.CreatedAt
		t.CompletedAt = &completed
	}

	// Session fields are only meaningful in progress.
	if t.Column != constants.ColumnInProgress {
		t.InProgressSince = nil
		t.TimerStartTime = nil
	}

	return t
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	if t.IsZero() {
		return nil
	}
	v := t.UTC()
	return &v
}
