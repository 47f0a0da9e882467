package model

import (
	"time"

	"task-board.com/task-board/internal/constants"
)

// Task is one card on the board. Optional timestamps are pointers and are
// serialised as explicit nulls so a stored record round-trips unchanged.
type Task struct {
	ID              string             `gorm:"primaryKey;size:36" json:"id"`
	Text            string             `gorm:"not null" json:"text"`
	Description     string             `gorm:"not null;default:''" json:"description"`
	Column          constants.Column   `gorm:"column:board_column;type:varchar(20);not null;index" json:"column"`
	Priority        constants.Priority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	DueDate         *time.Time         `json:"dueDate"`
	CreatedAt       time.Time          `gorm:"autoCreateTime:false" json:"createdAt"`
	LastEditedAt    *time.Time         `json:"lastEditedAt"`
	StartedAt       *time.Time         `json:"startedAt"`
	InProgressSince *time.Time         `json:"inProgressSince"`
	CompletedAt     *time.Time         `json:"completedAt"`
	TimeSpent       int64              `gorm:"not null;default:0" json:"timeSpent"` // milliseconds
	TimerStartTime  *time.Time         `json:"timerStartTime"`
	Version         uint               `gorm:"not null;default:1" json:"version"`
}

func (t *Task) IsInProgress() bool {
	return t.Column == constants.ColumnInProgress
}

// Accumulated is the time credited by finished sessions.
func (t *Task) Accumulated() time.Duration {
	return time.Duration(t.TimeSpent) * time.Millisecond
}

// Clone returns a deep copy; callers outside the board never share pointers
// with the collection.
func (t *Task) Clone() Task {
	c := *t
	c.DueDate = cloneTime(t.DueDate)
	c.LastEditedAt = cloneTime(t.LastEditedAt)
	c.StartedAt = cloneTime(t.StartedAt)
	c.InProgressSince = cloneTime(t.InProgressSince)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.TimerStartTime = cloneTime(t.TimerStartTime)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
