package lifecycle

import (
	"errors"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"task-board.com/task-board/internal/constants"
	"task-board.com/task-board/internal/timer"
	model "task-board.com/task-board/pkg/models"
)

var (
	ErrTextRequired    = errors.New("task text is required")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidColumn   = errors.New("invalid column")
)

// Engine is the only writer of the session fields of a task: StartedAt,
// InProgressSince, TimeSpent, CompletedAt and TimerStartTime.
type Engine struct {
	timers *timer.Registry
	clock  clock.Clock
}

func NewEngine(timers *timer.Registry, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{timers: timers, clock: clk}
}

func (e *Engine) Timers() *timer.Registry {
	return e.timers
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

// Place applies the effects of a freshly created task entering its column.
func (e *Engine) Place(task *model.Task) {
	if task == nil {
		return
	}

	now := e.now()
	switch task.Column {
	case constants.ColumnInProgress:
		e.enterInProgress(task, now)
	case constants.ColumnDone:
		task.CompletedAt = &now
	}
}

// Move changes the task's column and settles its time bookkeeping. It
// reports false when the task already sits in the requested column.
func (e *Engine) Move(task *model.Task, to constants.Column) bool {
	if task == nil || !to.Valid() || task.Column == to {
		return false
	}

	now := e.now()
	from := task.Column

	if from == constants.ColumnInProgress {
		e.leaveInProgress(task, now)
	}
	if from == constants.ColumnDone {
		task.CompletedAt = nil
	}

	task.Column = to

	switch to {
	case constants.ColumnInProgress:
		e.enterInProgress(task, now)
	case constants.ColumnDone:
		task.CompletedAt = &now
	}

	return true
}

func (e *Engine) enterInProgress(task *model.Task, now time.Time) {
	if task.StartedAt == nil {
		started := now
		task.StartedAt = &started
	}

	since := now
	task.InProgressSince = &since

	adjusted := now.Add(-task.Accumulated())
	e.timers.Start(task.ID, adjusted)
	task.TimerStartTime = &adjusted
}

func (e *Engine) leaveInProgress(task *model.Task, now time.Time) {
	var session time.Duration

	if task.InProgressSince != nil {
		session = now.Sub(*task.InProgressSince)
		e.timers.Stop(task.ID)
	} else {
		// Registry starts are adjusted by the accumulated time, so the
		// session is whatever the registry saw beyond it.
		session = e.timers.Stop(task.ID) - task.Accumulated()
	}

	if session > 0 {
		task.TimeSpent += session.Milliseconds()
	}

	task.InProgressSince = nil
	task.TimerStartTime = nil
}

// Updates carries a field edit. Nil pointers leave the field untouched.
type Updates struct {
	Text         *string
	Description  *string
	Priority     *constants.Priority
	DueDate      *time.Time
	ClearDueDate bool
}

// Edit applies field updates and stamps LastEditedAt. Timer fields are never
// touched here.
func (e *Engine) Edit(task *model.Task, u Updates) error {
	if task == nil {
		return nil
	}

	if u.Text != nil && strings.TrimSpace(*u.Text) == "" {
		return ErrTextRequired
	}
	if u.Priority != nil && !u.Priority.Valid() {
		return ErrInvalidPriority
	}

	if u.Text != nil {
		task.Text = strings.TrimSpace(*u.Text)
	}
	if u.Description != nil {
		task.Description = *u.Description
	}
	if u.Priority != nil {
		task.Priority = *u.Priority
	}
	switch {
	case u.ClearDueDate:
		task.DueDate = nil
	case u.DueDate != nil:
		due := u.DueDate.UTC()
		task.DueDate = &due
	}

	now := e.now()
	task.LastEditedAt = &now
	return nil
}

// Reinitialize rebuilds the registry from the given records. Time that passed
// while nothing was tracking an in-progress task is credited through its
// InProgressSince. Running it twice in a row changes no TimeSpent.
func (e *Engine) Reinitialize(tasks []*model.Task) {
	e.timers.Clear()

	now := e.now()
	for _, task := range tasks {
		if task == nil || !task.IsInProgress() {
			continue
		}

		total := task.Accumulated()
		if task.InProgressSince != nil {
			total += now.Sub(*task.InProgressSince)
		} else {
			since := now
			task.InProgressSince = &since
		}

		if task.StartedAt == nil {
			started := *task.InProgressSince
			task.StartedAt = &started
		}

		adjusted := now.Add(-total)
		e.timers.Start(task.ID, adjusted)
		task.TimerStartTime = &adjusted
	}
}

// Forget drops any running session for id. Call it before deleting a task.
func (e *Engine) Forget(id string) {
	e.timers.Stop(id)
}

// Elapsed is the total tracked time for display: live when a session is
// running, otherwise the accumulated time.
func (e *Engine) Elapsed(task *model.Task) time.Duration {
	if task == nil {
		return 0
	}
	if e.timers.IsActive(task.ID) {
		return e.timers.Elapsed(task.ID)
	}
	return task.Accumulated()
}
