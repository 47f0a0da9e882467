package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"task-board.com/task-board/internal/constants"
	"task-board.com/task-board/internal/timer"
	model "task-board.com/task-board/pkg/models"
)

var t0 = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

func setupEngine(t *testing.T) (*Engine, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(t0)
	return NewEngine(timer.NewRegistry(mock), mock), mock
}

func newTask(id string, column constants.Column) *model.Task {
	return &model.Task{
		ID:        id,
		Text:      "task " + id,
		Column:    column,
		Priority:  constants.PriorityMedium,
		CreatedAt: t0,
		Version:   1,
	}
}

func TestMove_TodoInProgressTodoCreditsSession(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnTodo)

	if !e.Move(task, constants.ColumnInProgress) {
		t.Fatal("expected move to inprogress to apply")
	}
	if task.StartedAt == nil || !task.StartedAt.Equal(t0) {
		t.Errorf("expected startedAt %v, got %v", t0, task.StartedAt)
	}
	if task.InProgressSince == nil || !task.InProgressSince.Equal(t0) {
		t.Errorf("expected inProgressSince %v, got %v", t0, task.InProgressSince)
	}

	mock.Add(3 * time.Second)
	if got := e.Elapsed(task); got != 3*time.Second {
		t.Errorf("expected live elapsed 3s, got %v", got)
	}

	e.Move(task, constants.ColumnTodo)

	if task.TimeSpent != 3000 {
		t.Errorf("expected 3000ms, got %d", task.TimeSpent)
	}
	if task.InProgressSince != nil || task.TimerStartTime != nil {
		t.Error("expected session fields cleared after leaving inprogress")
	}
	if e.Timers().IsActive("a") {
		t.Error("expected no running session")
	}
	if !task.StartedAt.Equal(t0) {
		t.Errorf("expected startedAt to stay %v, got %v", t0, task.StartedAt)
	}
}

func TestMove_SameColumnIsNoop(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnTodo)
	e.Move(task, constants.ColumnInProgress)
	mock.Add(2 * time.Second)

	before := task.Clone()
	if e.Move(task, constants.ColumnInProgress) {
		t.Error("expected redundant move to report false")
	}
	if task.TimeSpent != before.TimeSpent || !task.InProgressSince.Equal(*before.InProgressSince) {
		t.Error("expected redundant move to change nothing")
	}
	if got := e.Elapsed(task); got != 2*time.Second {
		t.Errorf("expected timer to keep running at 2s, got %v", got)
	}
}

func TestMove_InvalidColumnRejected(t *testing.T) {
	e, _ := setupEngine(t)
	task := newTask("a", constants.ColumnTodo)

	if e.Move(task, "archive") {
		t.Error("expected invalid column to be rejected")
	}
	if task.Column != constants.ColumnTodo {
		t.Errorf("expected column unchanged, got %s", task.Column)
	}
}

func TestMove_ToDoneStampsCompletion(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnTodo)

	e.Move(task, constants.ColumnInProgress)
	mock.Add(3 * time.Second)
	e.Move(task, constants.ColumnDone)

	if task.TimeSpent != 3000 {
		t.Errorf("expected 3000ms, got %d", task.TimeSpent)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(t0.Add(3*time.Second)) {
		t.Errorf("expected completedAt at +3s, got %v", task.CompletedAt)
	}
}

func TestMove_ReopenCarriesAccumulatedTime(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnTodo)

	e.Move(task, constants.ColumnInProgress)
	mock.Add(3 * time.Second)
	e.Move(task, constants.ColumnDone)
	mock.Add(time.Hour)

	e.Move(task, constants.ColumnInProgress)
	if task.CompletedAt != nil {
		t.Errorf("expected completedAt cleared on reopen, got %v", task.CompletedAt)
	}
	if got := e.Elapsed(task); got != 3*time.Second {
		t.Errorf("expected elapsed to resume at 3s, got %v", got)
	}
	if task.TimerStartTime == nil || !task.TimerStartTime.Equal(mock.Now().Add(-3*time.Second)) {
		t.Errorf("expected adjusted start 3s in the past, got %v", task.TimerStartTime)
	}

	mock.Add(2 * time.Second)
	if got := e.Elapsed(task); got != 5*time.Second {
		t.Errorf("expected elapsed 5s, got %v", got)
	}

	e.Move(task, constants.ColumnDone)
	if task.TimeSpent != 5000 {
		t.Errorf("expected 5000ms, got %d", task.TimeSpent)
	}
	if !task.StartedAt.Equal(t0) {
		t.Errorf("expected first start %v kept, got %v", t0, task.StartedAt)
	}
}

func TestMove_LeavingDoneClearsCompletedAt(t *testing.T) {
	e, _ := setupEngine(t)
	task := newTask("a", constants.ColumnTodo)

	e.Move(task, constants.ColumnDone)
	if task.CompletedAt == nil {
		t.Fatal("expected completedAt set")
	}

	e.Move(task, constants.ColumnTodo)
	if task.CompletedAt != nil {
		t.Errorf("expected completedAt cleared, got %v", task.CompletedAt)
	}
	if task.StartedAt != nil {
		t.Errorf("expected task never started, got %v", task.StartedAt)
	}
}

func TestMove_MissingInProgressSinceFallsBackToRegistry(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnInProgress)
	task.TimeSpent = 2000

	e.Reinitialize([]*model.Task{task})
	task.InProgressSince = nil

	mock.Add(4 * time.Second)
	e.Move(task, constants.ColumnTodo)

	if task.TimeSpent != 6000 {
		t.Errorf("expected 6000ms, got %d", task.TimeSpent)
	}
}

func TestPlace_InProgressStartsSession(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnInProgress)

	e.Place(task)
	mock.Add(time.Second)

	if !e.Timers().IsActive("a") {
		t.Fatal("expected running session")
	}
	if got := e.Elapsed(task); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
}

func TestPlace_DoneStampsCompletion(t *testing.T) {
	e, _ := setupEngine(t)
	task := newTask("a", constants.ColumnDone)

	e.Place(task)

	if task.CompletedAt == nil || !task.CompletedAt.Equal(t0) {
		t.Errorf("expected completedAt %v, got %v", t0, task.CompletedAt)
	}
}

func TestReinitialize_CreditsUntrackedTime(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnInProgress)
	e.Place(task)

	// A fresh process finds the record five seconds later.
	mock.Add(5 * time.Second)
	fresh := NewEngine(timer.NewRegistry(mock), mock)
	fresh.Reinitialize([]*model.Task{task})

	if got := fresh.Elapsed(task); got != 5*time.Second {
		t.Errorf("expected 5s after reinit, got %v", got)
	}
	if task.TimeSpent != 0 {
		t.Errorf("expected reinit not to touch time spent, got %d", task.TimeSpent)
	}

	fresh.Reinitialize([]*model.Task{task})
	if got := fresh.Elapsed(task); got != 5*time.Second {
		t.Errorf("expected 5s after second reinit, got %v", got)
	}
	if task.TimeSpent != 0 {
		t.Errorf("expected second reinit not to touch time spent, got %d", task.TimeSpent)
	}

	fresh.Move(task, constants.ColumnDone)
	if task.TimeSpent != 5000 {
		t.Errorf("expected 5000ms, got %d", task.TimeSpent)
	}
}

func TestReinitialize_RepairsMissingFields(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnInProgress)
	task.TimeSpent = 1500
	todo := newTask("b", constants.ColumnTodo)

	e.Reinitialize([]*model.Task{task, todo, nil})

	if task.InProgressSince == nil || !task.InProgressSince.Equal(mock.Now()) {
		t.Errorf("expected inProgressSince now, got %v", task.InProgressSince)
	}
	if task.StartedAt == nil || !task.StartedAt.Equal(*task.InProgressSince) {
		t.Errorf("expected startedAt from inProgressSince, got %v", task.StartedAt)
	}
	if got := e.Elapsed(task); got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", got)
	}
	if e.Timers().IsActive("b") {
		t.Error("expected no session for a todo task")
	}
}

func TestReinitialize_DropsStaleSessions(t *testing.T) {
	e, _ := setupEngine(t)
	task := newTask("a", constants.ColumnInProgress)
	e.Place(task)

	e.Reinitialize(nil)

	if e.Timers().Len() != 0 {
		t.Errorf("expected empty registry, got %d", e.Timers().Len())
	}
}

func TestEdit_AppliesFieldsAndStampsEdit(t *testing.T) {
	e, mock := setupEngine(t)
	task := newTask("a", constants.ColumnInProgress)
	e.Place(task)
	mock.Add(time.Minute)

	text := "  rewrite parser  "
	desc := "handle nested blocks"
	prio := constants.PriorityHigh
	due := time.Date(2026, 1, 5, 17, 0, 0, 0, time.FixedZone("EST", -5*3600))

	err := e.Edit(task, Updates{Text: &text, Description: &desc, Priority: &prio, DueDate: &due})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if task.Text != "rewrite parser" {
		t.Errorf("expected trimmed text, got %q", task.Text)
	}
	if task.Description != desc || task.Priority != prio {
		t.Errorf("unexpected description/priority %q/%s", task.Description, task.Priority)
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) || task.DueDate.Location() != time.UTC {
		t.Errorf("expected due date stored in UTC, got %v", task.DueDate)
	}
	if task.LastEditedAt == nil || !task.LastEditedAt.Equal(mock.Now()) {
		t.Errorf("expected lastEditedAt now, got %v", task.LastEditedAt)
	}
	if !task.InProgressSince.Equal(t0) || task.TimeSpent != 0 {
		t.Error("expected edit not to touch timer fields")
	}

	if err := e.Edit(task, Updates{ClearDueDate: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.DueDate != nil {
		t.Errorf("expected due date cleared, got %v", task.DueDate)
	}
}

func TestEdit_RejectsInvalidInputWithoutChanges(t *testing.T) {
	e, _ := setupEngine(t)
	task := newTask("a", constants.ColumnTodo)

	blank := "   "
	desc := "new"
	if err := e.Edit(task, Updates{Text: &blank, Description: &desc}); !errors.Is(err, ErrTextRequired) {
		t.Errorf("expected ErrTextRequired, got %v", err)
	}

	bad := constants.Priority("urgent")
	if err := e.Edit(task, Updates{Priority: &bad}); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("expected ErrInvalidPriority, got %v", err)
	}

	if task.Text != "task a" || task.Description != "" || task.LastEditedAt != nil {
		t.Errorf("expected task untouched, got %+v", task)
	}
}

func TestForget_StopsSession(t *testing.T) {
	e, _ := setupEngine(t)
	task := newTask("a", constants.ColumnInProgress)
	e.Place(task)

	e.Forget("a")

	if e.Timers().IsActive("a") {
		t.Error("expected session dropped")
	}
}
