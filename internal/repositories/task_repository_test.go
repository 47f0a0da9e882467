package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-board.com/task-board/internal/constants"
	model "task-board.com/task-board/pkg/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(&model.Task{})
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

var created = time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)

func sampleTasks() []model.Task {
	since := created.Add(time.Hour)
	due := created.Add(72 * time.Hour)
	return []model.Task{
		{
			ID:        "a",
			Text:      "write docs",
			Column:    constants.ColumnTodo,
			Priority:  constants.PriorityLow,
			CreatedAt: created,
			Version:   1,
		},
		{
			ID:              "b",
			Text:            "fix login",
			Description:     "token refresh loops",
			Column:          constants.ColumnInProgress,
			Priority:        constants.PriorityHigh,
			DueDate:         &due,
			CreatedAt:       created.Add(time.Minute),
			StartedAt:       &since,
			InProgressSince: &since,
			TimeSpent:       4200,
			TimerStartTime:  &since,
			Version:         3,
		},
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func TestTaskRepository_SaveAllLoadAllRoundTrip(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	want := sampleTasks()

	if err := repo.SaveAll(ctx, want); err != nil {
		t.Fatalf("save all: %v", err)
	}

	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}

	for i := range want {
		w, g := want[i], got[i]
		if g.ID != w.ID || g.Text != w.Text || g.Description != w.Description {
			t.Errorf("task %s: text fields differ: %+v", w.ID, g)
		}
		if g.Column != w.Column || g.Priority != w.Priority {
			t.Errorf("task %s: column/priority differ: %s/%s", w.ID, g.Column, g.Priority)
		}
		if g.TimeSpent != w.TimeSpent || g.Version != w.Version {
			t.Errorf("task %s: timeSpent/version differ: %d/%d", w.ID, g.TimeSpent, g.Version)
		}
		if !g.CreatedAt.Equal(w.CreatedAt) {
			t.Errorf("task %s: createdAt %v, want %v", w.ID, g.CreatedAt, w.CreatedAt)
		}
		if !sameTime(g.DueDate, w.DueDate) ||
			!sameTime(g.LastEditedAt, w.LastEditedAt) ||
			!sameTime(g.StartedAt, w.StartedAt) ||
			!sameTime(g.InProgressSince, w.InProgressSince) ||
			!sameTime(g.CompletedAt, w.CompletedAt) ||
			!sameTime(g.TimerStartTime, w.TimerStartTime) {
			t.Errorf("task %s: optional timestamps differ: %+v", w.ID, g)
		}
	}
}

func TestTaskRepository_SaveAllReplacesCollection(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	tasks := sampleTasks()

	if err := repo.SaveAll(ctx, tasks); err != nil {
		t.Fatalf("save all: %v", err)
	}

	tasks[1].Text = "fix login for good"
	if err := repo.SaveAll(ctx, tasks[1:]); err != nil {
		t.Fatalf("save all: %v", err)
	}

	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" || got[0].Text != "fix login for good" {
		t.Fatalf("expected only the updated task b, got %+v", got)
	}

	if err := repo.SaveAll(ctx, nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	got, _ = repo.LoadAll(ctx)
	if len(got) != 0 {
		t.Errorf("expected empty table, got %d rows", len(got))
	}
}

func TestTaskRepository_SaveOneBumpsVersion(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	task := sampleTasks()[0]

	if err := repo.SaveOne(ctx, &task); err != nil {
		t.Fatalf("save new: %v", err)
	}
	if task.Version != 1 {
		t.Errorf("expected a new record to keep version 1, got %d", task.Version)
	}

	task.Text = "write better docs"
	task.Column = constants.ColumnDone
	completed := created.Add(time.Hour)
	task.CompletedAt = &completed
	if err := repo.SaveOne(ctx, &task); err != nil {
		t.Fatalf("save update: %v", err)
	}
	if task.Version != 2 {
		t.Errorf("expected version 2, got %d", task.Version)
	}

	stored, err := repo.FindByID(ctx, "a")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Text != "write better docs" || stored.Column != constants.ColumnDone || stored.Version != 2 {
		t.Errorf("unexpected stored task %+v", stored)
	}
	if !sameTime(stored.CompletedAt, &completed) {
		t.Errorf("expected completedAt %v, got %v", completed, stored.CompletedAt)
	}
}

func TestTaskRepository_SaveOneLastWriteWins(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()
	task := sampleTasks()[0]

	if err := repo.SaveOne(ctx, &task); err != nil {
		t.Fatalf("save new: %v", err)
	}

	stale := task.Clone()
	task.Text = "first writer"
	if err := repo.SaveOne(ctx, &task); err != nil {
		t.Fatalf("save update: %v", err)
	}

	stale.Text = "second writer"
	stale.Column = constants.ColumnDone
	if err := repo.SaveOne(ctx, &stale); err != nil {
		t.Fatalf("expected the older copy to be written, got %v", err)
	}
	if stale.Version != 3 {
		t.Errorf("expected the stored version copied back, got %d", stale.Version)
	}

	stored, _ := repo.FindByID(ctx, "a")
	if stored.Text != "second writer" || stored.Column != constants.ColumnDone || stored.Version != 3 {
		t.Errorf("expected the later write to stand, got %+v", stored)
	}
}

func TestTaskRepository_FindAndDelete(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}

	if err := repo.SaveAll(ctx, sampleTasks()); err != nil {
		t.Fatalf("save all: %v", err)
	}
	if err := repo.DeleteOne(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := repo.FindByID(ctx, "a"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected deleted task to be gone, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "b"); err != nil {
		t.Errorf("expected task b to remain, got %v", err)
	}
}
