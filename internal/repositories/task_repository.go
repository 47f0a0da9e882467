package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	model "task-board.com/task-board/pkg/models"
)

type TaskRepository struct {
	db *gorm.DB
}

var ErrTaskNotFound = errors.New("task not found")

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) LoadAll(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&tasks).Error
	return tasks, err
}

// SaveAll makes the table hold exactly the given collection.
func (r *TaskRepository) SaveAll(ctx context.Context, tasks []model.Task) error {
	rows := make([]model.Task, len(tasks))
	copy(rows, tasks)

	ids := make([]string, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].ID)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("1 = 1")
		if len(ids) > 0 {
			stale = tx.Where("id NOT IN ?", ids)
		}
		if err := stale.Delete(&model.Task{}).Error; err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(&rows, 100).Error
	})
}

// SaveOne writes a single record, replacing whatever another writer stored
// for the same id. The stored version is bumped and copied back to task.
func (r *TaskRepository) SaveOne(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ?", task.ID).
			Updates(map[string]interface{}{
				"text":              task.Text,
				"description":       task.Description,
				"board_column":      task.Column,
				"priority":          task.Priority,
				"due_date":          task.DueDate,
				"last_edited_at":    task.LastEditedAt,
				"started_at":        task.StartedAt,
				"in_progress_since": task.InProgressSince,
				"completed_at":      task.CompletedAt,
				"time_spent":        task.TimeSpent,
				"timer_start_time":  task.TimerStartTime,
				"version":           gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			row := task.Clone()
			return tx.Create(&row).Error
		}

		var version uint
		if err := tx.Model(&model.Task{}).Where("id = ?", task.ID).Select("version").Scan(&version).Error; err != nil {
			return err
		}
		task.Version = version
		return nil
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) DeleteOne(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error
}
