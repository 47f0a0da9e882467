package dto

import model "task-board.com/task-board/pkg/models"

type TaskResponse struct {
	model.Task
	ElapsedMs      int64  `json:"elapsedMs"`
	ElapsedDisplay string `json:"elapsedDisplay"`
	TimeSpentHuman string `json:"timeSpentHuman"`
	Warning        string `json:"warning,omitempty"`
}
