package dto

import "time"

type CreateTaskRequest struct {
	Text        string     `json:"text"`
	Description string     `json:"description"`
	Column      string     `json:"column"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// EditTaskRequest carries only the fields being changed.
type EditTaskRequest struct {
	Text         *string    `json:"text"`
	Description  *string    `json:"description"`
	Priority     *string    `json:"priority"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"clearDueDate"`
	Column       *string    `json:"column"`
}

type MoveTaskRequest struct {
	Column string `json:"column"`
}
