package validators

import (
	"strings"

	"github.com/labstack/echo/v4"

	"task-board.com/task-board/internal/constants"
	dto "task-board.com/task-board/internal/data_models"
	apperrors "task-board.com/task-board/internal/errors"
)

func ValidateCreateTaskRequest(r *dto.CreateTaskRequest) *echo.HTTPError {
	if strings.TrimSpace(r.Text) == "" {
		return apperrors.ErrTextRequired.HTTPError()
	}
	if r.Column != "" && !constants.Column(r.Column).Valid() {
		return apperrors.ErrInvalidColumn.HTTPError()
	}
	if r.Priority != "" && !constants.Priority(r.Priority).Valid() {
		return apperrors.ErrInvalidPriority.HTTPError()
	}
	return nil
}

func ValidateEditTaskRequest(r *dto.EditTaskRequest) *echo.HTTPError {
	if r.Text != nil && strings.TrimSpace(*r.Text) == "" {
		return apperrors.ErrTextRequired.HTTPError()
	}
	if r.Priority != nil && !constants.Priority(*r.Priority).Valid() {
		return apperrors.ErrInvalidPriority.HTTPError()
	}
	if r.Column != nil && !constants.Column(*r.Column).Valid() {
		return apperrors.ErrInvalidColumn.HTTPError()
	}
	return nil
}

func ValidateMoveTaskRequest(r *dto.MoveTaskRequest) *echo.HTTPError {
	if !constants.Column(r.Column).Valid() {
		return apperrors.ErrInvalidColumn.HTTPError()
	}
	return nil
}
