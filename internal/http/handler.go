package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"task-board.com/task-board/internal/constants"
	dto "task-board.com/task-board/internal/data_models"
	apperrors "task-board.com/task-board/internal/errors"
	"task-board.com/task-board/internal/format"
	"task-board.com/task-board/internal/http/validators"
	"task-board.com/task-board/internal/lifecycle"
	"task-board.com/task-board/internal/services"
	model "task-board.com/task-board/pkg/models"
)

type Handler struct {
	board  *services.BoardService
	remote services.TaskStore
}

// NewHandler wires the board. remote may be nil when sync is disabled.
func NewHandler(board *services.BoardService, remote services.TaskStore) *Handler {
	return &Handler{
		board:  board,
		remote: remote,
	}
}

func (h *Handler) CreateTask(c echo.Context) error {
	var req dto.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON.HTTPError()
	}
	if err := validators.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.board.AddTask(c.Request().Context(), services.NewTask{
		Text:        req.Text,
		Description: req.Description,
		Column:      constants.Column(req.Column),
		Priority:    constants.Priority(req.Priority),
		DueDate:     req.DueDate,
	})
	if task == nil {
		return h.failure(err, "failed to create task")
	}

	return c.JSON(http.StatusCreated, h.taskResponse(task, err))
}

func (h *Handler) GetTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ErrTaskIDRequired.HTTPError()
	}

	task := h.board.Get(id)
	if task == nil {
		return apperrors.ErrTaskNotFound.HTTPError()
	}

	return c.JSON(http.StatusOK, h.taskResponse(task, nil))
}

func (h *Handler) ListTasks(c echo.Context) error {
	column := c.QueryParam("column")
	if column != "" && !constants.Column(column).Valid() {
		return apperrors.ErrInvalidColumn.HTTPError()
	}

	tasks := h.board.List()
	out := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		if column != "" && string(tasks[i].Column) != column {
			continue
		}
		out = append(out, h.taskResponse(&tasks[i], nil))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(out),
		"tasks": out,
	})
}

func (h *Handler) EditTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ErrTaskIDRequired.HTTPError()
	}

	var req dto.EditTaskRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON.HTTPError()
	}
	if err := validators.ValidateEditTaskRequest(&req); err != nil {
		return err
	}

	edit := services.EditRequest{
		Updates: lifecycle.Updates{
			Text:         req.Text,
			Description:  req.Description,
			DueDate:      req.DueDate,
			ClearDueDate: req.ClearDueDate,
		},
	}
	if req.Priority != nil {
		p := constants.Priority(*req.Priority)
		edit.Priority = &p
	}
	if req.Column != nil {
		col := constants.Column(*req.Column)
		edit.Column = &col
	}

	task, err := h.board.RequestEdit(c.Request().Context(), id, edit)
	if task == nil {
		if err == nil {
			return apperrors.ErrTaskNotFound.HTTPError()
		}
		return h.failure(err, "failed to edit task")
	}

	return c.JSON(http.StatusOK, h.taskResponse(task, err))
}

func (h *Handler) MoveTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ErrTaskIDRequired.HTTPError()
	}

	var req dto.MoveTaskRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ErrInvalidJSON.HTTPError()
	}
	if err := validators.ValidateMoveTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.board.RequestColumnChange(c.Request().Context(), id, constants.Column(req.Column))
	if task == nil {
		if err == nil {
			return apperrors.ErrTaskNotFound.HTTPError()
		}
		return h.failure(err, "failed to move task")
	}

	return c.JSON(http.StatusOK, h.taskResponse(task, err))
}

func (h *Handler) DeleteTask(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperrors.ErrTaskIDRequired.HTTPError()
	}

	found, err := h.board.RequestDelete(c.Request().Context(), id)
	if !found {
		return apperrors.ErrTaskNotFound.HTTPError()
	}
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"id": id, "warning": err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) LiveTimers(c echo.Context) error {
	timers := h.board.LiveTimers()
	return c.JSON(http.StatusOK, echo.Map{
		"count":  len(timers),
		"timers": timers,
	})
}

// StreamTimers pushes the running timers as server-sent events once per
// refresh until the client goes away or updates stop.
func (h *Handler) StreamTimers(c echo.Context) error {
	updates, cancel := h.board.Subscribe()
	defer cancel()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	enc := json.NewEncoder(res)
	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case views, ok := <-updates:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprint(res, "event: timers\ndata: "); err != nil {
				return nil
			}
			if err := enc.Encode(views); err != nil {
				return nil
			}
			fmt.Fprint(res, "\n")
			res.Flush()
		}
	}
}

func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.board.Stats())
}

func (h *Handler) PullRemote(c echo.Context) error {
	if h.remote == nil {
		return apperrors.ErrSyncDisabled.HTTPError()
	}

	count, err := h.board.Pull(c.Request().Context(), h.remote)
	if err != nil {
		if errors.Is(err, services.ErrPersistFailed) {
			return c.JSON(http.StatusOK, echo.Map{"count": count, "warning": err.Error()})
		}
		return echo.NewHTTPError(http.StatusBadGateway, "failed to pull remote board")
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

func (h *Handler) PushRemote(c echo.Context) error {
	if h.remote == nil {
		return apperrors.ErrSyncDisabled.HTTPError()
	}

	count, err := h.board.Push(c.Request().Context(), h.remote)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to push board")
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// taskResponse decorates a task with its display values. A persistence
// failure is reported as a warning; the change itself stands.
func (h *Handler) taskResponse(task *model.Task, err error) dto.TaskResponse {
	elapsed, _ := h.board.Elapsed(task.ID)
	if elapsed == 0 {
		elapsed = task.Accumulated()
	}

	resp := dto.TaskResponse{
		Task:           *task,
		ElapsedMs:      elapsed.Milliseconds(),
		ElapsedDisplay: format.Elapsed(elapsed),
		TimeSpentHuman: format.Human(task.Accumulated()),
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	return resp
}

func (h *Handler) failure(err error, message string) error {
	if exc := apperrors.FromDomain(err); exc != nil {
		return exc.HTTPError()
	}
	return echo.NewHTTPError(http.StatusInternalServerError, message)
}
