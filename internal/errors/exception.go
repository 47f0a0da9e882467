package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"task-board.com/task-board/internal/lifecycle"
)

type Exception struct {
	Message    string
	StatusCode int
}

func (e *Exception) Error() string {
	return e.Message
}

// HTTPError converts the exception for echo's error handler.
func (e *Exception) HTTPError() *echo.HTTPError {
	return echo.NewHTTPError(e.StatusCode, e.Message)
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// FromDomain maps validation errors raised by the board to exceptions. It
// returns nil for errors it does not know.
func FromDomain(err error) *Exception {
	var appErr *Exception
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, lifecycle.ErrTextRequired):
		return ErrTextRequired
	case errors.Is(err, lifecycle.ErrInvalidColumn):
		return ErrInvalidColumn
	case errors.Is(err, lifecycle.ErrInvalidPriority):
		return ErrInvalidPriority
	}
	return nil
}
