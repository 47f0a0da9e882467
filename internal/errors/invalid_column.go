package errors

import "net/http"

var ErrInvalidColumn = &Exception{
	Message:    "column must be one of todo, inprogress, done",
	StatusCode: http.StatusBadRequest,
}
