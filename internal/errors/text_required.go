package errors

import "net/http"

var ErrTextRequired = &Exception{
	Message:    "text is required",
	StatusCode: http.StatusBadRequest,
}
