package errors

import "net/http"

var ErrSyncDisabled = &Exception{
	Message:    "remote sync is disabled",
	StatusCode: http.StatusServiceUnavailable,
}
