package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"purplefabric.ai/graphrag/graphragerr"
)

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// kindStatus maps a tagged error kind to its HTTP status, per §7's error
// kind table.
var kindStatus = map[graphragerr.Kind]int{
	graphragerr.KindQueryGenerationFailed:    http.StatusUnprocessableEntity,
	graphragerr.KindQueryExecutionFailed:     http.StatusBadGateway,
	graphragerr.KindValidationFailed:         http.StatusBadRequest,
	graphragerr.KindConfidenceBelowThreshold: http.StatusUnprocessableEntity,
	graphragerr.KindBackendUnavailable:       http.StatusServiceUnavailable,
	graphragerr.KindSchemaMismatch:           http.StatusConflict,
	graphragerr.KindConfigurationError:       http.StatusInternalServerError,
	graphragerr.KindConcurrencyLimitExceeded: http.StatusTooManyRequests,
}

// writeError serializes err as a structured JSON error response, using
// the tagged kind's status when err is a *graphragerr.Error, and 500
// otherwise.
func writeError(c echo.Context, err error) error {
	var tagged *graphragerr.Error
	status := http.StatusInternalServerError
	if errors.As(err, &tagged) {
		if s, ok := kindStatus[tagged.Kind()]; ok {
			status = s
		}
		return c.JSON(status, ErrorResponse{Error: string(tagged.Kind()), Message: err.Error()})
	}
	return c.JSON(status, ErrorResponse{Error: "InternalError", Message: err.Error()})
}

// CustomHTTPErrorHandler is the echo-level fallback error handler,
// grounded on the teacher's CustomHTTPErrorHandler.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := err.Error()
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: http.StatusText(he.Code), Message: msg})
		return
	}
	_ = writeError(c, err)
}
