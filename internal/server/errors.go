package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	matchdomain "github.com/howweplan/matchd/internal/match/domain"
	"github.com/howweplan/matchd/internal/oversight"
	"github.com/howweplan/matchd/internal/trigger"
	"github.com/howweplan/matchd/internal/verification"
	"go.uber.org/zap"
)

// APIError is an error with a fixed HTTP status and machine-readable code.
// Every error response uses the same envelope:
//
//	{"success": false, "error": {"code": "...", "message": "...", "fields": {...}}}
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden    = &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: "insufficient permissions"}
	ErrNotFound     = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrRateLimited  = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
		Fields:  map[string]string{field: code},
	}
}

// domainStatus maps domain sentinel errors onto HTTP statuses. Unknown
// errors fall through to 500 without leaking internals to the caller.
func domainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, matchdomain.ErrInvalidMatchID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, oversight.ErrJustificationRequired),
		errors.Is(err, oversight.ErrInvalidOverrideAction),
		errors.Is(err, verification.ErrMissingSubject):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, matchdomain.ErrNotMatchOwner):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, matchdomain.ErrMatchNotFound),
		errors.Is(err, matchdomain.ErrAgentNotFound),
		errors.Is(err, trigger.ErrRequestNotFound),
		errors.Is(err, trigger.ErrAgentNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, matchdomain.ErrStateConflict),
		errors.Is(err, trigger.ErrRequestNotMatchable):
		return http.StatusConflict, err.Error()
	case errors.Is(err, oversight.ErrNotImplemented):
		return http.StatusNotImplemented, err.Error()
	}
	return http.StatusInternalServerError, "internal_error"
}

// AbortWithError renders the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"success": false, "error": apiErr})
		return
	}

	status, code := domainStatus(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("unhandled request error", zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{
			"success": false,
			"error":   &APIError{Code: code, Message: "an unexpected error occurred"},
		})
		return
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   &APIError{Code: code, Message: code},
	})
}
