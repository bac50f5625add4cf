package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Reason and Value describe a rejected input.
	Reason string `json:"reason,omitempty"`
	Field  string `json:"field,omitempty"`
	Value  string `json:"value,omitempty"`
}

const (
	ErrorTypeValidation  = "https://fintrack.local/errors/validation"
	ErrorTypeNotFound    = "https://fintrack.local/errors/not-found"
	ErrorTypeRateLimited = "https://fintrack.local/errors/rate-limited"
	ErrorTypeInternal    = "https://fintrack.local/errors/internal"
)

func NewValidationError(c echo.Context, detail, reason, field, value string) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Reason:   reason,
		Field:    field,
		Value:    value,
	})
}

func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func NewTooManyRequestsError(c echo.Context) error {
	return c.JSON(http.StatusTooManyRequests, ProblemDetails{
		Type:     ErrorTypeRateLimited,
		Title:    "Too Many Requests",
		Status:   http.StatusTooManyRequests,
		Detail:   "Rate limit exceeded",
		Instance: c.Request().URL.Path,
	})
}

func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// badInput reports a request that could not be parsed at all.
func badInput(c echo.Context, field, value string) error {
	return NewValidationError(c, "Invalid request", "invalid input", field, value)
}

// respondError maps engine errors to problem details. Anything that is not
// a rejection is a persistence failure and is logged.
func respondError(c echo.Context, err error, detail string) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		value := fmt.Sprint(ve.Value)
		if errors.Is(err, core.ErrExpenseNotFound) || errors.Is(err, core.ErrGoalNotFound) {
			return NewNotFoundError(c, ve.Reason.Error()+": "+value)
		}
		return NewValidationError(c, ve.Error(), ve.Reason.Error(), ve.Field, value)
	}

	applog.FromContext(c.Request().Context()).ErrorContext(c.Request().Context(), detail, applog.FieldError, err)
	return NewInternalError(c, detail)
}
