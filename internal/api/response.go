package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/procrastinemon/internal/auth"
	"github.com/rcliao/procrastinemon/internal/model"
	"github.com/rcliao/procrastinemon/internal/resolver"
	"github.com/rcliao/procrastinemon/internal/store"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorBody{Message: msg})
}

// statusFor maps a domain error to an HTTP status and user-facing message.
// Unknown errors become 500 without leaking details.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "ID token expired. Please reauthenticate."
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "Invalid ID token."
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "No goals found for today"
	case errors.Is(err, resolver.ErrEmptyGoalSet):
		return http.StatusBadRequest, "Cannot finish day with no goals set."
	case errors.Is(err, store.ErrGoalTooLong):
		return http.StatusBadRequest, fmt.Sprintf("Goal must be %d characters or fewer.", model.MaxGoalTextLen)
	case errors.Is(err, store.ErrInvalidGoal):
		return http.StatusBadRequest, "Goal can't be empty!"
	case errors.Is(err, store.ErrGoalLimit):
		return http.StatusConflict, "Max 3 goals per day!"
	case errors.Is(err, store.ErrAlreadyResolved):
		return http.StatusConflict, "Today is already finished. Start a new day tomorrow."
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
