package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/procrastinemon/internal/logger"
	"github.com/rcliao/procrastinemon/internal/model"
	"github.com/rcliao/procrastinemon/internal/service"
	"github.com/rcliao/procrastinemon/internal/store"
)

type handlers struct {
	days *service.Days
	log  *logger.Logger
}

// fail logs server-side errors and writes the mapped response.
func (h *handlers) fail(c *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(op+" failed", "user", userID(c), "error", err)
	} else {
		h.log.Debug(op+" rejected", "user", userID(c), "status", status, "error", err)
	}
	respondMessage(c, status, msg)
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// POST /resolve-day
func (h *handlers) resolveDay(c *gin.Context) {
	out, err := h.days.ResolveToday(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, "resolve day", err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type goalsResponse struct {
	Date  string        `json:"date"`
	Goals model.GoalSet `json:"goals"`
}

// GET /goals
func (h *handlers) listGoals(c *gin.Context) {
	gs, err := h.days.Goals(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, "list goals", err)
		return
	}
	c.JSON(http.StatusOK, goalsResponse{Date: h.days.Today(), Goals: gs})
}

type addGoalRequest struct {
	Text string `json:"text"`
}

// POST /goals
func (h *handlers) addGoal(c *gin.Context) {
	var req addGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Request body must be JSON with a text field.")
		return
	}
	g, err := h.days.AddGoal(c.Request.Context(), userID(c), req.Text)
	if err != nil {
		h.fail(c, "add goal", err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// POST /goals/:id/toggle
func (h *handlers) toggleGoal(c *gin.Context) {
	g, err := h.days.ToggleGoal(c.Request.Context(), userID(c), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		respondMessage(c, http.StatusNotFound, "Goal not found")
		return
	}
	if err != nil {
		h.fail(c, "toggle goal", err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// GET /stats
func (h *handlers) stats(c *gin.Context) {
	st, err := h.days.Stats(c.Request.Context(), userID(c))
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /history?limit=n
func (h *handlers) history(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil || limit < 1 || limit > 365 {
		respondMessage(c, http.StatusBadRequest, "limit must be between 1 and 365")
		return
	}
	hist, err := h.days.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		h.fail(c, "history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": hist})
}
