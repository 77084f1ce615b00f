package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rcliao/procrastinemon/internal/auth"
	"github.com/rcliao/procrastinemon/internal/logger"
)

const (
	RequestIDHeader = "X-Request-ID"

	userIDKey = "userID"
)

// RequestLog assigns a request id and logs each request when it completes.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequestLog")
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(RequestIDHeader, rid)

		c.Next()

		log.Info("request",
			"request_id", rid,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"user", c.GetString(userIDKey),
		)
	}
}

// RequireAuth verifies the bearer token and stores the user id on the context.
// No handler behind it runs for an anonymous caller.
func RequireAuth(v auth.Verifier, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequireAuth")
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respondMessage(c, http.StatusUnauthorized, "Authorization header missing or malformed")
			c.Abort()
			return
		}
		if v == nil {
			log.Error("no token verifier configured")
			respondMessage(c, http.StatusInternalServerError, "Internal Server Error")
			c.Abort()
			return
		}
		uid, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			log.Debug("token rejected", "error", err)
			status, msg := statusFor(err)
			respondMessage(c, status, msg)
			c.Abort()
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
