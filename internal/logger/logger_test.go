package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"user", "u1", "token", "abc", "API_KEY", "k", "dangling"})
	assert.Equal(t, []interface{}{"user", "u1", "token", "[REDACTED]", "API_KEY", "[REDACTED]", "dangling"}, got)
}

func TestWithRedactsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("authorization", "Bearer x").Info("resolved", "user", "u1")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "[REDACTED]", ctx["authorization"])
		assert.Equal(t, "u1", ctx["user"])
	}
}
