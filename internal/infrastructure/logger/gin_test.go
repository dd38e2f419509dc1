package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveWithAccessLog(t *testing.T, handler gin.HandlerFunc, target string) (*observer.ObservedLogs, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		ctx, _ := WithRequestID(c.Request.Context(), log, "req-123")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	engine.Use(Recovery(log))
	engine.Use(RequestLog(log))
	engine.GET("/shipments", handler)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	engine.ServeHTTP(w, req)
	return recorded, w
}

func requestEntry(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestRequestLog(t *testing.T) {
	recorded, w := serveWithAccessLog(t, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	}, "/shipments?client_id=abc")

	assert.Equal(t, http.StatusOK, w.Code)
	entry := requestEntry(t, recorded)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/shipments", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "client_id=abc", fields["query"])
}

func TestRequestLog_ClientErrorWarns(t *testing.T) {
	recorded, w := serveWithAccessLog(t, func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	}, "/shipments")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, zapcore.WarnLevel, requestEntry(t, recorded).Level)
}

func TestRequestLog_ServerErrorLogs(t *testing.T) {
	recorded, w := serveWithAccessLog(t, func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	}, "/shipments")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entry := requestEntry(t, recorded)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Contains(t, entry.ContextMap(), "errors")
}

func TestRecovery(t *testing.T) {
	recorded, w := serveWithAccessLog(t, func(c *gin.Context) {
		panic("unexpected state")
	}, "/shipments")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	entries := recorded.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "unexpected state", fields["panic"])
	assert.Equal(t, "/shipments", fields["path"])
}
