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

func findEntry(t *testing.T, recorded *observer.ObservedLogs, msg string) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage(msg).All()
	require.NotEmpty(t, entries, "expected a %q log entry", msg)
	return entries[0]
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("logs request with request id and actor", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("request_id", "req-42")
			c.Next()
		})
		router.Use(GinMiddleware(zap.New(core)))
		router.POST("/stock/deduct", func(c *gin.Context) {
			assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
			c.Set("actor_id", "clerk-1")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stock/deduct?dry=1", nil))

		entry := findEntry(t, recorded, "HTTP Request")
		fields := entry.ContextMap()
		assert.Equal(t, zapcore.InfoLevel, entry.Level)
		assert.Equal(t, "req-42", fields["request_id"])
		assert.Equal(t, "clerk-1", fields["user_id"])
		assert.Equal(t, "dry=1", fields["query"])
	})

	t.Run("client errors warn", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, zapcore.WarnLevel, findEntry(t, recorded, "HTTP Request").Level)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("ledger exploded") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	findEntry(t, recorded, "Panic recovered")
}

func TestGetGinLogger(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))

	l := zap.NewExample()
	c.Set("logger", l)
	assert.Same(t, l, GetGinLogger(c))
}
