package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLogRouter(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	h := &Handlers{logger: zap.New(core)}
	router := gin.New()
	router.POST("/logs", h.IngestLogs)
	return router, logs
}

func postLogs(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/logs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestLogs(t *testing.T) {
	router, logs := newLogRouter(t)

	w := postLogs(router, `{"entries":[
		{"level":"warn","message":"WebGL context lost","pane_id":"pane_1","context":{"attempt":2}},
		{"level":"bogus","message":"resize observed"}
	]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"accepted":2}`, w.Body.String())

	entries := logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "ui" }).AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "WebGL context lost", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "pane_1", fields["pane_id"])
	assert.EqualValues(t, 2, fields["attempt"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}

func TestIngestLogsValidation(t *testing.T) {
	router, logs := newLogRouter(t)

	assert.Equal(t, http.StatusBadRequest, postLogs(router, `{"entries":[]}`).Code)
	assert.Equal(t, http.StatusBadRequest, postLogs(router, `{"entries":[{"level":"info"}]}`).Code)

	big := `{"entries":[` + strings.TrimSuffix(strings.Repeat(`{"message":"x"},`, maxUILogBatch+1), ",") + `]}`
	assert.Equal(t, http.StatusRequestEntityTooLarge, postLogs(router, big).Code)
	assert.Zero(t, logs.Len())
}

func TestUILevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, uiLevel("trace"))
	assert.Equal(t, zapcore.WarnLevel, uiLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, uiLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, uiLevel("fatal"))
}
