package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedTracer(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	tracer := New("test", zap.New(core))
	t.Cleanup(tracer.Close)
	return tracer, logs
}

func TestStartSpanNewTrace(t *testing.T) {
	tracer, _ := newObservedTracer(t)

	span, ctx := tracer.StartSpan(context.Background(), "op")
	assert.NotEmpty(t, span.TraceID)
	assert.NotEmpty(t, span.SpanID)
	assert.Empty(t, span.ParentID)
	assert.Equal(t, span.TraceID, TraceFromContext(ctx))
	assert.Equal(t, span.SpanID, SpanFromContext(ctx))
}

func TestStartSpanChild(t *testing.T) {
	tracer, _ := newObservedTracer(t)

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
}

func TestEndLogsSpan(t *testing.T) {
	tracer, logs := newObservedTracer(t)

	span, _ := tracer.StartSpan(context.Background(), "split")
	span.Set(zap.String("pane_id", "pane_1"))
	span.Fail(errors.New("boom"))
	tracer.End(span)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Span failed").Len() == 1
	}, time.Second, 5*time.Millisecond)

	entry := logs.FilterMessage("Span failed").All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "split", fields["operation"])
	assert.Equal(t, "pane_1", fields["pane_id"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLogFields(t *testing.T) {
	assert.Nil(t, LogFields(context.Background()))

	ctx := WithTrace(context.Background(), "trace", "span")
	assert.Len(t, LogFields(ctx), 2)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer(t)

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/tabs/:tab", func(c *gin.Context) {
		assert.Equal(t, TraceID("caller-trace"), TraceFromContext(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/tabs/tab_1", nil)
	req.Header.Set(TraceHeader, "caller-trace")
	req.Header.Set(SpanHeader, "caller-span")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "caller-trace", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Span completed").Len() == 1
	}, time.Second, 5*time.Millisecond)
	fields := logs.FilterMessage("Span completed").All()[0].ContextMap()
	assert.Equal(t, "GET /tabs/:tab", fields["operation"])
	assert.Equal(t, "caller-span", fields["parent_id"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}

func TestEndAfterClose(t *testing.T) {
	tracer := New("test", nil)
	tracer.Close()
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	tracer.End(span)
}
