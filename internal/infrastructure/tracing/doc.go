/*
Package tracing provides lightweight request tracing written to the log.

# Overview

Each HTTP request gets a span; the trace id comes from the caller's
X-Trace-ID header when present so the UI can correlate a split request with
the freeze and tab-state messages it triggers on the stream. Stream messages
open their own spans under the connection's trace.

Finished spans are queued and logged by a single collector goroutine. When
the queue is full spans are dropped rather than blocking the request.

# Usage

	tracer := tracing.New("menuterm", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "ws.attach")
	span.Set(zap.String("pane_id", paneID))
	defer tracer.End(span)

# Propagation

	X-Trace-ID: trace id for the whole flow
	X-Span-ID:  id of the caller's span, recorded as parent
*/
package tracing
