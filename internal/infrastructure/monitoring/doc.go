/*
Package monitoring provides Prometheus metrics for the terminal core.

# Overview

Metrics cover the HTTP API, PTY session lifecycle (create attempts, reconnects,
restarts, write and resize failures), output coalescing, and pane layout
(splits, closes, live tabs and panes, panes frozen during a split).

All recorders are nil-safe: a component constructed without metrics simply
records nothing.

# Usage

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	router.Use(monitoring.Middleware(metrics))
	metrics.RecordCreateAttempt("failure")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
