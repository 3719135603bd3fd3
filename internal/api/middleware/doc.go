// Package middleware holds the gin middleware shared by the REST API and the
// stream endpoint: loopback-aware CORS and per-client rate limiting.
package middleware
