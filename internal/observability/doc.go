// Package observability provides structured logging and Prometheus metrics
// for the admin access service.
//
// This package implements:
//   - zap logger construction from the configured level and format
//   - HTTP request metrics keyed by chi route pattern
//   - access decision and role switch counters
package observability
