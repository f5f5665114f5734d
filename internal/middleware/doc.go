// Package middleware provides HTTP middleware for the catalog's control API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Response compression (gzip)
//   - Prometheus request metrics
//   - Configurable filtering for thumbnail fetches and health checks
package middleware
