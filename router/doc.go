// Package router wraps the resource handler in an http.ServeMux with the
// default middleware chain: metrics, per-client rate limiting, OpenAPI request
// validation, CORS, timeouts and request logging. Probes and the metrics
// endpoint are mounted beside the chain with WithHandle.
package router
