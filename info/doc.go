// Package info exposes the operational endpoints that sit next to the
// generated resources: status, liveness and readiness probes, build metadata,
// the OpenAPI document with an HTML viewer, and a listing of mounted resource
// routes.
//
// See ExampleInfoHandler_Handler for mounting every endpoint under one prefix.
package info
