// Package probe turns ping functions and MongoDB checks into readiness and
// liveness probes for the info endpoints. See ExampleNewPingProbe and
// ExampleNewCollectionsProbe.
package probe
