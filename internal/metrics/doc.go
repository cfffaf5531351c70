// Package metrics provides the observability hooks for reconciliation passes.
//
// Components receive a Recorder through their constructor options and default to
// NoopRecorder, so nothing in the pass path needs nil checks:
//
//	pipeline := publish.NewPipeline(publish.Options{Recorder: metrics.OrNoop(rec)})
//
// The daemon swaps in a PrometheusRecorder registered on the registry served by
// the admin HTTP server at /metrics.
package metrics
