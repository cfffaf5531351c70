package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultTimeout ResultLabel = "timeout"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for passes, publications and DNS upserts.
// Implementations may forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObservePassDuration(d time.Duration)
	IncPassOutcome(result ResultLabel)
	IncProjectResult(result ResultLabel)
	ObservePublish(tree, backend string, d time.Duration, result ResultLabel)
	IncDNSUpsert(record string, result ResultLabel)
	IncSeedCreated(purpose string)
	IncBootstrapFailure(purpose string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePassDuration(time.Duration)                         {}
func (NoopRecorder) IncPassOutcome(ResultLabel)                                {}
func (NoopRecorder) IncProjectResult(ResultLabel)                              {}
func (NoopRecorder) ObservePublish(string, string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncDNSUpsert(string, ResultLabel)                          {}
func (NoopRecorder) IncSeedCreated(string)                                     {}
func (NoopRecorder) IncBootstrapFailure(string)                                {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
