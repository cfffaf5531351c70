package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	passDuration      prom.Histogram
	passOutcomes      *prom.CounterVec
	projectResults    *prom.CounterVec
	publishDuration   *prom.HistogramVec
	publishResults    *prom.CounterVec
	dnsUpserts        *prom.CounterVec
	seedsCreated      *prom.CounterVec
	bootstrapFailures *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the pinningd metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		passDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "pinningd",
			Name:      "pass_duration_seconds",
			Help:      "Duration of a full reconciliation pass",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900, 1800},
		}),
		passOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pinningd",
			Name:      "pass_outcomes_total",
			Help:      "Passes by outcome",
		}, []string{"result"}),
		projectResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pinningd",
			Name:      "project_results_total",
			Help:      "Per-project processing results",
		}, []string{"result"}),
		publishDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "pinningd",
			Name:      "publish_duration_seconds",
			Help:      "Duration of individual tree publications",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"tree", "backend"}),
		publishResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pinningd",
			Name:      "publish_results_total",
			Help:      "Tree publications by tree, backend and result",
		}, []string{"tree", "backend", "result"}),
		dnsUpserts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pinningd",
			Name:      "dns_upserts_total",
			Help:      "DNS TXT record upserts by record name and result",
		}, []string{"record", "result"}),
		seedsCreated: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pinningd",
			Name:      "seeds_created_total",
			Help:      "Drive seeds minted",
		}, []string{"purpose"}),
		bootstrapFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pinningd",
			Name:      "drive_bootstrap_failures_total",
			Help:      "First-time drive creations that failed after the seed was stored",
		}, []string{"purpose"}),
	}
	reg.MustRegister(pr.passDuration, pr.passOutcomes, pr.projectResults, pr.publishDuration,
		pr.publishResults, pr.dnsUpserts, pr.seedsCreated, pr.bootstrapFailures)
	return pr
}

func (p *PrometheusRecorder) ObservePassDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.passDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPassOutcome(result ResultLabel) {
	if p == nil {
		return
	}
	p.passOutcomes.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncProjectResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.projectResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePublish(tree, backend string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.publishDuration.WithLabelValues(tree, backend).Observe(d.Seconds())
	p.publishResults.WithLabelValues(tree, backend, string(result)).Inc()
}

func (p *PrometheusRecorder) IncDNSUpsert(record string, result ResultLabel) {
	if p == nil {
		return
	}
	p.dnsUpserts.WithLabelValues(record, string(result)).Inc()
}

func (p *PrometheusRecorder) IncSeedCreated(purpose string) {
	if p == nil {
		return
	}
	p.seedsCreated.WithLabelValues(purpose).Inc()
}

func (p *PrometheusRecorder) IncBootstrapFailure(purpose string) {
	if p == nil {
		return
	}
	p.bootstrapFailures.WithLabelValues(purpose).Inc()
}
