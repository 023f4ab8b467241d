// Package metrics exposes Prometheus counters for review and vote activity
// and for the real-time relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/livecharge/livecharge/internal/station"
)

const metricPrefix = "livecharge_"

// Domain holds the domain instruments. It implements station.Recorder.
type Domain struct {
	registry *prometheus.Registry

	reviewsTotal   *prometheus.CounterVec
	votesTotal     *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	conflictsTotal *prometheus.CounterVec
}

// New registers the domain metrics on a fresh registry. clients and dropped
// report the live relay connection count and dropped broadcast frames; either
// may be nil.
func New(clients func() int, dropped func() uint64) *Domain {
	reg := prometheus.NewRegistry()

	d := &Domain{
		registry: reg,
		reviewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reviews_submitted_total",
				Help: "Reviews appended to stations by submitted status",
			},
			[]string{"status"},
		),
		votesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "votes_applied_total",
				Help: "Votes applied by the voter's resulting state",
			},
			[]string{"result"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operation_failures_total",
				Help: "Failed review and vote operations by kind",
			},
			[]string{"operation", "kind"},
		),
		conflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "write_conflicts_total",
				Help: "Station writes retried after a concurrent modification",
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(d.reviewsTotal, d.votesTotal, d.failuresTotal, d.conflictsTotal)

	if clients != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "relay_clients",
				Help: "Currently connected real-time clients",
			},
			func() float64 { return float64(clients()) },
		))
	}
	if dropped != nil {
		reg.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: metricPrefix + "relay_dropped_messages_total",
				Help: "Broadcast frames dropped because a client queue was full",
			},
			func() float64 { return float64(dropped()) },
		))
	}

	return d
}

// Handler serves the registry in the Prometheus exposition format.
func (d *Domain) Handler() http.Handler {
	return promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry})
}

// Registry returns the underlying registry.
func (d *Domain) Registry() *prometheus.Registry {
	return d.registry
}

// ReviewSubmitted implements station.Recorder.
func (d *Domain) ReviewSubmitted(status station.Status) {
	d.reviewsTotal.WithLabelValues(string(status)).Inc()
}

// VoteApplied implements station.Recorder.
func (d *Domain) VoteApplied(result station.UserVote) {
	d.votesTotal.WithLabelValues(string(result)).Inc()
}

// OperationFailed implements station.Recorder.
func (d *Domain) OperationFailed(operation string, err error) {
	d.failuresTotal.WithLabelValues(operation, station.ErrorKind(err)).Inc()
}

// ConflictRetried implements station.Recorder.
func (d *Domain) ConflictRetried(operation string) {
	d.conflictsTotal.WithLabelValues(operation).Inc()
}

// Ensure Domain implements station.Recorder.
var _ station.Recorder = (*Domain)(nil)
