// Package metrics provides Prometheus metrics for the crawler on a dedicated registry
package metrics

import (
	"context"
	"strconv"
	"time"

	perr "nhldata/internal/platform/errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "nhldata_crawl"

// Recorder owns a registry and the crawler's collectors
// a nil *Recorder is valid and records nothing
type Recorder struct {
	reg *prometheus.Registry

	games    *prometheus.CounterVec
	writes   *prometheus.CounterVec
	attempts *prometheus.CounterVec
	stages   *prometheus.HistogramVec
	lastRun  prometheus.Gauge
}

// New builds a Recorder with collectors registered on a fresh registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		games: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_total",
			Help:      "Games processed by outcome status",
		}, []string{"status"}),
		writes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_writes_total",
			Help:      "Object store writes by team side and result",
		}, []string{"side", "result"}),
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_attempts_total",
			Help:      "Upstream HTTP attempts by endpoint and status code (0 = transport failure)",
		}, []string{"endpoint", "code"}),
		stages: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry for tests and exporters
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// Game counts one finished game by status (ok, partial, failed)
func (r *Recorder) Game(status string) {
	if r == nil {
		return
	}
	r.games.WithLabelValues(status).Inc()
}

// StoreWrite counts one object write attempt result
func (r *Recorder) StoreWrite(side, result string) {
	if r == nil {
		return
	}
	r.writes.WithLabelValues(side, result).Inc()
}

// HTTPAttempt counts one upstream attempt
func (r *Recorder) HTTPAttempt(endpoint string, status int) {
	if r == nil {
		return
	}
	r.attempts.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// Stage observes how long a pipeline stage took
func (r *Recorder) Stage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

// RunFinished stamps the last run gauge
func (r *Recorder) RunFinished(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

// Push sends the registry to a Prometheus pushgateway under job
// empty url is a no-op so callers need not branch
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	if r == nil || url == "" {
		return nil
	}
	if job == "" {
		job = namespace
	}
	if err := push.New(url, job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "push metrics to %s", url)
	}
	return nil
}
