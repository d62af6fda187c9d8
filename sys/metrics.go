package sys

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus collectors for the playback subsystem
type Metrics struct {
	// Session metrics
	ActiveSessions     prometheus.Gauge
	SessionsCreated    prometheus.Counter
	SessionsTerminated *prometheus.CounterVec

	// Playback metrics
	TracksPlayed   prometheus.Counter
	PlaybackErrors prometheus.Counter
	SkipVotes      prometheus.Counter

	// Resolution metrics
	ResolveDuration prometheus.Histogram
	ResolveFailures prometheus.Counter
}

// Stats is registered on the default registry at init.
var Stats = NewMetrics()

func NewMetrics() *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jmusic_active_sessions",
			Help: "Number of guild playback sessions currently alive",
		}),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jmusic_sessions_created_total",
			Help: "Total number of playback sessions created",
		}),
		SessionsTerminated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "jmusic_sessions_terminated_total",
			Help: "Total number of playback sessions terminated, by reason",
		}, []string{"reason"}),

		TracksPlayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jmusic_tracks_played_total",
			Help: "Total number of tracks that started playing",
		}),
		PlaybackErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jmusic_playback_errors_total",
			Help: "Total number of tracks that ended with a playback error",
		}),
		SkipVotes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jmusic_skip_votes_total",
			Help: "Total number of skip votes cast",
		}),

		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "jmusic_resolve_duration_seconds",
			Help:    "Time spent resolving a query into a playable source",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		ResolveFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jmusic_resolve_failures_total",
			Help: "Total number of failed resolutions",
		}),
	}
}

func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
	m.ActiveSessions.Inc()
}

func (m *Metrics) RecordSessionTerminated(reason string) {
	m.SessionsTerminated.WithLabelValues(reason).Inc()
	m.ActiveSessions.Dec()
}

func (m *Metrics) RecordResolve(d time.Duration, err error) {
	m.ResolveDuration.Observe(d.Seconds())
	if err != nil {
		m.ResolveFailures.Inc()
	}
}

// MetricsDaemon returns a daemon starter serving /metrics on addr. It stays
// inactive when addr is empty.
func MetricsDaemon(addr string) func(ctx context.Context) (bool, func(), func()) {
	return func(ctx context.Context) (bool, func(), func()) {
		if addr == "" {
			return false, nil, nil
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		run := func() {
			LogMetrics(MsgMetricsListening, addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				LogMetrics(MsgMetricsServeFail, err)
			}
		}
		shutdown := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		return true, run, shutdown
	}
}
