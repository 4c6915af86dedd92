// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CyclesTotal      prometheus.Counter
	MessagesArchived prometheus.Counter
	RoomsProcessed   prometheus.Counter
	RoomsSkipped     prometheus.Counter
	LinesMasked      prometheus.Counter

	// Histograms (seconds)
	FetchDuration  prometheus.Observer
	AppendDuration prometheus.Observer
	CycleDuration  prometheus.Observer

	// Gauges
	LastCycleNewMessages prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "archive_cycles_total", Help: "Number of archival cycles run"})
		MessagesArchived = promauto.NewCounter(prometheus.CounterOpts{Name: "archive_messages_archived_total", Help: "Number of messages written to the archive document"})
		RoomsProcessed = promauto.NewCounter(prometheus.CounterOpts{Name: "archive_rooms_processed_total", Help: "Number of per-room runs that completed"})
		RoomsSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "archive_rooms_skipped_total", Help: "Number of per-room runs skipped due to errors or missing sections"})
		LinesMasked = promauto.NewCounter(prometheus.CounterOpts{Name: "archive_lines_masked_total", Help: "Number of lines replaced by the secret mask filter"})
		FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archive_fetch_duration_seconds", Help: "Chatwork message fetch duration seconds", Buckets: prometheus.DefBuckets})
		AppendDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archive_append_duration_seconds", Help: "Document append duration seconds", Buckets: prometheus.DefBuckets})
		CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archive_cycle_duration_seconds", Help: "Total cycle duration seconds", Buckets: prometheus.DefBuckets})
		LastCycleNewMessages = promauto.NewGauge(prometheus.GaugeOpts{Name: "archive_last_cycle_new_messages", Help: "New messages archived in the most recent cycle"})
	})
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// AddMessagesArchived bumps the archived counter and last-cycle gauge.
func AddMessagesArchived(n int) {
	if MessagesArchived != nil {
		MessagesArchived.Add(float64(n))
	}
}

// SetLastCycleNewMessages records the new-message count of the latest cycle.
func SetLastCycleNewMessages(n int) {
	if LastCycleNewMessages != nil {
		LastCycleNewMessages.Set(float64(n))
	}
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
