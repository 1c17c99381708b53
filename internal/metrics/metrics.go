package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "habitkeeper"

var (
	// Toggles counts committed completion toggles by direction (complete, uncomplete)
	Toggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Committed completion toggles",
		},
		[]string{"direction"},
	)

	// GoalsAchieved counts habits deactivated for reaching their target
	GoalsAchieved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goals_achieved_total",
			Help:      "Habits that reached their target days",
		},
	)

	// NotifyFailures counts platform notifications that could not be delivered
	NotifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_failures_total",
			Help:      "Platform notification delivery failures",
		},
		[]string{"type"},
	)

	// PersistDuration tracks how long a debounced toggle persist takes
	PersistDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Duration of debounced completion persists",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"status"},
	)

	// PendingWrites is the number of optimistic toggles not yet persisted
	PendingWrites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_writes",
			Help:      "Optimistic toggles waiting to be persisted",
		},
	)
)

// RecordToggle counts a committed toggle
func RecordToggle(completed bool) {
	if completed {
		Toggles.WithLabelValues("complete").Inc()
		return
	}
	Toggles.WithLabelValues("uncomplete").Inc()
}

// RecordPersist observes a debounced persist
func RecordPersist(start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	PersistDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// WriteSummary prints every habitkeeper metric gathered from g, one line per series
func WriteSummary(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), namespace+"_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %s", mf.GetName(), labels(m), value(mf.GetType(), m)))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func labels(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func value(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}
