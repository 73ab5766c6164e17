package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// connectionStateValues — кодировка состояния соединения для gauge.
var connectionStateValues = map[string]float64{
	"disconnected": 0,
	"connecting":   1,
	"connected":    2,
	"error":        3,
	"degraded":     4,
}

// SyncMetrics содержит метрики синхронизации заказов.
type SyncMetrics struct {
	// Счётчики применённых live-событий по типу (upsert/delete).
	eventsApplied *prometheus.CounterVec
	// Счётчики snapshot-загрузок по результату (ok/failed/skipped).
	snapshotLoads *prometheus.CounterVec
	// Счётчик попыток переподключения.
	reconnectAttempts prometheus.Counter
	// Счётчик входов в деградированный режим.
	degradedEntries prometheus.Counter

	// Гистограмма времени snapshot-загрузки.
	snapshotDuration prometheus.Histogram

	// Gauge текущего состояния соединения и размера коллекции.
	connectionState prometheus.Gauge
	collectionSize  prometheus.Gauge
}

// NewSyncMetrics создаёт метрики синхронизации в default-регистраторе.
func NewSyncMetrics() *SyncMetrics {
	return newSyncMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSyncMetricsWithRegisterer(registerer prometheus.Registerer) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SyncMetrics{
		eventsApplied: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ordersync_events_applied_total",
			Help: "Total number of live events applied to the order collection",
		}, []string{"type"}),
		snapshotLoads: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ordersync_snapshot_loads_total",
			Help: "Total number of snapshot loads by result",
		}, []string{"result"}),
		reconnectAttempts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordersync_reconnect_attempts_total",
			Help: "Total number of live channel reconnect attempts",
		}),
		degradedEntries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordersync_degraded_entries_total",
			Help: "Total number of transitions into polling fallback mode",
		}),
		snapshotDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ordersync_snapshot_duration_seconds",
			Help:    "Duration of snapshot loads in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		connectionState: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ordersync_connection_state",
			Help: "Current live channel state (0=disconnected 1=connecting 2=connected 3=error 4=degraded)",
		}),
		collectionSize: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ordersync_orders",
			Help: "Current number of orders in the canonical collection",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordUpsertApplied увеличивает счётчик применённых upsert-событий.
func (m *SyncMetrics) RecordUpsertApplied() {
	m.eventsApplied.WithLabelValues("upsert").Inc()
}

// RecordDeleteApplied увеличивает счётчик применённых удалений.
func (m *SyncMetrics) RecordDeleteApplied() {
	m.eventsApplied.WithLabelValues("delete").Inc()
}

// RecordSnapshot записывает результат и длительность snapshot-загрузки.
func (m *SyncMetrics) RecordSnapshot(result string, duration time.Duration) {
	m.snapshotLoads.WithLabelValues(result).Inc()
	m.snapshotDuration.Observe(duration.Seconds())
}

// RecordReconnectAttempt увеличивает счётчик попыток переподключения.
func (m *SyncMetrics) RecordReconnectAttempt() {
	m.reconnectAttempts.Inc()
}

// RecordDegradedEntry увеличивает счётчик входов в режим опроса.
func (m *SyncMetrics) RecordDegradedEntry() {
	m.degradedEntries.Inc()
}

// SetConnectionState выставляет gauge состояния соединения.
func (m *SyncMetrics) SetConnectionState(state string) {
	if v, ok := connectionStateValues[state]; ok {
		m.connectionState.Set(v)
	}
}

// SetCollectionSize выставляет gauge размера коллекции.
func (m *SyncMetrics) SetCollectionSize(n int) {
	m.collectionSize.Set(float64(n))
}
