package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TrackerMetrics содержит метрики записи и чтения журнала заказов.
type TrackerMetrics struct {
	// Счётчики операций записи
	ordersCreated  prometheus.Counter
	eventsAppended *prometheus.CounterVec
	eventsRejected *prometheus.CounterVec

	// Гистограммы времени выполнения
	appendDuration prometheus.Histogram
	replayDuration prometheus.Histogram

	// Счётчик опубликованных в Kafka событий
	kafkaPublished prometheus.Counter
}

// NewTrackerMetrics создаёт новый экземпляр метрик трекера.
func NewTrackerMetrics() *TrackerMetrics {
	return newTrackerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newTrackerMetricsWithRegisterer(registerer prometheus.Registerer) *TrackerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &TrackerMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "atelier_orders_created_total",
			Help: "Total number of work orders created",
		}),
		eventsAppended: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "atelier_events_appended_total",
			Help: "Total number of events appended to the log",
		}, []string{"kind"}),
		eventsRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "atelier_events_rejected_total",
			Help: "Total number of rejected operator actions",
		}, []string{"reason"}),
		appendDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "atelier_event_append_duration_seconds",
			Help:    "Duration of the append-and-apply write path in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		replayDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "atelier_replay_duration_seconds",
			Help:    "Duration of timeline reconstruction in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		kafkaPublished: registerCounter(registerer, prometheus.CounterOpts{
			Name: "atelier_kafka_events_published_total",
			Help: "Total number of tracking events published to Kafka",
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

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *TrackerMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordEventAppended увеличивает счётчик записанных событий.
func (m *TrackerMetrics) RecordEventAppended(kind string) {
	m.eventsAppended.WithLabelValues(kind).Inc()
}

// RecordEventRejected увеличивает счётчик отклонённых действий.
func (m *TrackerMetrics) RecordEventRejected(reason string) {
	m.eventsRejected.WithLabelValues(reason).Inc()
}

// ObserveAppendDuration записывает время пути записи.
func (m *TrackerMetrics) ObserveAppendDuration(duration time.Duration) {
	m.appendDuration.Observe(duration.Seconds())
}

// ObserveReplayDuration записывает время восстановления таймлайна.
func (m *TrackerMetrics) ObserveReplayDuration(duration time.Duration) {
	m.replayDuration.Observe(duration.Seconds())
}

// RecordKafkaPublished увеличивает счётчик публикаций в Kafka.
func (m *TrackerMetrics) RecordKafkaPublished() {
	m.kafkaPublished.Inc()
}
