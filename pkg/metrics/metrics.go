// Package metrics - prometheus коллекторы reviews-service и stats-worker.
// Все метрики в пространстве имен opaque_*, метка service различает процессы.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opaque"

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// HTTP
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route template and status.",
	}, []string{"service", "method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   latencyBuckets,
	}, []string{"service", "method", "route"})

	HTTPInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	}, []string{"service"})
)

// Хранилище отзывов (PostgreSQL или MongoDB)
var (
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Review store query latency.",
		Buckets:   latencyBuckets,
	}, []string{"service", "operation", "table"})

	DBErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "errors_total",
		Help:      "Failed review store queries.",
	}, []string{"service", "operation", "table"})
)

// Redis
var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "redis",
		Name:      "cache_lookups_total",
		Help:      "Snapshot lookups by result (hit, miss).",
	}, []string{"service", "key", "result"})

	RedisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "redis",
		Name:      "command_duration_seconds",
		Help:      "Redis command latency.",
		Buckets:   latencyBuckets,
	}, []string{"service", "command"})

	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "redis",
		Name:      "errors_total",
		Help:      "Failed Redis commands.",
	}, []string{"service", "command"})
)

// Kafka
var (
	KafkaProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "messages_produced_total",
		Help:      "Review events written to Kafka.",
	}, []string{"service", "topic"})

	KafkaProduceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "produce_duration_seconds",
		Help:      "Kafka write latency.",
		Buckets:   latencyBuckets,
	}, []string{"service", "topic"})

	KafkaConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "messages_consumed_total",
		Help:      "Review events handled by a consumer group.",
	}, []string{"service", "topic", "group"})

	KafkaHandleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "handle_duration_seconds",
		Help:      "Time to handle one consumed event.",
		Buckets:   latencyBuckets,
	}, []string{"service", "topic"})

	// сколько сообщений партиции осталось прочитать после последнего обработанного
	KafkaConsumerLag = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "consumer_lag",
		Help:      "Messages left in the partition after the last handled one.",
	}, []string{"service", "topic", "group", "partition"})

	// operation: produce, fetch, decode, process, commit
	KafkaErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kafka",
		Name:      "errors_total",
		Help:      "Kafka errors by operation.",
	}, []string{"service", "topic", "operation"})
)

// Отзывы и админка
var (
	ReviewsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reviews",
		Name:      "created_total",
		Help:      "Reviews submitted.",
	})

	ReviewsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reviews",
		Name:      "deleted_total",
		Help:      "Reviews deleted from the admin API.",
	})

	ReviewsRating = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reviews",
		Name:      "rating",
		Help:      "Ratings of submitted reviews.",
		Buckets:   []float64{1, 2, 3, 4, 5},
	})

	// status: success, failed, inactive
	AdminLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "admin",
		Name:      "logins_total",
		Help:      "Admin login attempts.",
	}, []string{"status"})
)

// Снапшот распределения оценок
var (
	// status: success, failed
	StatsSnapshotRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stats",
		Name:      "snapshot_rebuilds_total",
		Help:      "Full rebuilds of the rating snapshot.",
	}, []string{"status"})

	// status: applied, rebuilt, noop, failed
	StatsEventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stats",
		Name:      "events_total",
		Help:      "Review events folded into the rating snapshot.",
	}, []string{"event_type", "status"})
)
