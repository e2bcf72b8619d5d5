package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codetrack",
		Subsystem: "providercache",
		Name:      "hits_total",
		Help:      "Number of provider calls served from cache, labeled by endpoint template.",
	}, []string{"endpoint"})

	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codetrack",
		Subsystem: "providercache",
		Name:      "misses_total",
		Help:      "Number of provider calls that required a fresh fetch, labeled by endpoint template.",
	}, []string{"endpoint"})

	providerRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codetrack",
		Subsystem: "providers",
		Name:      "request_duration_seconds",
		Help:      "Latency of outbound provider HTTP requests, labeled by provider.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
	}, []string{"provider"})

	activityPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "codetrack",
		Subsystem: "persistence",
		Name:      "last_activity_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity record written to Postgres.",
	})

	externalSyncCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "codetrack",
		Subsystem: "sync",
		Name:      "external_days_upserted_total",
		Help:      "Count of provider-reported activity days upserted by sync runs.",
	})
)

func init() {
	prometheus.MustRegister(cacheHitCounter, cacheMissCounter, providerRequestDuration, activityPersistGauge, externalSyncCounter)
}

// RecordCacheHit increments the hit counter for an endpoint template.
func RecordCacheHit(endpoint string) {
	cacheHitCounter.WithLabelValues(endpoint).Inc()
}

// RecordCacheMiss increments the miss counter for an endpoint template.
func RecordCacheMiss(endpoint string) {
	cacheMissCounter.WithLabelValues(endpoint).Inc()
}

// ObserveProviderRequest records the latency of one outbound provider call.
func ObserveProviderRequest(provider string, elapsed time.Duration) {
	providerRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordActivityPersisted updates the persistence watermark gauge.
func RecordActivityPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	activityPersistGauge.Set(float64(ts.Unix()))
}

// RecordExternalDaysSynced adds to the sync counter.
func RecordExternalDaysSynced(count int) {
	if count <= 0 {
		return
	}
	externalSyncCounter.Add(float64(count))
}
