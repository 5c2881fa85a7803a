package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	scanOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_outcomes_total",
			Help: "Scan attempts by outcome",
		},
		[]string{"outcome"},
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Duration of scan validation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	issuedCodes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "issued_codes_total",
			Help: "Total signed codes issued",
		},
	)

	redeemedValue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "redeemed_value_total",
			Help: "Running total of redeemed prize value",
		},
	)
)

// TrackScan counts one scan attempt.
func TrackScan(outcome string, duration time.Duration) {
	scanOutcomes.WithLabelValues(outcome).Inc()
	scanDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// TrackIssuedCodes counts codes produced by the issuer.
func TrackIssuedCodes(n int) {
	issuedCodes.Add(float64(n))
}

// Monitor mirrors the Redis live counters into Prometheus gauges.
type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()

		value, err := m.redis.Get(ctx, "scans:value:accepted").Int64()
		if err != nil {
			continue
		}
		redeemedValue.Set(float64(value))
	}
}
