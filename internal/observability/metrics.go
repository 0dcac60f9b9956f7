package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/dojoquest-backend/internal/platform/envutil"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
)

// Metrics holds every series the service exports. A nil *Metrics is valid and
// records nothing, so callers never need to check Enabled().
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	xpAwarded       *CounterVec
	xpEntries       *CounterVec
	rateLimitDenied *CounterVec
	dailyChallenge  *CounterVec
	submissions     *CounterVec
	pvpResolved     *CounterVec
	notifications   *CounterVec

	upstreamRequests *CounterVec
	upstreamLatency  *HistogramVec

	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Seconds("METRICS_SCRAPE_INTERVAL_SECONDS", 15*time.Second)
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	latencyBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	return &Metrics{
		apiRequests: NewCounterVec("dq_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("dq_api_request_duration_seconds", "API request latency in seconds.", []string{"method", "route", "status"}, latencyBuckets),
		apiInflight: NewGauge("dq_api_inflight_requests", "In-flight API requests."),

		xpAwarded:       NewCounterVec("dq_xp_awarded_total", "XP granted through the ledger by source.", []string{"source"}),
		xpEntries:       NewCounterVec("dq_xp_ledger_entries_total", "Ledger entries appended by direction/source.", []string{"direction", "source"}),
		rateLimitDenied: NewCounterVec("dq_rate_limit_denied_total", "Award attempts denied by the anti-cheat guard.", []string{"policy"}),
		dailyChallenge:  NewCounterVec("dq_daily_challenge_lookups_total", "Daily challenge lookups by provenance.", []string{"provenance"}),
		submissions:     NewCounterVec("dq_submissions_total", "Challenge submissions by mode/status.", []string{"mode", "status"}),
		pvpResolved:     NewCounterVec("dq_pvp_resolved_total", "PvP matches resolved by outcome.", []string{"outcome"}),
		notifications:   NewCounterVec("dq_notifications_total", "Notification deliveries by channel/status.", []string{"channel", "status"}),

		upstreamRequests: NewCounterVec("dq_upstream_requests_total", "Calls to external services.", []string{"service", "operation", "status"}),
		upstreamLatency:  NewHistogramVec("dq_upstream_request_duration_seconds", "External call latency in seconds.", []string{"service", "operation"}, latencyBuckets),

		aggregateLatency:   NewHistogramVec("dq_aggregate_operation_duration_seconds", "Transactional write latency by operation/status.", []string{"operation", "status"}, latencyBuckets),
		aggregateConflicts: NewCounterVec("dq_aggregate_conflicts_total", "Write conflicts by operation.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("dq_aggregate_retries_total", "Retried writes by operation.", []string{"operation"}),

		pgStats:   NewGaugeVec("dq_postgres_pool", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("dq_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("dq_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed && log != nil {
			log.Error("metrics server failed", "error", err, "addr", addr)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	series := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.xpAwarded, m.xpEntries, m.rateLimitDenied, m.dailyChallenge, m.submissions, m.pvpResolved, m.notifications,
		m.upstreamRequests, m.upstreamLatency,
		m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.pgStats, m.redisUp, m.redisPing,
	}
	for _, s := range series {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveLedgerEntry records one appended ledger row. amount is signed.
func (m *Metrics) ObserveLedgerEntry(direction, source string, amount int64) {
	if m == nil {
		return
	}
	m.xpEntries.Inc(direction, source)
	if amount > 0 {
		m.xpAwarded.Add(float64(amount), source)
	}
}

func (m *Metrics) IncRateLimitDenied(policy string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Inc(policy)
}

func (m *Metrics) IncDailyChallenge(provenance string) {
	if m == nil {
		return
	}
	m.dailyChallenge.Inc(provenance)
}

func (m *Metrics) IncSubmission(mode, status string) {
	if m == nil {
		return
	}
	m.submissions.Inc(mode, status)
}

func (m *Metrics) IncPvpResolved(outcome string) {
	if m == nil {
		return
	}
	m.pvpResolved.Inc(outcome)
}

func (m *Metrics) IncNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notifications.Inc(channel, status)
}

func (m *Metrics) ObserveUpstream(service, operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.Inc(service, operation, status)
	m.upstreamLatency.Observe(dur.Seconds(), service, operation)
}

func (m *Metrics) ObserveAggregateOperation(operation, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateLatency.Observe(dur.Seconds(), operation, status)
}

func (m *Metrics) IncAggregateConflict(operation string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(operation)
}

func (m *Metrics) IncAggregateRetry(operation string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(operation)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

// StartRedisCollector pings through the shared client; it does not own or close it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
