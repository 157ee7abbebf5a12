package metrics

import (
	"strconv"
	"time"

	"github.com/ambientdeck/ambientdeck/internal/observability"
)

// Metric names, Prometheus style.
const (
	LimiterAdmissionsTotal = "limiter_admissions_total"
	LimiterWaitDuration    = "limiter_wait_duration_ms"

	BoardRequestsTotal   = "board_requests_total"
	BoardRequestDuration = "board_request_duration_ms"
	BoardRateLimited     = "board_rate_limited_total"

	SlideChangesTotal = "slide_changes_total"
	SlideCount        = "slide_count"
	SlideInterval     = "slide_interval_seconds"

	ImportFilesTotal     = "import_files_total"
	NotificationsTotal   = "notifications_total"
	PinCacheLookupsTotal = "pin_cache_lookups_total"

	HealthCheckTotal    = "health_check_total"
	HealthCheckDuration = "health_check_duration_ms"
	ServerStartTime     = "server_start_time_seconds"
	ServerUptime        = "server_uptime_seconds"
)

// RecordAdmission counts a limiter admission and how long it had to wait.
func RecordAdmission(waited time.Duration) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	delayed := "false"
	if waited > 0 {
		delayed = "true"
	}
	_ = sys.Counter(LimiterAdmissionsTotal, 1, map[string]string{"delayed": delayed})
	_ = sys.Histogram(LimiterWaitDuration, waited, nil)
}

// RecordBoardRequest counts an upstream call by endpoint and outcome
// (ok, empty, failed, rate_limited).
func RecordBoardRequest(endpoint, outcome string, duration time.Duration) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	labels := map[string]string{"endpoint": endpoint, "outcome": outcome}
	_ = sys.Counter(BoardRequestsTotal, 1, labels)
	_ = sys.Histogram(BoardRequestDuration, duration, map[string]string{"endpoint": endpoint})
	if outcome == "rate_limited" {
		_ = sys.Counter(BoardRateLimited, 1, map[string]string{"endpoint": endpoint})
	}
}

// RecordSlideChange counts an index change and tracks the deck size.
func RecordSlideChange(source string, total int) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(SlideChangesTotal, 1, map[string]string{"source": source})
	_ = sys.Gauge(SlideCount, float64(total), nil)
}

// SetSlideInterval publishes the effective (clamped) interval.
func SetSlideInterval(interval time.Duration) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(SlideInterval, interval.Seconds(), nil)
	}
}

// RecordImport counts accepted and rejected files of one import batch.
func RecordImport(accepted, rejected int) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ImportFilesTotal, float64(accepted), map[string]string{"status": "accepted"})
	_ = sys.Counter(ImportFilesTotal, float64(rejected), map[string]string{"status": "rejected"})
}

// RecordNotification counts a shown notification by severity.
func RecordNotification(severity string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(NotificationsTotal, 1, map[string]string{"severity": severity})
	}
}

// RecordPinCacheLookup counts pin cache hits and misses.
func RecordPinCacheLookup(hit bool) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(PinCacheLookupsTotal, 1, map[string]string{"hit": strconv.FormatBool(hit)})
	}
}

// RecordHealthCheck records a health check execution.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	_ = sys.Counter(HealthCheckTotal, 1, map[string]string{"check": checkName, "status": status})
	_ = sys.Histogram(HealthCheckDuration, duration, map[string]string{"check": checkName})
}

// SetServerStartTime records the server start time (Unix seconds).
func SetServerStartTime(timestamp int64) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(ServerStartTime, float64(timestamp), nil)
	}
}

// SetServerUptime records the server uptime in seconds.
func SetServerUptime(seconds int64) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(ServerUptime, float64(seconds), nil)
	}
}
