package metrics

import (
	"strconv"
	"time"

	"github.com/ambientdeck/ambientdeck/internal/observability"
)

const (
	RequestsTotalName    = "http_requests_total"
	RequestDurationName  = "http_request_duration_ms"
	RequestSizeName      = "http_request_size_bytes"
	ResponseSizeName     = "http_response_size_bytes"
	HTTPErrorsTotalName  = "http_errors_total"
	UploadBytesTotalName = "upload_bytes_total"
)

// RecordHTTPRequest records one served request. endpoint must be a route
// pattern, never a raw path.
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration, requestSize, responseSize int64) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}

	labels := map[string]string{
		"method":   method,
		"endpoint": endpoint,
		"status":   strconv.Itoa(status),
	}
	_ = sys.Counter(RequestsTotalName, 1, labels)
	_ = sys.Histogram(RequestDurationName, duration, labels)

	sizeLabels := map[string]string{"method": method, "endpoint": endpoint}
	_ = sys.Gauge(RequestSizeName, float64(requestSize), sizeLabels)
	_ = sys.Gauge(ResponseSizeName, float64(responseSize), sizeLabels)

	if status >= 400 {
		errorType := "client_error"
		if status >= 500 {
			errorType = "server_error"
		}
		_ = sys.Counter(HTTPErrorsTotalName, 1, map[string]string{
			"method":     method,
			"endpoint":   endpoint,
			"status":     strconv.Itoa(status),
			"error_type": errorType,
		})
	}
}

// RecordUploadBytes counts bytes received by the upload endpoint.
func RecordUploadBytes(n int64) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(UploadBytesTotalName, float64(n), nil)
	}
}
