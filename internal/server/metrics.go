package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	apperrors "github.com/ambientdeck/ambientdeck/internal/errors"
	"github.com/ambientdeck/ambientdeck/internal/observability"
)

const (
	defaultMetricsPort    = 9090
	prometheusContentType = "text/plain; version=0.0.4"
)

// hopHeaders belong to the exporter connection and are never relayed.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// MetricsProxy relays the Prometheus exporter's scrape output so the deck's
// request, board and slideshow metrics are reachable on the API listener.
type MetricsProxy struct {
	Client *http.Client
	// Port reports the exporter port. Zero falls back to metrics.port,
	// then 9090.
	Port func() int
}

func newMetricsProxy() *MetricsProxy {
	return &MetricsProxy{
		Client: &http.Client{Timeout: 5 * time.Second},
		Port:   observability.GetMetricsPort,
	}
}

func (p *MetricsProxy) target() string {
	port := 0
	if p.Port != nil {
		port = p.Port()
	}
	if port == 0 {
		port = viper.GetInt("metrics.port")
	}
	if port == 0 {
		port = defaultMetricsPort
	}
	return fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
}

func (p *MetricsProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if observability.PrometheusExporter == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("metrics exporter not initialized"))
		return
	}

	target := p.target()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		envelope, _ := apperrors.NewInternalError("cannot build metrics request").
			WithContext(map[string]interface{}{"metrics_url": target, "original_error": err.Error()})
		HandleError(w, r, envelope)
		return
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		envelope, _ := errors.NewErrorEnvelope(apperrors.CodeExternalService, "metrics exporter unreachable").
			WithContext(map[string]interface{}{"metrics_url": target, "original_error": err.Error()})
		HandleError(w, r, envelope)
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Failed to close metrics response body", zap.Error(err))
		}
	}()

	copyMetricsHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
		observability.ServerLogger.Warn("Failed to relay metrics", zap.Error(err))
	}
}

func copyMetricsHeaders(dst, src http.Header) {
	for key, values := range src {
		if _, hop := hopHeaders[http.CanonicalHeaderKey(key)]; hop {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	if dst.Get("Content-Type") == "" {
		dst.Set("Content-Type", prometheusContentType)
	}
}
