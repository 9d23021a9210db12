// Package metrics exposes process counters in Prometheus text format.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// ObserveFetch records one outbound call. A failed call is counted under
// status="error" regardless of any response seen before the failure.
func ObserveFetch(method string, status int, err error, d time.Duration) {
	class := "error"
	if err == nil {
		class = fmt.Sprintf("%dxx", status/100)
	}
	vm.GetOrCreateCounter(fmt.Sprintf(`fingerpost_fetch_requests_total{method=%q,status=%q}`, method, class)).Inc()
	vm.GetOrCreateHistogram(fmt.Sprintf(`fingerpost_fetch_duration_seconds{method=%q}`, method)).Update(d.Seconds())
}

// ObserveResolution records the outcome of one WebFinger resolution.
// locality is "local", "remote" or "unknown"; outcome names the result kind.
func ObserveResolution(locality, outcome string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`fingerpost_resolutions_total{locality=%q,outcome=%q}`, locality, outcome)).Inc()
}

// ObserveRateLimited counts requests rejected by the rate limiter.
func ObserveRateLimited(route string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`fingerpost_ratelimit_rejected_total{route=%q}`, route)).Inc()
}

// ObserveProbeFailure counts avatar media-type probes that failed.
func ObserveProbeFailure() {
	vm.GetOrCreateCounter(`fingerpost_probe_failures_total`).Inc()
}

// Handler serves all registered metrics plus process metrics.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		vm.WritePrometheus(w, true)
	}
}
