package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sifan077/PulseTrack/config"
)

const defaultPort = 9090

// NewServer exposes the ingestion and rate-limit counters (see metrics.go)
// on /metrics. It listens on its own port so the scrape endpoint is never
// reachable through the public beacon surface, and is only started in
// production runs.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
		// A scrape is a single small GET; anything slow is a stuck client.
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}
