package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// phaseReporter exposes the current flow phase to the health check.
type phaseReporter interface {
	Phase() domain.Phase
}

// newMetricsRouter serves /metrics from gatherer and a /healthz health check.
func newMetricsRouter(gatherer prometheus.Gatherer, reporter phaseReporter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Recall-Phase", reporter.Phase().String())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return otelhttp.NewHandler(r, "recall-metrics")
}
