package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kiosk/internal/platform/metrics"
	"kiosk/pkg/platform/middleware/metadata"
	"kiosk/pkg/platform/middleware/request"
	"kiosk/pkg/platform/middleware/requesttime"
)

// NewRouter wires the kiosk API under /api, plus /healthz and /metrics.
// m may be nil, in which case request latency is not recorded.
func NewRouter(h *Handler, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(logger))
	r.Use(metrics.LatencyMiddleware(m))

	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", h.Register)
	return r
}
