package http

import (
	"net/http"

	"product-api/internal/logger"
	"product-api/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthHandler struct {
	service *service.HealthService
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service *service.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

// Liveness answers GET / with a fixed text body.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("main"))
}

// Check answers GET /healthz with the store status.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()
	logger.Info(ctx, "HttpHealthHandler.Check")

	status := h.service.Check(ctx)

	code := http.StatusOK
	if status.Overall() == service.StatusDown {
		code = http.StatusInternalServerError
	}

	writeJSON(w, code, map[string]any{
		"status": status.Overall(),
		"data": map[string]string{
			"mongodb": status.Mongo,
		},
	})
}
