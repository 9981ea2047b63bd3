package http

import "net/http"

// NewRouter registers the product API, liveness and readiness routes.
func NewRouter(products *ProductHandler, health *HealthHandler, reporter ErrorReporter) *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(fn HandlerFunc) http.Handler { return Handle(fn, reporter) }

	mux.Handle("POST /api/products", handle(products.Create))
	mux.Handle("GET /api/products", handle(products.List))
	mux.Handle("GET /api/products/{productId}", handle(products.GetByID))
	mux.Handle("PUT /api/products/{productId}", handle(products.Update))
	mux.Handle("DELETE /api/products/{productId}", handle(products.Delete))

	mux.HandleFunc("GET /{$}", health.Liveness)
	mux.HandleFunc("GET /healthz", health.Check)

	return mux
}
