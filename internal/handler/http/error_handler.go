package http

import (
	"errors"
	"log/slog"
	"net/http"

	"product-api/internal/logger"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorReporter renders errors forwarded by handlers.
type ErrorReporter interface {
	Report(w http.ResponseWriter, r *http.Request, err error)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(w http.ResponseWriter, r *http.Request, err error)

func (f ErrorReporterFunc) Report(w http.ResponseWriter, r *http.Request, err error) {
	f(w, r, err)
}

type ErrorBody struct {
	Message string `json:"message"`
}

// JSONErrorReporter answers {"message": err.Error()} with status 500, or with
// the status of an error that carries one.
type JSONErrorReporter struct{}

func (JSONErrorReporter) Report(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var withStatus interface{ StatusCode() int }
	if errors.As(err, &withStatus) {
		status = withStatus.StatusCode()
	}

	ctx := r.Context()
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	logger.Error(ctx, "Request failed",
		slog.String("error", err.Error()),
		slog.Int("http.status", status),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	)

	writeJSON(w, status, ErrorBody{Message: err.Error()})
}
