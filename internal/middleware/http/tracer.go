package middleware_http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"product-api/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

const TraceIDHeader = "X-Trace-ID"

var tracer = otel.Tracer("HttpMiddleware")

// TraceMiddleware wraps HTTP handlers with OpenTelemetry tracing.
// It continues an incoming W3C trace, tags the response with X-Trace-ID and
// X-Request-ID, logs the request and response, and turns a panic into a 500.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			reqID := requestID(r.Header.Get(RequestIDHeader))
			ctx = withRequestID(ctx, reqID)

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPMethodKey.String(r.Method),
					semconv.HTTPTargetKey.String(r.URL.RequestURI()),
					attribute.String("http.request_id", reqID),
				),
			)
			defer span.End()
			r = r.WithContext(ctx)

			body, err := logger.CaptureBody(r)
			if err != nil {
				logger.Warn(ctx, "Failed to capture request body", slog.String("error", err.Error()))
			}
			logger.Info(ctx, "HTTP", append(logger.RequestAttrs(r, body), slog.String("request_id", reqID))...)

			rw := NewResponseWriter(w)
			rw.Header().Set(TraceIDHeader, span.SpanContext().TraceID().String())
			rw.Header().Set(RequestIDHeader, reqID)
			start := time.Now()

			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					recovered := errFromRecover(rec)
					span.RecordError(recovered)
					logger.Error(ctx, "Recovered from panic", slog.String("error", recovered.Error()))
					if !rw.WroteHeader() {
						rw.Header().Set("Content-Type", "application/json; charset=utf-8")
						rw.WriteHeader(http.StatusInternalServerError)
						_, _ = rw.Write([]byte(`{"message":"Internal Server Error"}` + "\n"))
					}
				}

				span.SetAttributes(semconv.HTTPStatusCodeKey.Int(rw.StatusCode()))
				setSpanStatus(span, rw.StatusCode())
				logger.Info(ctx, "HTTP", append(
					logger.ResponseAttrs(r, rw.Header(), rw.StatusCode(), rw.Body(), time.Since(start)),
					slog.String("request_id", reqID),
				)...)
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

func setSpanStatus(span trace.Span, status int) {
	switch {
	case status >= 500:
		span.SetStatus(codes.Error, "internal server error")
	case status >= 400:
		span.SetStatus(codes.Error, "client error")
	default:
		span.SetStatus(codes.Ok, "")
	}
}

// errFromRecover converts a panic value into an error for span recording.
func errFromRecover(rec any) error {
	switch v := rec.(type) {
	case error:
		return fmt.Errorf("panic: %w", v)
	case string:
		return errors.New("panic: " + v)
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
