package tracer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"product-api/internal/logger"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

type Options struct {
	AppName      string
	Version      string
	Environment  string
	OTLPEndpoint string    // OTLP/gRPC collector, e.g. tempo:4317
	Stdout       bool      // print spans when no collector is configured
	StdoutWriter io.Writer // defaults to os.Stdout
	ProfilingURI string    // Pyroscope server; empty disables profiling
}

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}()

// Init installs the global tracer provider and text map propagator, and starts
// the profiler when configured. The returned function flushes and stops both.
func Init(ctx context.Context, opts Options) (func(context.Context) error, error) {
	exporter, err := newExporter(ctx, opts)
	if err != nil {
		logger.Error(ctx, "Failed to create trace exporter", slog.String("error", err.Error()))
		return nil, err
	}

	env := opts.Environment
	if env == "" {
		env = "production"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(opts.AppName),
			semconv.ServiceVersionKey.String(opts.Version),
			attribute.String("env", env),
		),
	)
	if err != nil {
		logger.Error(ctx, "Failed to create resource", slog.String("error", err.Error()))
		return nil, err
	}

	tpOpts := []trace.TracerProviderOption{trace.WithResource(res)}
	if exporter != nil {
		tpOpts = append(tpOpts, trace.WithBatcher(exporter))
	}
	tp := trace.NewTracerProvider(tpOpts...)

	// Spans carry pyroscope.profile.id so traces link to profiles.
	otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info(ctx, "OpenTelemetry Tracer initialized", slog.Bool("exporting", exporter != nil))

	var profiler *pyroscope.Profiler
	if opts.ProfilingURI != "" {
		profiler, err = pyroscope.Start(pyroscope.Config{
			ApplicationName: opts.AppName,
			ServerAddress:   opts.ProfilingURI,
			Logger:          pyroLogrus,
			Tags:            map[string]string{"version": opts.Version},
		})
		if err != nil {
			// Profiling is best effort; tracing stays up.
			logger.Error(ctx, "Pyroscope failed to start", slog.String("error", err.Error()))
		} else {
			logger.Info(ctx, "Pyroscope started successfully")
		}
	}

	return func(shutdownCtx context.Context) error {
		var errs []error
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Error shutting down tracer provider", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		if profiler != nil {
			if err := profiler.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}, nil
}

func newExporter(ctx context.Context, opts Options) (trace.SpanExporter, error) {
	switch {
	case opts.OTLPEndpoint != "":
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(opts.OTLPEndpoint),
			otlptracegrpc.WithCompressor("gzip"),
		)
	case opts.Stdout:
		w := opts.StdoutWriter
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	default:
		return nil, nil
	}
}
