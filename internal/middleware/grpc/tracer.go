package middleware_grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"product-api/internal/logger"

	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

var tracer = otel.Tracer("GrpcMiddleware")

// UnaryTracingInterceptor continues the caller's trace, logs each call and
// turns a handler panic into codes.Internal.
func UnaryTracingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			ctx = otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))
		}

		ctx, span := tracer.Start(ctx, info.FullMethod,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.RPCSystemKey.String("grpc"),
				semconv.RPCMethodKey.String(info.FullMethod),
			),
		)
		defer span.End()

		var remoteAddr string
		if p, ok := peer.FromContext(ctx); ok {
			remoteAddr = p.Addr.String()
		}

		reqBody, _ := json.Marshal(req)
		logger.Info(ctx, "GrpcMiddleware",
			slog.String("grpc.method", info.FullMethod),
			slog.String("grpc.remote", remoteAddr),
			slog.String("grpc.body", string(reqBody)),
		)

		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				err = status.Error(codes.Internal, fmt.Sprintf("panic: %v", rec))
				logger.Error(ctx, "Recovered from panic", slog.String("error", err.Error()))
			}

			code := status.Code(err)
			span.SetAttributes(semconv.RPCGRPCStatusCodeKey.Int(int(code)))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(otelcodes.Error, err.Error())
			}
			logger.Info(ctx, "GrpcMiddleware",
				slog.String("grpc.method", info.FullMethod),
				slog.String("grpc.code", code.String()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		}()

		return handler(ctx, req)
	}
}

// UnaryClientTracingInterceptor injects the current trace into outgoing metadata.
func UnaryClientTracingInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, span := tracer.Start(ctx, method, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()

		md, ok := metadata.FromOutgoingContext(ctx)
		if ok {
			md = md.Copy()
		} else {
			md = metadata.MD{}
		}
		otel.GetTextMapPropagator().Inject(ctx, metadataCarrier(md))
		ctx = metadata.NewOutgoingContext(ctx, md)

		err := invoker(ctx, method, req, reply, cc, opts...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		return err
	}
}
