package middleware_grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestMetadataCarrierRoundTrip(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	md := metadata.MD{}
	propagation.TraceContext{}.Inject(ctx, metadataCarrier(md))
	require.NotEmpty(t, md.Get("traceparent"))
	assert.Contains(t, metadataCarrier(md).Keys(), "traceparent")

	extracted := propagation.TraceContext{}.Extract(context.Background(), metadataCarrier(md))
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(extracted).TraceID())
}

func TestUnaryTracingInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/product.v1.ProductService/Get"}
	intercept := UnaryTracingInterceptor()

	t.Run("passes through", func(t *testing.T) {
		resp, err := intercept(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
			return "resp", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "resp", resp)
	})

	t.Run("keeps handler error", func(t *testing.T) {
		want := status.Error(codes.NotFound, "product not found")
		_, err := intercept(context.Background(), "req", info, func(context.Context, any) (any, error) {
			return nil, want
		})
		assert.Equal(t, want, err)
	})

	t.Run("recovers panic", func(t *testing.T) {
		_, err := intercept(context.Background(), "req", info, func(context.Context, any) (any, error) {
			panic(errors.New("boom"))
		})
		assert.Equal(t, codes.Internal, status.Code(err))
	})
}
