package middleware_http

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var spans = tracetest.NewSpanRecorder()

func TestMain(m *testing.M) {
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)))
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	os.Exit(m.Run())
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	TraceMiddleware()(h).ServeHTTP(rec, r)
	return rec
}

func lastSpan(t *testing.T) sdktrace.ReadOnlySpan {
	t.Helper()
	ended := spans.Ended()
	require.NotEmpty(t, ended)
	return ended[len(ended)-1]
}

func TestTraceMiddleware_SetsCorrelationHeaders(t *testing.T) {
	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	reqID := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(reqID)
	require.NoError(t, err)
	assert.Equal(t, reqID, seen)

	span := lastSpan(t)
	assert.Equal(t, span.SpanContext().TraceID().String(), rec.Header().Get(TraceIDHeader))
	assert.Equal(t, "GET /api/products", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)
}

func TestTraceMiddleware_RequestID(t *testing.T) {
	incoming := uuid.NewString()

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "kept when valid", header: incoming, keep: true},
		{name: "replaced when invalid", header: "not-a-uuid"},
		{name: "generated when absent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set(RequestIDHeader, tt.header)
			}

			rec := serve(http.NotFoundHandler(), r)

			got := rec.Header().Get(RequestIDHeader)
			if tt.keep {
				assert.Equal(t, tt.header, got)
				return
			}
			assert.NotEqual(t, tt.header, got)
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}
}

func TestTraceMiddleware_ContinuesIncomingTrace(t *testing.T) {
	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	r.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")

	rec := serve(http.NotFoundHandler(), r)

	assert.Equal(t, traceID, rec.Header().Get(TraceIDHeader))
	span := lastSpan(t)
	assert.Equal(t, traceID, span.Parent().TraceID().String())
	assert.Equal(t, codes.Error, span.Status().Code)
}

func TestTraceMiddleware_HandlerStillReadsBody(t *testing.T) {
	const payload = `{"name":"Gloves","description":"good to wear"}`
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got = string(b)
		w.WriteHeader(http.StatusCreated)
	})

	r := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	rec := serve(h, r)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, payload, got)
}

func TestTraceMiddleware_RecoversPanic(t *testing.T) {
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(TraceIDHeader))

	span := lastSpan(t)
	assert.Equal(t, codes.Error, span.Status().Code)
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestTraceMiddleware_PanicAfterHeaderKeepsStatus(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic(errors.New("late failure"))
	})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestTraceMiddleware_AbortHandlerPropagates(t *testing.T) {
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestResponseWriter_CapturesBody(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	_, err := rw.Write([]byte("hello "))
	require.NoError(t, err)
	rw.WriteHeader(http.StatusTeapot)
	_, err = rw.Write([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rw.StatusCode())
	assert.Equal(t, int64(11), rw.Size())
	assert.Equal(t, "hello world", string(rw.Body()))
	assert.Equal(t, "hello world", rec.Body.String())
}
