package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func attrMap(attrs []slog.Attr) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.Any()
	}
	return m
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInfoAddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Output = &buf
	Configure(opts)
	t.Cleanup(func() { Configure(DefaultOptions()) })

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	Info(ctx, "hello", slog.String("k", "v"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "v", record["k"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
	assert.NotEmpty(t, record["hostname"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Output = &buf
	opts.Level = slog.LevelError
	Configure(opts)
	t.Cleanup(func() { Configure(DefaultOptions()) })

	Info(context.Background(), "dropped")
	assert.Empty(t, buf.String())

	Error(context.Background(), "kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestRemoteShipping(t *testing.T) {
	var (
		mu       sync.Mutex
		received []lokiPush
		done     = make(chan struct{}, 1)
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var push lokiPush
		_ = json.NewDecoder(r.Body).Decode(&push)
		mu.Lock()
		received = append(received, push)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
		done <- struct{}{}
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Output = io.Discard
	opts.RemoteURI = srv.URL
	opts.Job = "product-api-test"
	Configure(opts)
	t.Cleanup(func() { Configure(DefaultOptions()) })

	Warn(context.Background(), "shipped", slog.Int("n", 1))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("remote log was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	require.Len(t, received[0].Streams, 1)
	stream := received[0].Streams[0]
	assert.Equal(t, "warn", stream.Stream["level"])
	assert.Equal(t, "product-api-test", stream.Stream["job"])
	require.Len(t, stream.Values, 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(stream.Values[0][1]), &line))
	assert.Equal(t, "shipped", line["message"])
	assert.EqualValues(t, 1, line["n"])
}

func TestHeaderAttrsRedacts(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer secret")
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Unlisted", "ignored")

	got := attrMap(HeaderAttrs(hdr))

	assert.Equal(t, "***", got["http.header.authorization"])
	assert.Equal(t, "application/json", got["http.header.content-type"])
	assert.NotContains(t, got, "http.header.x-unlisted")
}

func TestBodyAttrsJSON(t *testing.T) {
	body := []byte(`{"name":"Gloves","price":15,"tags":["a","b","c"],"password":"hunter2","nested":{"ok":true}}`)

	got := attrMap(BodyAttrs("application/json; charset=utf-8", body))

	assert.Equal(t, "Gloves", got["http.body.name"])
	assert.Equal(t, 15.0, got["http.body.price"])
	assert.Equal(t, "a", got["http.body.tags.0"])
	assert.Equal(t, "c", got["http.body.tags.2"])
	assert.EqualValues(t, 3, got["http.body.tags.length"])
	assert.Equal(t, "***", got["http.body.password"])
	assert.Equal(t, true, got["http.body.nested.ok"])
}

func TestCredentialsAreMaskedByKey(t *testing.T) {
	body := attrMap(BodyAttrs("application/json", []byte(`{"name":"Gloves","password":"hunter2","auth":{"token":"abc"}}`)))
	assert.Equal(t, "Gloves", body["http.body.name"])
	assert.Equal(t, "***", body["http.body.password"])
	assert.Equal(t, "***", body["http.body.auth.token"])

	form := attrMap(BodyAttrs("application/x-www-form-urlencoded", []byte("user=ana&password=hunter2")))
	assert.Equal(t, "ana", form["http.body.user"])
	assert.Equal(t, "***", form["http.body.password"])

	query := attrMap(QueryAttrs(url.Values{"api_key": {"k1"}, "page": {"2"}}))
	assert.Equal(t, "***", query["http.query.api_key"])
	assert.Equal(t, "2", query["http.query.page"])
}

func TestBodyAttrsFallbacks(t *testing.T) {
	assert.Nil(t, BodyAttrs("application/json", nil))

	invalid := attrMap(BodyAttrs("application/json", []byte("{not json")))
	assert.Equal(t, "{not json", invalid["http.body"])

	text := attrMap(BodyAttrs("text/plain", []byte("main")))
	assert.Equal(t, "main", text["http.body"])

	form := attrMap(BodyAttrs("application/x-www-form-urlencoded", []byte("name=Gloves")))
	assert.Equal(t, "Gloves", form["http.body.name"])

	big := attrMap(BodyAttrs("application/octet-stream", bytes.Repeat([]byte{1}, 1000)))
	assert.EqualValues(t, 1000, big["http.body.size_bytes"])
}

func TestCaptureBodyKeepsBodyReadable(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"name":"Gloves"}`))

	captured, err := CaptureBody(r)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Gloves"}`, string(captured))

	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Gloves"}`, string(rest))
}
