package logger

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MaxBodyLogged caps how much of a request or response body is captured.
const MaxBodyLogged = 1 << 20

const maxBinarySample = 256

var loggedHeaders = map[string]bool{
	"content-type":   true,
	"content-length": true,
	"user-agent":     true,
	"x-request-id":   true,
	"x-trace-id":     true,
	"traceparent":    true,
	"authorization":  true,
	"cookie":         true,
	"set-cookie":     true,
}

var redactedHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
}

// CaptureBody reads up to MaxBodyLogged bytes of r.Body and replaces it with
// a reader over the captured bytes followed by anything left unread.
func CaptureBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyLogged))
	if err != nil {
		return nil, err
	}
	r.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(body), r.Body),
		Closer: r.Body,
	}
	return body, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// RequestAttrs describes an incoming request for logging.
func RequestAttrs(r *http.Request, body []byte) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", "incoming::request"),
		slog.String("http.remote_addr", r.RemoteAddr),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	}
	attrs = append(attrs, HeaderAttrs(r.Header)...)
	attrs = append(attrs, QueryAttrs(r.URL.Query())...)
	attrs = append(attrs, BodyAttrs(r.Header.Get("Content-Type"), body)...)
	return attrs
}

// ResponseAttrs describes the response written for r.
func ResponseAttrs(r *http.Request, header http.Header, status int, body []byte, elapsed time.Duration) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", "incoming::response"),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
		slog.Int("http.status", status),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	}
	attrs = append(attrs, HeaderAttrs(header)...)
	attrs = append(attrs, BodyAttrs(header.Get("Content-Type"), body)...)
	return attrs
}

func HeaderAttrs(hdr http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(hdr))
	for name, values := range hdr {
		lower := strings.ToLower(name)
		if !loggedHeaders[lower] {
			continue
		}
		v := strings.Join(values, ", ")
		if redactedHeaders[lower] {
			v = "***"
		}
		attrs = append(attrs, slog.String("http.header."+lower, v))
	}
	return attrs
}

func QueryAttrs(q url.Values) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(q))
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		attrs = append(attrs, slog.String("http.query."+key, redact(key, strings.Join(values, ","))))
	}
	return attrs
}

// BodyAttrs flattens a body according to its content type.
func BodyAttrs(contentType string, body []byte) []slog.Attr {
	if len(body) == 0 {
		return nil
	}

	ct, _, _ := mime.ParseMediaType(contentType)
	switch {
	case ct == "application/json":
		return jsonAttrs(body)
	case ct == "application/x-www-form-urlencoded":
		return formAttrs(body)
	case strings.HasPrefix(ct, "text/"):
		return []slog.Attr{slog.String("http.body", redact("", string(body)))}
	default:
		return binaryAttrs(body)
	}
}

func jsonAttrs(b []byte) []slog.Attr {
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return []slog.Attr{slog.String("http.body", redact("", string(b)))}
	}
	attrs := make([]slog.Attr, 0, 8)
	flattenJSON("http.body", data, &attrs)
	return attrs
}

// flattenJSON walks v and emits one attr per scalar. Arrays contribute only
// their first and last element.
func flattenJSON(prefix string, v any, dst *[]slog.Attr) {
	switch t := v.(type) {
	case map[string]any:
		for k, v2 := range t {
			if sensitiveKey(k) {
				*dst = append(*dst, slog.String(prefix+"."+k, "***"))
				continue
			}
			flattenJSON(prefix+"."+k, v2, dst)
		}
	case []any:
		n := len(t)
		if n == 0 {
			return
		}
		flattenJSON(prefix+".0", t[0], dst)
		if n > 1 {
			flattenJSON(prefix+"."+strconv.Itoa(n-1), t[n-1], dst)
		}
		*dst = append(*dst, slog.Int(prefix+".length", n))
	case string:
		*dst = append(*dst, slog.String(prefix, redact("", t)))
	case float64:
		*dst = append(*dst, slog.Float64(prefix, t))
	case bool:
		*dst = append(*dst, slog.Bool(prefix, t))
	case nil:
	default:
		*dst = append(*dst, slog.String(prefix, fmt.Sprintf("%v", t)))
	}
}

func formAttrs(b []byte) []slog.Attr {
	vals, err := url.ParseQuery(string(b))
	if err != nil {
		return []slog.Attr{slog.String("http.body.error", err.Error())}
	}
	attrs := make([]slog.Attr, 0, len(vals))
	for k, v := range vals {
		attrs = append(attrs, slog.String("http.body."+k, redact(k, strings.Join(v, ", "))))
	}
	return attrs
}

func binaryAttrs(b []byte) []slog.Attr {
	if len(b) <= maxBinarySample {
		return []slog.Attr{slog.String("http.body.base64", base64.StdEncoding.EncodeToString(b))}
	}
	return []slog.Attr{
		slog.Int("http.body.size_bytes", len(b)),
		slog.String("http.body.sample_base64", base64.StdEncoding.EncodeToString(b[:maxBinarySample])),
	}
}

var sensitiveKeys = []string{"password", "passwd", "secret", "token", "api_key", "apikey"}

func sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// redact masks s when its key names a credential or the value mentions a password.
func redact(key, s string) string {
	if sensitiveKey(key) || strings.Contains(strings.ToLower(s), "password") {
		return "***"
	}
	return s
}
