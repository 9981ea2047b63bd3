package middleware_http

import (
	"bytes"
	"net/http"

	"product-api/internal/logger"
)

// ResponseWriter captures status, size and the first MaxBodyLogged bytes of the body.
type ResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
	buf         bytes.Buffer
}

func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.wroteHeader = true
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)

	if room := logger.MaxBodyLogged - rw.buf.Len(); room > 0 {
		rw.buf.Write(b[:min(room, n)])
	}
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *ResponseWriter) StatusCode() int { return rw.statusCode }

func (rw *ResponseWriter) Size() int64 { return rw.size }

func (rw *ResponseWriter) WroteHeader() bool { return rw.wroteHeader }

func (rw *ResponseWriter) Body() []byte { return rw.buf.Bytes() }
