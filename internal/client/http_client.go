package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"product-api/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// HTTPClient is a JSON over HTTP client that propagates the trace context.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// RequestOptions for request configuration
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        any
}

// Response is the raw outcome of a request.
type Response struct {
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
}

func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// Do performs the request and returns the response whatever its status.
func (c *HTTPClient) Do(ctx context.Context, opts RequestOptions) (*Response, error) {
	fullURL, err := c.buildURL(opts.URL, opts.QueryParams)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	ctx, span := HttpClientTracer.Start(ctx, "HttpClient "+opts.Method)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, opts.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	traceID := span.SpanContext().TraceID().String()
	c.setHeaders(req, map[string]string{"X-Trace-ID": traceID})
	c.setHeaders(req, opts.Headers)

	span.SetAttributes(
		semconv.HTTPMethodKey.String(req.Method),
		semconv.HTTPURLKey.String(req.URL.String()),
	)
	logger.Info(ctx, "HttpClient request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error(ctx, "Failed to execute request", slog.String("error", err.Error()))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    rawBody,
	}, nil
}

func (c *HTTPClient) buildURL(endpoint string, queryParams map[string]string) (string, error) {
	var fullURL string
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		fullURL = endpoint
	} else {
		fullURL = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}

	if len(queryParams) > 0 {
		u, err := url.Parse(fullURL)
		if err != nil {
			return "", err
		}
		q := u.Query()
		for k, v := range queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		fullURL = u.String()
	}

	return fullURL, nil
}

func (c *HTTPClient) setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}
