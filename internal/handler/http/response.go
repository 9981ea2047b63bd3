package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxRequestBody = 1 << 20

// Response is what a handler produces on success. A nil Body means an empty body.
type Response struct {
	Status int
	Body   any
}

func JSON(status int, body any) *Response {
	return &Response{Status: status, Body: body}
}

func Empty(status int) *Response {
	return &Response{Status: status}
}

// HandlerFunc handles one request. It returns either a response to write or an
// error to forward to the ErrorReporter, never both.
type HandlerFunc func(r *http.Request) (*Response, error)

var errNoResponse = errors.New("handler returned neither a response nor an error")

// Handle adapts fn to net/http. Exactly one of "write fn's response" and
// "report fn's error" happens per request.
func Handle(fn HandlerFunc, reporter ErrorReporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(r)
		if err == nil && resp == nil {
			err = errNoResponse
		}
		if err != nil {
			reporter.Report(w, r, err)
			return
		}

		if resp.Body == nil {
			w.WriteHeader(resp.Status)
			return
		}

		// Marshal before writing the header so an encoding failure can still be reported.
		b, err := json.Marshal(resp.Body)
		if err != nil {
			reporter.Report(w, r, err)
			return
		}
		writeJSONBytes(w, resp.Status, b)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		writeJSONBytes(w, http.StatusInternalServerError, []byte(`{"message":"failed to encode response"}`))
		return
	}
	writeJSONBytes(w, status, b)
}

func writeJSONBytes(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

// BadRequestError is returned when a request body is not valid JSON.
type BadRequestError struct {
	Err error
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("invalid request body: %v", e.Err)
}

func (e *BadRequestError) Unwrap() error { return e.Err }

func (e *BadRequestError) StatusCode() int { return http.StatusBadRequest }

var (
	errNotObject    = errors.New("body must be a JSON object")
	errTrailingData = errors.New("unexpected data after JSON object")
)

// decodeObject reads r.Body as a single JSON object and returns its fields
// undecoded. An empty body or null yields no fields. Only malformed JSON is a
// *BadRequestError; converting field values is left to the caller.
func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	if r.Body == nil {
		return nil, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &BadRequestError{Err: err}
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &BadRequestError{Err: errTrailingData}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &BadRequestError{Err: errNotObject}
	}
	return fields, nil
}
