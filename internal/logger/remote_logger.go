package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type remoteShipper struct {
	uri    string
	job    string
	client *http.Client
}

func newRemoteShipper(uri, job string) *remoteShipper {
	return &remoteShipper{
		uri:    uri,
		job:    job,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// send pushes the record in the background. Failures go to stderr only.
func (s *remoteShipper) send(level slog.Level, message string, attrs []slog.Attr) {
	entry := buildLogEntry(s.job, level, message, attrs, time.Now())
	go func() {
		if err := s.push(entry); err != nil {
			fmt.Fprintf(os.Stderr, "remote log: %v\n", err)
		}
	}()
}

func (s *remoteShipper) push(entry lokiPush) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.uri, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
