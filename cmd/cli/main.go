// SPDX-License-Identifier: Apache-2.0

// Smoke client for a running event-ledger instance: appends an event, reads
// it back through every read path, and checks duplicate-id handling.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	logger := newLogger()

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "smoke":
		fs := flag.NewFlagSet("smoke", flag.ExitOnError)
		baseURL := fs.String("base-url", "http://localhost:8080", "server base URL")
		apiKey := fs.String("api-key", os.Getenv("API_KEY"), "shared-secret API key")
		_ = fs.Parse(os.Args[2:])

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := &smokeClient{
			baseURL: strings.TrimRight(*baseURL, "/"),
			apiKey:  *apiKey,
			http:    &http.Client{Timeout: 10 * time.Second},
			logger:  logger,
		}

		if err := client.run(ctx); err != nil {
			logger.Error("smoke test failed", "error", err)
			os.Exit(1)
		}
		logger.Info("smoke test passed")
	default:
		printUsage(os.Stderr)
		os.Exit(2)
	}
}

type smokeClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

func (c *smokeClient) run(ctx context.Context) error {
	started := time.Now()

	id, err := c.appendEvent(ctx)
	if err != nil {
		return err
	}

	if err := c.readBack(ctx, id); err != nil {
		return err
	}

	if err := c.checkDuplicate(ctx, id); err != nil {
		return err
	}

	if err := c.runRestrictedQuery(ctx); err != nil {
		return err
	}

	c.logger.Info("smoke test complete", "duration_ms", time.Since(started).Milliseconds())
	return nil
}

func (c *smokeClient) appendEvent(ctx context.Context) (string, error) {
	c.logger.Info("running step", "step", "append event")

	status, body, err := c.do(ctx, http.MethodPost, "/events", map[string]any{
		"payload": map[string]any{"type": "smoke", "at": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("append event: expected 201 got %d (%s)", status, body)
	}

	var resp struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("append event: decode response: %w", err)
	}
	if !resp.Success || resp.ID == "" {
		return "", fmt.Errorf("append event: unexpected response %s", body)
	}

	c.logger.Info("step completed", "step", "append event", "event_id", resp.ID)
	return resp.ID, nil
}

func (c *smokeClient) readBack(ctx context.Context, id string) error {
	c.logger.Info("running step", "step", "read back")

	status, body, err := c.do(ctx, http.MethodGet, "/events?id="+id, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("read back: expected 200 got %d (%s)", status, body)
	}

	var resp struct {
		Events []struct {
			ID      string `json:"id"`
			TS      string `json:"ts"`
			Payload any    `json:"payload"`
		} `json:"events"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("read back: decode response: %w", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != id {
		return fmt.Errorf("read back: expected exactly the stored event, got %s", body)
	}

	c.logger.Info("step completed", "step", "read back", "ts", resp.Events[0].TS)
	return nil
}

func (c *smokeClient) checkDuplicate(ctx context.Context, id string) error {
	c.logger.Info("running step", "step", "duplicate id")

	status, body, err := c.do(ctx, http.MethodPost, "/events", map[string]any{
		"id":      id,
		"payload": map[string]any{"type": "smoke-dup"},
	})
	if err != nil {
		return err
	}
	if status != http.StatusConflict {
		return fmt.Errorf("duplicate id: expected 409 got %d (%s)", status, body)
	}

	c.logger.Info("step completed", "step", "duplicate id")
	return nil
}

func (c *smokeClient) runRestrictedQuery(ctx context.Context) error {
	c.logger.Info("running step", "step", "restricted query")

	status, body, err := c.do(ctx, http.MethodPost, "/events/query", map[string]any{
		"sql": "SELECT count(*) AS n FROM events",
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("restricted query: expected 200 got %d (%s)", status, body)
	}

	var resp struct {
		Meta struct {
			RowsRead   int   `json:"rows_read"`
			DurationMs int64 `json:"duration_ms"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("restricted query: decode response: %w", err)
	}

	c.logger.Info("step completed",
		"step", "restricted query",
		"rows_read", resp.Meta.RowsRead,
		"duration_ms", resp.Meta.DurationMs,
	)
	return nil
}

func (c *smokeClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, data, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func printUsage(w *os.File) {
	_, _ = fmt.Fprintln(w, "usage: go run ./cmd/cli smoke [--base-url URL] [--api-key KEY]")
}
