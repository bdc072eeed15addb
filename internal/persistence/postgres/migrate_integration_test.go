//go:build integration

// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
)

func TestEnsureSchemaIntegration(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("skip integration test: DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		t.Skipf("skip integration test: database not reachable (%v)", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := EnsureSchema(ctx, pool, logger); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	// Idempotent: a second run applies nothing and still reports ready.
	if err := EnsureSchema(ctx, pool, logger); err != nil {
		t.Fatalf("ensure schema second run: %v", err)
	}

	if err := SchemaReady(ctx, pool); err != nil {
		t.Fatalf("schema ready: %v", err)
	}

	t.Run("json check constraint", func(t *testing.T) {
		if _, err := pool.Exec(ctx,
			`INSERT INTO events (id, ts, payload) VALUES ($1, $2, $3)`,
			"schema-check-valid", "2026-08-23T10:00:00.000Z", `{"ok":true}`,
		); err != nil {
			t.Fatalf("insert valid json: %v", err)
		}
		defer func() {
			_, _ = pool.Exec(ctx, `DELETE FROM events WHERE id = 'schema-check-valid'`)
		}()

		if _, err := pool.Exec(ctx,
			`INSERT INTO events (id, ts, payload) VALUES ($1, $2, $3)`,
			"schema-check-invalid", "2026-08-23T10:00:00.000Z", `{"broken": tru`,
		); err == nil {
			_, _ = pool.Exec(ctx, `DELETE FROM events WHERE id = 'schema-check-invalid'`)
			t.Fatal("expected invalid json payload to be rejected by check constraint")
		}
	})
}
