//go:build integration

// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/adiadia/event-ledger/internal/domain"
	"github.com/adiadia/event-ledger/internal/persistence/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

func integrationPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("skip integration test: DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		t.Skipf("skip integration test: database not reachable (%v)", err)
	}
	return pool
}

func truncateEvents(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE events`)
	return err
}

func TestEventRepositoryIntegration(t *testing.T) {
	ctx := context.Background()
	pool := integrationPool(t, ctx)
	defer pool.Close()

	if err := truncateEvents(ctx, pool); err != nil {
		t.Skipf("skip integration test: events table not ready (%v)", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := NewEventRepository(pool, logger)

	if err := repo.Insert(ctx, "ev-1", "2026-08-23T10:00:00.000Z", `{"type":"a"}`); err != nil {
		t.Fatalf("insert ev-1: %v", err)
	}
	if err := repo.Insert(ctx, "ev-2", "2026-08-23T10:00:01.000Z", `{"type":"b"}`); err != nil {
		t.Fatalf("insert ev-2: %v", err)
	}
	if err := repo.Insert(ctx, "ev-3", "2026-08-23T10:00:02.000Z", `{"type":"c"}`); err != nil {
		t.Fatalf("insert ev-3: %v", err)
	}

	t.Run("duplicate id conflicts", func(t *testing.T) {
		err := repo.Insert(ctx, "ev-1", "2026-08-23T10:00:03.000Z", `{"type":"dup"}`)
		if !errors.Is(err, domain.ErrDuplicateEventID) {
			t.Fatalf("expected ErrDuplicateEventID got %v", err)
		}
	})

	t.Run("scan orders descending", func(t *testing.T) {
		events, err := repo.Scan(ctx, domain.ScanFilter{})
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events got %d", len(events))
		}
		if events[0].ID != "ev-3" || events[2].ID != "ev-1" {
			t.Fatalf("expected ts-descending order, got %q first and %q last", events[0].ID, events[2].ID)
		}
	})

	t.Run("after bound is exclusive", func(t *testing.T) {
		events, err := repo.Scan(ctx, domain.ScanFilter{After: "2026-08-23T10:00:00.000Z"})
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events after t1 got %d", len(events))
		}
		for _, ev := range events {
			if ev.ID == "ev-1" {
				t.Fatal("expected ev-1 to be excluded by exclusive after bound")
			}
		}
	})

	t.Run("before bound is exclusive", func(t *testing.T) {
		events, err := repo.Scan(ctx, domain.ScanFilter{Before: "2026-08-23T10:00:02.000Z"})
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events before t3 got %d", len(events))
		}
	})

	t.Run("id filter", func(t *testing.T) {
		events, err := repo.Scan(ctx, domain.ScanFilter{ID: "ev-2"})
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		if len(events) != 1 || events[0].Payload != `{"type":"b"}` {
			t.Fatalf("expected single ev-2 row, got %#v", events)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		ev, err := repo.GetByID(ctx, "ev-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ev.TS != "2026-08-23T10:00:00.000Z" {
			t.Fatalf("expected stored ts, got %q", ev.TS)
		}

		_, err = repo.GetByID(ctx, "missing")
		if !errors.Is(err, domain.ErrEventNotFound) {
			t.Fatalf("expected ErrEventNotFound got %v", err)
		}
	})

	t.Run("raw query", func(t *testing.T) {
		result, err := repo.RawQuery(ctx, `SELECT id FROM events WHERE ts > $1 ORDER BY id`, []any{"2026-08-23T10:00:00.000Z"})
		if err != nil {
			t.Fatalf("raw query: %v", err)
		}
		if result.RowCount != 2 {
			t.Fatalf("expected 2 rows got %d", result.RowCount)
		}
		if len(result.Columns) != 1 || result.Columns[0] != "id" {
			t.Fatalf("expected id column got %#v", result.Columns)
		}
		if result.DurationMs < 0 {
			t.Fatalf("expected non-negative duration got %d", result.DurationMs)
		}
	})
}
