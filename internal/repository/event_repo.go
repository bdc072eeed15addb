// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adiadia/event-ledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// EventRepository is the ledger store adapter over the single events table.
// The table is append-only: Insert is the only mutation, and the unique
// primary key arbitrates concurrent writes with the same id.
type EventRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewEventRepository(pool *pgxpool.Pool, logger *slog.Logger) *EventRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &EventRepository{
		pool:   pool,
		logger: logger,
	}
}

// Insert appends one row. A primary-key collision surfaces as
// domain.ErrDuplicateEventID so the handler can answer 409; any other
// failure is a store error.
func (r *EventRepository) Insert(ctx context.Context, id, ts, payloadText string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO events (id, ts, payload) VALUES ($1, $2, $3)`,
		id, ts, payloadText,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			r.logger.Warn("insert rejected: duplicate event id", "event_id", id)
			return domain.ErrDuplicateEventID
		}

		r.logger.Error("insert event failed", "event_id", id, "error", err)
		return err
	}

	return nil
}

// Scan returns events matching the filter, newest first.
func (r *EventRepository) Scan(ctx context.Context, filter domain.ScanFilter) ([]domain.Event, error) {
	query, args := buildScanQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("scan events query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Event, 0, 8)
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(&ev.ID, &ev.TS, &ev.Payload); err != nil {
			r.logger.Error("scan event row failed", "error", err)
			return nil, err
		}
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("events rows iteration failed", "error", err)
		return nil, err
	}

	return out, nil
}

// GetByID loads a single event, domain.ErrEventNotFound when absent.
func (r *EventRepository) GetByID(ctx context.Context, id string) (domain.Event, error) {
	var ev domain.Event
	err := r.pool.QueryRow(ctx,
		`SELECT id, ts, payload FROM events WHERE id=$1`,
		id,
	).Scan(&ev.ID, &ev.TS, &ev.Payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		r.logger.Error("get event failed", "event_id", id, "error", err)
		return domain.Event{}, err
	}

	return ev, nil
}

// RawQuery executes an already-validated read-only statement with positional
// $1..$n params and reports row count and duration for observability. The
// read-only policy is enforced by the caller before the text reaches here.
func (r *EventRepository) RawQuery(ctx context.Context, sqlText string, params []any) (domain.RawResult, error) {
	started := time.Now()

	rows, err := r.pool.Query(ctx, sqlText, params...)
	if err != nil {
		r.logger.Error("raw query failed", "error", err)
		return domain.RawResult{}, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name
	}

	out := make([]map[string]any, 0, 16)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			r.logger.Error("raw query row read failed", "error", err)
			return domain.RawResult{}, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("raw query iteration failed", "error", err)
		return domain.RawResult{}, err
	}

	return domain.RawResult{
		Columns:    columns,
		Rows:       out,
		RowCount:   len(out),
		DurationMs: time.Since(started).Milliseconds(),
	}, nil
}

func buildScanQuery(filter domain.ScanFilter) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if filter.ID != "" {
		args = append(args, filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if filter.After != "" {
		args = append(args, filter.After)
		conds = append(conds, fmt.Sprintf("ts > $%d", len(args)))
	}
	if filter.Before != "" {
		args = append(args, filter.Before)
		conds = append(conds, fmt.Sprintf("ts < $%d", len(args)))
	}

	query := `SELECT id, ts, payload FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY ts DESC LIMIT $%d", len(args))

	return query, args
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return domain.DefaultScanLimit
	}
	if limit > domain.MaxScanLimit {
		return domain.MaxScanLimit
	}
	return limit
}
