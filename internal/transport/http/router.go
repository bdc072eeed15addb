// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adiadia/event-ledger/internal/blob"
	"github.com/adiadia/event-ledger/internal/clock"
	"github.com/adiadia/event-ledger/internal/codec"
	"github.com/adiadia/event-ledger/internal/domain"
	"github.com/adiadia/event-ledger/internal/ident"
	"github.com/adiadia/event-ledger/internal/metrics"
	"github.com/adiadia/event-ledger/internal/transport/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ingestEventRequest struct {
	ID *string `json:"id"`
	// Accepted for wire compatibility with older clients and ignored: the
	// server always stamps ts itself.
	TS      *string         `json:"ts"`
	Payload json.RawMessage `json:"payload"`
}

type rawQueryRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type eventResponse struct {
	ID      string `json:"id"`
	TS      string `json:"ts"`
	Payload any    `json:"payload"`
}

type Deps struct {
	Events EventStore
	Blobs  BlobStore
	Clock  clock.Clock
	Health HealthChecker
	Logger *slog.Logger

	// APIKey is the shared secret; empty disables the auth gate.
	APIKey string
	// BlobInlineMax is the largest encoded payload stored inline when a
	// blob store is configured.
	BlobInlineMax int

	Version   string
	Commit    string
	BuildDate string
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}
	metrics.Init()
	version := valueOrDefault(deps.Version, "dev")
	commit := valueOrDefault(deps.Commit, "none")
	buildDate := valueOrDefault(deps.BuildDate, "unknown")

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))
	r.Use(middleware.APIKeyAuth(deps.APIKey, logger))

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health.Check(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				writeError(w, http.StatusServiceUnavailable, "schema not ready")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- VERSION ----------------

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"commit":     commit,
			"build_date": buildDate,
		})
	})

	// ---------------- DOCS ----------------

	docs := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"name":    "event-ledger",
			"version": version,
			"endpoints": []map[string]string{
				{"method": "POST", "path": "/events", "description": "append an event"},
				{"method": "GET", "path": "/events", "description": "list events, filters: id, after, before, limit"},
				{"method": "POST", "path": "/events/query", "description": "restricted read-only SQL"},
				{"method": "GET", "path": "/events/{id}/payload", "description": "resolve an event payload, including off-loaded ones"},
			},
		})
	}
	r.Get("/", docs)
	r.Get("/docs", docs)

	// ---------------- INGEST EVENT ----------------

	r.Post("/events", func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeIngestRequest(r)
		if err != nil {
			metrics.IncIngested(metrics.OutcomeInvalid)
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var id string
		if req.ID != nil {
			id = strings.TrimSpace(*req.ID)
			if id == "" {
				metrics.IncIngested(metrics.OutcomeInvalid)
				writeError(w, http.StatusBadRequest, "id must be a non-empty string")
				return
			}
		} else {
			id = ident.New()
		}

		if req.Payload == nil {
			metrics.IncIngested(metrics.OutcomeInvalid)
			writeError(w, http.StatusBadRequest, "payload is required")
			return
		}

		ts := clk.Now()

		var value any
		if err := json.Unmarshal(req.Payload, &value); err != nil {
			metrics.IncIngested(metrics.OutcomeInvalid)
			writeError(w, http.StatusBadRequest, "payload is not valid JSON")
			return
		}
		payloadText, err := codec.Encode(value)
		if err != nil {
			metrics.IncIngested(metrics.OutcomeInvalid)
			writeError(w, http.StatusBadRequest, "payload cannot be encoded")
			return
		}

		if deps.Blobs != nil && deps.BlobInlineMax > 0 && len(payloadText) > deps.BlobInlineMax {
			key := blob.ObjectKey(id, ts)
			pointer, err := deps.Blobs.Put(r.Context(), key, []byte(payloadText), "application/json", map[string]string{
				"event_id": id,
			})
			if err != nil {
				logger.Error("payload offload failed", "event_id", id, "error", err)
				metrics.IncIngested(metrics.OutcomeError)
				writeError(w, http.StatusInternalServerError, "failed to store payload")
				return
			}

			payloadText = blob.PointerText(pointer)
			metrics.IncBlobOffload()
			logger.Info("payload offloaded", "event_id", id, "key", pointer)
		}

		started := time.Now()
		err = deps.Events.Insert(r.Context(), id, ts, payloadText)
		metrics.ObserveInsertDuration(time.Since(started))
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateEventID) {
				metrics.IncIngested(metrics.OutcomeConflict)
				writeError(w, http.StatusConflict, "duplicate id")
				return
			}

			logger.Error("store event failed", "event_id", id, "error", err)
			metrics.IncIngested(metrics.OutcomeError)
			writeError(w, http.StatusInternalServerError, "failed to store event")
			return
		}

		metrics.IncIngested(metrics.OutcomeStored)
		logger.Info("event stored", "event_id", id, "ts", ts)

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"id":      id,
		})
	})

	// ---------------- LIST EVENTS ----------------

	r.Get("/events", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := domain.ScanFilter{ID: strings.TrimSpace(query.Get("id"))}

		if raw := query.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			filter.Limit = n
		}
		if after := query.Get("after"); after != "" {
			if !clock.Valid(after) {
				writeError(w, http.StatusBadRequest, "after must be an ISO-8601 timestamp")
				return
			}
			filter.After = after
		}
		if before := query.Get("before"); before != "" {
			if !clock.Valid(before) {
				writeError(w, http.StatusBadRequest, "before must be an ISO-8601 timestamp")
				return
			}
			filter.Before = before
		}

		events, err := deps.Events.Scan(r.Context(), filter)
		if err != nil {
			logger.Error("list events failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to query events")
			return
		}

		out := make([]eventResponse, 0, len(events))
		for _, ev := range events {
			out = append(out, eventResponse{
				ID:      ev.ID,
				TS:      ev.TS,
				Payload: codec.Decode(ev.Payload),
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"events": out,
		})
	})

	// ---------------- RESTRICTED AD-HOC QUERY ----------------

	r.Post("/events/query", func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRawQueryRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := validateReadOnlyQuery(req.SQL); err != nil {
			logger.Warn("ad-hoc query rejected", "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateQueryParams(req.Params); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		metrics.IncRawQuery()
		result, err := deps.Events.RawQuery(r.Context(), req.SQL, req.Params)
		if err != nil {
			logger.Error("ad-hoc query failed", "error", err)
			writeError(w, http.StatusInternalServerError, "query execution failed")
			return
		}
		metrics.ObserveRawQueryDuration(time.Duration(result.DurationMs) * time.Millisecond)

		writeJSON(w, http.StatusOK, map[string]any{
			"results": result.Rows,
			"meta": map[string]any{
				"rows_read":   result.RowCount,
				"duration_ms": result.DurationMs,
			},
		})
	})

	// ---------------- RESOLVE PAYLOAD ----------------

	r.Get("/events/{id}/payload", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		ev, err := deps.Events.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrEventNotFound) {
				writeError(w, http.StatusNotFound, "event not found")
				return
			}
			logger.Error("load event failed", "event_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load event")
			return
		}

		key, offloaded := blob.PointerKey(ev.Payload)
		if !offloaded {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(ev.Payload))
			return
		}

		if deps.Blobs == nil {
			logger.Error("offloaded payload requested without a blob store", "event_id", id)
			writeError(w, http.StatusInternalServerError, "blob store not configured")
			return
		}

		data, err := deps.Blobs.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrBlobNotFound) {
				writeError(w, http.StatusNotFound, "payload not found")
				return
			}
			logger.Error("load payload failed", "event_id", id, "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load payload")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})

	// ---------------- DEPRECATED ROUTES ----------------

	gone := func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusGone, map[string]any{
			"error":      "this endpoint has been removed",
			"deprecated": true,
		})
	}
	for _, pattern := range []string{
		"/jobs", "/jobs/*",
		"/runs", "/runs/*",
		"/executions", "/executions/*",
	} {
		r.HandleFunc(pattern, gone)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeIngestRequest(r *http.Request) (ingestEventRequest, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return ingestEventRequest{}, errors.New("request body is required")
	}

	var req ingestEventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return ingestEventRequest{}, err
	}

	// Ensure there is only one JSON object.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ingestEventRequest{}, errors.New("request body must contain exactly one JSON object")
	}

	return req, nil
}

func decodeRawQueryRequest(r *http.Request) (rawQueryRequest, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return rawQueryRequest{}, errors.New("request body is required")
	}

	var req rawQueryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return rawQueryRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return rawQueryRequest{}, errors.New("request body must contain exactly one JSON object")
	}

	return req, nil
}

func valueOrDefault(value, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	return trimmed
}
