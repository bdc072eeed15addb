// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"

	"github.com/adiadia/event-ledger/internal/domain"
)

// EventStore is the ledger store adapter as the handlers consume it.
type EventStore interface {
	Insert(ctx context.Context, id, ts, payloadText string) error
	Scan(ctx context.Context, filter domain.ScanFilter) ([]domain.Event, error)
	GetByID(ctx context.Context, id string) (domain.Event, error)
	RawQuery(ctx context.Context, sqlText string, params []any) (domain.RawResult, error)
}

// BlobStore off-loads oversized payloads. Nil means inline-only mode.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

type HealthChecker interface {
	Check(ctx context.Context) error
}
