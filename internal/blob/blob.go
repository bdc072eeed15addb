// SPDX-License-Identifier: Apache-2.0

// Package blob off-loads oversized event payloads to an object store and
// hands back a pointer the ledger row keeps instead of the inline text.
package blob

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is the offload adapter. It is optional: the service runs
// inline-only when no store is configured.
type Store interface {
	// Put writes the payload bytes under key and returns the pointer.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (string, error)
	// Get reads the payload bytes back, domain.ErrBlobNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)
}

const pointerField = "$blob"

// ObjectKey builds the hierarchical key for an offloaded payload:
// results/<yyyy>/<mm>/<event-id>/<ts>.json. The leading date partitions come
// from the stored timestamp so objects group naturally by write time.
func ObjectKey(eventID, ts string) string {
	year, month := "0000", "00"
	if len(ts) >= 7 {
		year, month = ts[0:4], ts[5:7]
	}
	return fmt.Sprintf("results/%s/%s/%s/%s.json", year, month, eventID, ts)
}

// PointerText renders the payload text stored in place of an offloaded
// payload.
func PointerText(key string) string {
	b, _ := json.Marshal(map[string]string{pointerField: key})
	return string(b)
}

// PointerKey reports whether stored payload text is an offload pointer and
// returns its key. Only a single-field {"$blob": "..."} object counts, so an
// inline payload that merely contains a $blob field is not misread.
func PointerKey(payloadText string) (string, bool) {
	var fields map[string]string
	if err := json.Unmarshal([]byte(payloadText), &fields); err != nil {
		return "", false
	}
	if len(fields) != 1 {
		return "", false
	}
	key, ok := fields[pointerField]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
