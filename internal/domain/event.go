// SPDX-License-Identifier: Apache-2.0

package domain

// Event is one stored ledger row. Payload holds the serialized JSON text
// exactly as persisted; decoding back to a value happens at the read
// boundary so a corrupt legacy row never fails a scan.
type Event struct {
	ID      string
	TS      string
	Payload string
}

// Scan limits shared by every caller of the ledger store. Values above the
// cap are clamped, not rejected.
const (
	DefaultScanLimit = 100
	MaxScanLimit     = 500
)

// ScanFilter is a conjunction of optional event filters. After and Before
// are exclusive ISO-8601 bounds compared as text, which orders correctly
// because stored timestamps are fixed-width UTC.
type ScanFilter struct {
	ID     string
	After  string
	Before string
	Limit  int
}

// RawResult carries the outcome of a restricted ad-hoc read query.
type RawResult struct {
	Columns    []string
	Rows       []map[string]any
	RowCount   int
	DurationMs int64
}
