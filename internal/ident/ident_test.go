// SPDX-License-Identifier: Apache-2.0

package ident

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewProducesWellFormedV4(t *testing.T) {
	id := New()

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("expected parseable uuid, got %q: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected version 4 got %d", parsed.Version())
	}
}

func TestNewDoesNotRepeat(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for range 1000 {
		id := New()
		if seen[id] {
			t.Fatalf("generated duplicate id %q", id)
		}
		seen[id] = true
	}
}
