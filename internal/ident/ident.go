// SPDX-License-Identifier: Apache-2.0

package ident

import (
	"math/rand"

	"github.com/google/uuid"
)

// New returns a v4 UUID string for events created without a caller-supplied
// id. uuid.NewRandom only fails when the platform entropy source does, and
// id assignment must never fail, so that case falls back to a PRNG-filled
// 16-byte value with the v4 version and variant bits set.
func New() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	var b [16]byte
	for i := range b {
		b[i] = byte(rand.Uint32())
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	fallback, _ := uuid.FromBytes(b[:])
	return fallback.String()
}
