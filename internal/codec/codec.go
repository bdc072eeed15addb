// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/adiadia/event-ledger/internal/domain"
)

// Encode serializes a payload value to its stored text form.
func Encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnencodablePayload, err)
	}
	return string(b), nil
}

// Decode turns stored payload text back into a value. It never fails: a row
// predating the codec, or corrupted out of band, comes back as its raw text
// instead of an error so reads degrade gracefully.
func Decode(text string) any {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}
