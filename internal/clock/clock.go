// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// LayoutISOMillis is the canonical stored-timestamp layout: UTC ISO-8601
// with millisecond precision. Fixed width, so text comparison on stored
// values matches time order.
const LayoutISOMillis = "2006-01-02T15:04:05.000Z"

// Clock stamps events at write time. Injected so handler tests can pin
// timestamps.
type Clock interface {
	Now() string
}

// System is the production clock.
type System struct{}

func (System) Now() string {
	return time.Now().UTC().Format(LayoutISOMillis)
}

// Valid reports whether ts parses as an RFC 3339 timestamp. Used to gate
// the after/before scan bounds.
func Valid(ts string) bool {
	_, err := time.Parse(time.RFC3339, ts)
	return err == nil
}
