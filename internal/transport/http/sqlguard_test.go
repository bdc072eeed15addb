// SPDX-License-Identifier: Apache-2.0

package httptransport

import "testing"

func TestValidateReadOnlyQuery(t *testing.T) {
	cases := []struct {
		name  string
		sql   string
		valid bool
	}{
		{name: "plain select", sql: "SELECT id, ts FROM events", valid: true},
		{name: "lowercase select", sql: "select count(*) from events", valid: true},
		{name: "leading whitespace", sql: "   SELECT 1", valid: true},
		{name: "cte", sql: "WITH recent AS (SELECT * FROM events) SELECT * FROM recent", valid: true},
		{name: "empty", sql: "", valid: false},
		{name: "whitespace only", sql: "   ", valid: false},
		{name: "explicit insert", sql: "INSERT INTO events VALUES ('x','y','{}')", valid: false},
		{name: "drop disguised as select", sql: "SELECT 1; DROP TABLE events", valid: false},
		{name: "update mid-text", sql: "SELECT * FROM events WHERE id = 'a'; UPDATE events SET ts='x'", valid: false},
		{name: "delete", sql: "DELETE FROM events", valid: false},
		{name: "truncate", sql: "TRUNCATE events", valid: false},
		{name: "alter", sql: "ALTER TABLE events ADD COLUMN x TEXT", valid: false},
		{name: "create", sql: "CREATE TABLE x (id TEXT)", valid: false},
		{name: "replace", sql: "REPLACE INTO events VALUES ('x')", valid: false},
		{name: "explain", sql: "EXPLAIN SELECT 1", valid: false},
		// Known over-rejection: the block-list is substring-based.
		{name: "column named updated_at", sql: "SELECT updated_at FROM events", valid: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateReadOnlyQuery(tc.sql)
			if tc.valid && err != nil {
				t.Fatalf("expected %q to pass, got %v", tc.sql, err)
			}
			if !tc.valid && err == nil {
				t.Fatalf("expected %q to be rejected", tc.sql)
			}
		})
	}
}

func TestValidateQueryParams(t *testing.T) {
	if err := validateQueryParams([]any{"a", float64(1), true, nil}); err != nil {
		t.Fatalf("expected scalar params to pass, got %v", err)
	}

	if err := validateQueryParams([]any{map[string]any{"nested": true}}); err == nil {
		t.Fatal("expected object param to be rejected")
	}
	if err := validateQueryParams([]any{[]any{1, 2}}); err == nil {
		t.Fatal("expected array param to be rejected")
	}
	if err := validateQueryParams(nil); err != nil {
		t.Fatalf("expected nil params to pass, got %v", err)
	}
}
