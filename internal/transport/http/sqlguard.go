// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"errors"
	"fmt"
	"strings"
)

// Keywords that mark a statement as mutating. Matched as substrings of the
// whole normalized text, not just the first token: deliberately
// conservative, so a legitimate identifier containing one of these is also
// rejected. A read-only database role would be the stricter alternative.
var blockedSQLKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create", "truncate", "replace",
}

func validateReadOnlyQuery(sqlText string) error {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return errors.New("sql is required")
	}
	if !strings.HasPrefix(normalized, "select") && !strings.HasPrefix(normalized, "with") {
		return errors.New("only read-only SELECT queries are allowed")
	}
	for _, keyword := range blockedSQLKeywords {
		if strings.Contains(normalized, keyword) {
			return fmt.Errorf("query contains forbidden keyword %q", keyword)
		}
	}
	return nil
}

// validateQueryParams requires positionally bound scalars; anything nested
// has no single placeholder representation.
func validateQueryParams(params []any) error {
	for i, param := range params {
		switch param.(type) {
		case nil, string, float64, bool:
		default:
			return fmt.Errorf("param %d must be a scalar value", i+1)
		}
	}
	return nil
}
