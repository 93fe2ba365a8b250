package storage

import (
	"strings"

	"fintrack/internal/core"
)

// filterClauses builds the WHERE clause shared by the listing query, the
// matching-count query and the aggregation read. Keeping one builder
// guarantees the dashboard and the table view agree on the same records.
func filterClauses(userID string, f core.Filter) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Start != nil {
		where = append(where, "tx_date >= ?")
		args = append(args, f.Start.String())
	}
	if f.End != nil {
		where = append(where, "tx_date <= ?")
		args = append(args, f.End.String())
	}

	return strings.Join(where, " AND "), args
}
