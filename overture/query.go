package overture

import (
	"fmt"
	"strings"
)

// BuildQuery builds the extraction query for the given dataset path and
// filter, projecting the columns of the contract in order. Limit and offset
// are appended in that order when positive.
func BuildQuery(path string, f Filter, cols []Column, limit, offset int) string {
	exprs := make([]string, len(cols))
	for i, col := range cols {
		exprs[i] = col.Expr
	}

	query := fmt.Sprintf("SELECT\n    %s\nFROM read_parquet('%s')\nWHERE %s",
		strings.Join(exprs, ",\n    "),
		path,
		strings.Join(f.whereClauses(), "\n  AND "))

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", offset)
	}

	return query
}

// BuildCountQuery builds the count query over the same predicates as
// BuildQuery so both are filter-equivalent.
func BuildCountQuery(path string, f Filter) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM read_parquet('%s')\nWHERE %s",
		path,
		strings.Join(f.whereClauses(), "\n  AND "))
}
