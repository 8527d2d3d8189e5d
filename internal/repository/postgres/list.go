package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/utafrali/backoffice/pkg/database"
)

// whereBuilder collects numbered placeholders for optional filters.
type whereBuilder struct {
	conditions []string
	args       []any
}

func (w *whereBuilder) add(format string, arg any) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// pageArgs appends limit and offset and returns their placeholder numbers.
func (w *whereBuilder) pageArgs(limit, offset int) (args []any, limitIdx, offsetIdx int) {
	args = append(append([]any{}, w.args...), limit, offset)
	return args, len(w.args) + 1, len(w.args) + 2
}

// countRows is used when a page past the end returns no rows, which leaves
// the windowed total unavailable.
func countRows(ctx context.Context, db database.DBTX, from string, w *whereBuilder) (_ int, err error) {
	query := "SELECT count(*) FROM " + from + " " + w.clause()

	ctx, end := database.TraceQuery(ctx, "Count", query)
	defer func() { end(err) }()

	var total int
	if err = db.QueryRow(ctx, query, w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return total, nil
}
