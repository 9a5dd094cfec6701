package repo

import (
	"context"
	"errors"
	"fmt"
)

var ErrTableNotFound = errors.New("table not found")

// Store is the tabular backend: named tables of string cells whose first row
// is a frozen header. Row and column indexes are zero-based and address the
// row set returned by ReadAll, header included.
//
// Backends serialise their own calls; nothing spanning several calls is
// atomic.
type Store interface {
	EnsureTable(ctx context.Context, name string, header []string) error
	AppendRow(ctx context.Context, name string, values []string) error
	ReadAll(ctx context.Context, name string) ([][]string, error)
	WriteCell(ctx context.Context, name string, row, col int, value string) error
}

func checkCell(name string, rows, row, col int) error {
	if row < 1 || row >= rows {
		return fmt.Errorf("table %s: row %d out of range", name, row)
	}
	if col < 0 {
		return fmt.Errorf("table %s: column %d out of range", name, col)
	}
	return nil
}

// normalizeRow copies values widened to at least width cells, so short rows
// are stored with "" in the trailing columns.
func normalizeRow(values []string, width int) []string {
	if width < len(values) {
		width = len(values)
	}
	out := make([]string, width)
	copy(out, values)
	return out
}
