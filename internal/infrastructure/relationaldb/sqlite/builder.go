package sqlite

import "strings"

// updateBuilder accumulates (column, value) pairs from the optional fields
// of an update and renders a single UPDATE statement. An empty set is
// rejected by the caller (it maps to the API's bad-request error) instead
// of issuing a no-op statement.
type updateBuilder struct {
	table   string
	columns []string
	args    []any
}

// newUpdateBuilder creates a builder for the given table.
func newUpdateBuilder(table string) *updateBuilder {
	return &updateBuilder{table: table}
}

// set appends a column assignment.
func (b *updateBuilder) set(column string, value any) {
	b.columns = append(b.columns, column+" = ?")
	b.args = append(b.args, value)
}

// setString appends a column assignment when the field was supplied.
func (b *updateBuilder) setString(column string, value *string) {
	if value != nil {
		b.set(column, *value)
	}
}

// setInt64 appends a column assignment when the field was supplied.
func (b *updateBuilder) setInt64(column string, value *int64) {
	if value != nil {
		b.set(column, *value)
	}
}

// empty reports whether no field has been supplied.
func (b *updateBuilder) empty() bool {
	return len(b.columns) == 0
}

// build renders the statement with the given WHERE clause and returns it
// together with the full argument list.
func (b *updateBuilder) build(where string, whereArgs ...any) (string, []any) {
	query := "UPDATE " + b.table + " SET " + strings.Join(b.columns, ", ") + " WHERE " + where
	return query, append(b.args, whereArgs...)
}
