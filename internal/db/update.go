package db

import (
	"fmt"
	"strings"

	"github.com/curaious/projecthub/internal/optional"
)

// UpdateBuilder assembles a partial UPDATE statement from the fields a caller actually sent.
type UpdateBuilder struct {
	table     string
	setParts  []string
	args      []interface{}
	fields    int
	where     string
	whereArgs []interface{}
	returning string
}

func NewUpdate(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set adds "column = $n".
func (b *UpdateBuilder) Set(column string, value interface{}) *UpdateBuilder {
	b.args = append(b.args, value)
	b.setParts = append(b.setParts, fmt.Sprintf("%s = $%d", column, len(b.args)))
	b.fields++
	return b
}

// SetExpr adds a raw assignment such as "updated_at = NOW()". It does not count as a field.
func (b *UpdateBuilder) SetExpr(expr string) *UpdateBuilder {
	b.setParts = append(b.setParts, expr)
	return b
}

// Where sets the condition. Use ? as placeholder; they are numbered after the SET arguments.
func (b *UpdateBuilder) Where(cond string, args ...interface{}) *UpdateBuilder {
	b.where = cond
	b.whereArgs = args
	return b
}

func (b *UpdateBuilder) Returning(columns string) *UpdateBuilder {
	b.returning = columns
	return b
}

// Empty reports whether no field assignment has been added.
func (b *UpdateBuilder) Empty() bool {
	return b.fields == 0
}

func (b *UpdateBuilder) Build() (string, []interface{}) {
	args := append([]interface{}{}, b.args...)

	where := b.where
	for _, a := range b.whereArgs {
		args = append(args, a)
		where = strings.Replace(where, "?", fmt.Sprintf("$%d", len(args)), 1)
	}

	query := fmt.Sprintf("UPDATE %s SET %s", b.table, strings.Join(b.setParts, ", "))
	if where != "" {
		query += " WHERE " + where
	}
	if b.returning != "" {
		query += " RETURNING " + b.returning
	}

	return query, args
}

// SetField adds column when the field was sent. An explicit null writes NULL.
func SetField[T any](b *UpdateBuilder, column string, f optional.Field[T]) *UpdateBuilder {
	if !f.Set {
		return b
	}
	if f.Null {
		return b.Set(column, nil)
	}
	return b.Set(column, f.Value)
}
