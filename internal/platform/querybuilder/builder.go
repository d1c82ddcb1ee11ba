package querybuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errNoTable = errors.New("table is required")

type SelectBuilder struct {
	table   string
	columns []string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (s *SelectBuilder) From(table string) *SelectBuilder {
	s.table = table
	return s
}

func (s *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	s.where = append(s.where, conditions...)
	return s
}

func (s *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	s.orderBy = append(s.orderBy, terms...)
	return s
}

func (s *SelectBuilder) Limit(n int) *SelectBuilder {
	s.limit = n
	return s
}

func (s *SelectBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(s.table) == "" {
		return "", nil, fmt.Errorf("select: %w", errNoTable)
	}
	if len(s.columns) == 0 {
		return "", nil, errors.New("select: columns are required")
	}

	var (
		buf strings.Builder
		b   binder
	)
	buf.WriteString("SELECT " + strings.Join(s.columns, ", ") + " FROM " + s.table)
	writeWhere(&buf, &b, s.where)
	if len(s.orderBy) > 0 {
		buf.WriteString(" ORDER BY " + strings.Join(s.orderBy, ", "))
	}
	if s.limit > 0 {
		buf.WriteString(" LIMIT " + strconv.Itoa(s.limit))
	}
	return buf.String(), b.args, nil
}

type conflictAction int

const (
	conflictNone conflictAction = iota
	conflictNothing
	conflictUpdate
)

type InsertBuilder struct {
	table     string
	columns   []string
	rows      [][]any
	target    []string
	action    conflictAction
	overwrite []string
	returning []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = columns
	return i
}

// Values appends one row; call it again for multi-row inserts.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.rows = append(i.rows, values)
	return i
}

// OnConflict names the unique key the following DoNothing or DoUpdate
// applies to.
func (i *InsertBuilder) OnConflict(columns ...string) *InsertBuilder {
	i.target = columns
	return i
}

func (i *InsertBuilder) DoNothing() *InsertBuilder {
	i.action = conflictNothing
	return i
}

// DoUpdate overwrites the listed columns with the rejected row's values.
func (i *InsertBuilder) DoUpdate(columns ...string) *InsertBuilder {
	i.action = conflictUpdate
	i.overwrite = columns
	return i
}

func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

func (i *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(i.table) == "" {
		return "", nil, fmt.Errorf("insert: %w", errNoTable)
	}
	if len(i.columns) == 0 || len(i.rows) == 0 {
		return "", nil, errors.New("insert: columns and values are required")
	}
	if i.action == conflictUpdate && (len(i.target) == 0 || len(i.overwrite) == 0) {
		return "", nil, errors.New("insert: upsert needs a conflict target and columns")
	}

	var (
		buf strings.Builder
		b   binder
	)
	buf.WriteString("INSERT INTO " + i.table + " (" + strings.Join(i.columns, ", ") + ") VALUES ")
	for n, row := range i.rows {
		if len(row) != len(i.columns) {
			return "", nil, fmt.Errorf("insert: row %d has %d values for %d columns", n, len(row), len(i.columns))
		}
		if n > 0 {
			buf.WriteString(", ")
		}
		marks := make([]string, len(row))
		for j, v := range row {
			marks[j] = b.bind(v)
		}
		buf.WriteString("(" + strings.Join(marks, ", ") + ")")
	}

	if i.action != conflictNone {
		buf.WriteString(" ON CONFLICT")
		if len(i.target) > 0 {
			buf.WriteString(" (" + strings.Join(i.target, ", ") + ")")
		}
		if i.action == conflictNothing {
			buf.WriteString(" DO NOTHING")
		} else {
			sets := make([]string, len(i.overwrite))
			for j, col := range i.overwrite {
				sets[j] = col + " = EXCLUDED." + col
			}
			buf.WriteString(" DO UPDATE SET " + strings.Join(sets, ", "))
		}
	}
	if len(i.returning) > 0 {
		buf.WriteString(" RETURNING " + strings.Join(i.returning, ", "))
	}
	return buf.String(), b.args, nil
}

type assignment struct {
	column string
	render func(b *binder) string
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, render: func(b *binder) string { return b.bind(value) }})
	return u
}

func (u *UpdateBuilder) SetNull(column string) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, render: func(*binder) string { return "NULL" }})
	return u
}

// SetExpr assigns raw SQL, binding args to its '?' markers.
func (u *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, render: func(b *binder) string { return b.expand(expr, args) }})
	return u
}

func (u *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	u.where = append(u.where, conditions...)
	return u
}

func (u *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(u.table) == "" {
		return "", nil, fmt.Errorf("update: %w", errNoTable)
	}
	if len(u.sets) == 0 {
		return "", nil, errors.New("update: nothing to set")
	}

	var (
		buf strings.Builder
		b   binder
	)
	buf.WriteString("UPDATE " + u.table + " SET ")
	for n, s := range u.sets {
		if n > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(s.column + " = " + s.render(&b))
	}
	writeWhere(&buf, &b, u.where)
	return buf.String(), b.args, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (d *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	d.where = append(d.where, conditions...)
	return d
}

// ToSQL refuses to build a DELETE without a WHERE clause.
func (d *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(d.table) == "" {
		return "", nil, fmt.Errorf("delete: %w", errNoTable)
	}
	if len(d.where) == 0 {
		return "", nil, errors.New("delete: unconditional delete is not allowed")
	}

	var (
		buf strings.Builder
		b   binder
	)
	buf.WriteString("DELETE FROM " + d.table)
	writeWhere(&buf, &b, d.where)
	return buf.String(), b.args, nil
}
