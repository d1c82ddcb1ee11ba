package querybuilder

import (
	"strconv"
	"strings"
)

// binder numbers postgres placeholders across every clause of a statement.
type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// expand replaces each '?' in expr with the next bound argument. Surplus
// question marks are left as they are.
func (b *binder) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}
	var out strings.Builder
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(values) {
			out.WriteString(b.bind(values[next]))
			next++
			continue
		}
		out.WriteByte(expr[i])
	}
	return out.String()
}

// Condition renders one WHERE predicate.
type Condition func(b *binder) string

func Eq(column string, value any) Condition {
	return func(b *binder) string {
		return column + " = " + b.bind(value)
	}
}

// In renders "column IN (...)". An empty set matches nothing.
func In(column string, values []any) Condition {
	return func(b *binder) string {
		if len(values) == 0 {
			return "1=0"
		}
		marks := make([]string, len(values))
		for i, v := range values {
			marks[i] = b.bind(v)
		}
		return column + " IN (" + strings.Join(marks, ", ") + ")"
	}
}

func NotNull(column string) Condition {
	return func(*binder) string {
		return column + " IS NOT NULL"
	}
}

// Expr embeds raw SQL, binding args to its '?' markers in order.
func Expr(expr string, args ...any) Condition {
	return func(b *binder) string {
		return b.expand(expr, args)
	}
}

func writeWhere(buf *strings.Builder, b *binder, conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			buf.WriteString(" WHERE ")
		} else {
			buf.WriteString(" AND ")
		}
		buf.WriteString(c(b))
	}
}
