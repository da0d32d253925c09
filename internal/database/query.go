package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/dbferry/internal/errs"
)

// Dialect controls placeholder and identifier quoting style.
type Dialect int

const (
	// DialectH2 uses $1, $2, … placeholders and double-quoted identifiers.
	// H2 speaks this style through its PostgreSQL server mode.
	DialectH2 Dialect = iota

	// DialectMySQL uses ? placeholders and backtick-quoted identifiers.
	DialectMySQL
)

// SelectBuilder constructs a paged SELECT. Offset and limit are always
// passed as arguments, never interpolated.
//
// Usage (H2):
//
//	sql, args, err := Select("ORDERS", DialectH2).
//	    OrderBy("ID").
//	    Offset(1000).
//	    Limit(1000).
//	    Build()
//
// produces
//
//	SELECT * FROM "ORDERS" ORDER BY "ID" OFFSET $1 ROWS FETCH NEXT $2 ROWS ONLY
type SelectBuilder struct {
	table   string
	dialect Dialect
	columns []string
	orderBy []string
	limit   *int64
	offset  *int64
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// OrderBy appends ascending ORDER BY columns.
func (b *SelectBuilder) OrderBy(cols ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, cols...)
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int64) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip.
func (b *SelectBuilder) Offset(n int64) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the final SQL string and argument slice.
func (b *SelectBuilder) Build() (string, []any, error) {
	if b.table == "" {
		return "", nil, errs.New(errs.ErrKindInvalidInput, "select: table name is required")
	}
	if b.offset != nil && *b.offset < 0 {
		return "", nil, errs.Errorf(errs.ErrKindInvalidInput, "select: negative offset %d", *b.offset)
	}
	if b.limit != nil && *b.limit <= 0 {
		return "", nil, errs.Errorf(errs.ErrKindInvalidInput, "select: limit must be positive, got %d", *b.limit)
	}

	cols := "*"
	if len(b.columns) > 0 {
		cols = b.joinIdents(b.columns)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteIdent(b.dialect, b.table))

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.joinIdents(b.orderBy))
	}

	var args []any
	switch b.dialect {
	case DialectMySQL:
		if b.limit != nil {
			sb.WriteString(" LIMIT ?")
			args = append(args, *b.limit)
		}
		if b.offset != nil {
			if b.limit == nil {
				// MySQL has no OFFSET without LIMIT
				sb.WriteString(" LIMIT 18446744073709551615")
			}
			sb.WriteString(" OFFSET ?")
			args = append(args, *b.offset)
		}
	default:
		idx := 1
		if b.offset != nil {
			sb.WriteString(fmt.Sprintf(" OFFSET $%d ROWS", idx))
			args = append(args, *b.offset)
			idx++
		}
		if b.limit != nil {
			sb.WriteString(fmt.Sprintf(" FETCH NEXT $%d ROWS ONLY", idx))
			args = append(args, *b.limit)
		}
	}

	return sb.String(), args, nil
}

func (b *SelectBuilder) joinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(b.dialect, n)
	}
	return strings.Join(quoted, ", ")
}

// CountQuery returns the statement counting every row of table.
func CountQuery(d Dialect, table string) string {
	return "SELECT COUNT(*) FROM " + QuoteIdent(d, table)
}

// QuoteIdent quotes a SQL identifier for the dialect, doubling any embedded
// quote character.
func QuoteIdent(d Dialect, name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
