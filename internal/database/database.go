// Package database defines the driver-facing contracts of dbferry.
//
// The migration core depends on Source and Target only. Engine-specific
// implementations live in sub-packages:
//
//	h2     source: H2 reached through its PostgreSQL server mode (pgx)
//	mysql  target: MySQL through database/sql
package database

import "strings"

// Nullability is the tri-state nullability flag reported by a catalog.
type Nullability int

const (
	NullUnknown Nullability = iota // catalog did not say
	Nullable
	NotNull
)

func (n Nullability) String() string {
	switch n {
	case Nullable:
		return "YES"
	case NotNull:
		return "NO"
	default:
		return ""
	}
}

// ParseNullability reads the YES/NO flag of a SHOW COLUMNS result.
func ParseNullability(s string) Nullability {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES":
		return Nullable
	case "NO":
		return NotNull
	default:
		return NullUnknown
	}
}

// ColumnMeta is one column exactly as the source catalog reports it.
type ColumnMeta struct {
	Name     string
	Type     string // source type declaration, e.g. VARCHAR(255)
	Nullable Nullability
	IsKey    bool
	Default  *string // nil if the column has no default
}

// PageRequest selects one window of a table's rows.
type PageRequest struct {
	Table   string
	OrderBy []string // empty means the source's native order
	Offset  int64
	Limit   int64
}

// Statement is one SQL statement with its bind arguments.
type Statement struct {
	SQL  string
	Args []any
}
