package schema

import (
	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
)

// ColumnDescriptor describes a single column in a table.
type ColumnDescriptor struct {
	Ordinal    int    // zero-based position as reported by the source
	Name       string // as reported by the source, case preserved
	SourceType string // e.g. VARCHAR(255)
	TargetType string // e.g. TEXT
	Nullable   database.Nullability
	IsKey      bool
	Default    *string // captured, never emitted
}

// Table is one table of the catalog with its columns ordered by ordinal.
type Table struct {
	Name    string
	Columns []ColumnDescriptor
}

// ColumnNames returns the column names in ordinal order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// KeyColumns returns the names of the key columns in ordinal order.
func (t Table) KeyColumns() []string {
	var keys []string
	for _, c := range t.Columns {
		if c.IsKey {
			keys = append(keys, c.Name)
		}
	}
	return keys
}

// Catalog is the introspected schema: tables in source order, each with
// its ordered columns. It is never modified after construction; accessors
// hand out copies.
type Catalog struct {
	tables []Table
	index  map[string]int
}

// NewCatalog builds a Catalog. Table names must be unique.
func NewCatalog(tables []Table) (*Catalog, error) {
	c := &Catalog{
		tables: make([]Table, 0, len(tables)),
		index:  make(map[string]int, len(tables)),
	}
	for _, t := range tables {
		if _, dup := c.index[t.Name]; dup {
			return nil, errs.Errorf(errs.ErrKindIntrospection, "duplicate table %s in catalog", t.Name).ForTable(t.Name)
		}
		c.index[t.Name] = len(c.tables)
		c.tables = append(c.tables, copyTable(t))
	}
	return c, nil
}

// Len returns the number of tables.
func (c *Catalog) Len() int { return len(c.tables) }

// Names returns the table names in source order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.Name
	}
	return names
}

// Tables returns every table in source order.
func (c *Catalog) Tables() []Table {
	out := make([]Table, len(c.tables))
	for i, t := range c.tables {
		out[i] = copyTable(t)
	}
	return out
}

// Lookup returns the named table. Names are case-sensitive.
func (c *Catalog) Lookup(name string) (Table, bool) {
	i, ok := c.index[name]
	if !ok {
		return Table{}, false
	}
	return copyTable(c.tables[i]), true
}

// Filter returns a catalog restricted to names, keeping source order.
// An empty names list returns the catalog unchanged.
func (c *Catalog) Filter(names []string) (*Catalog, error) {
	if len(names) == 0 {
		return c, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := c.index[n]; !ok {
			return nil, errs.Errorf(errs.ErrKindInvalidInput, "table %s not found in source", n).ForTable(n)
		}
		want[n] = true
	}
	var kept []Table
	for _, t := range c.tables {
		if want[t.Name] {
			kept = append(kept, t)
		}
	}
	return NewCatalog(kept)
}

func copyTable(t Table) Table {
	cols := make([]ColumnDescriptor, len(t.Columns))
	copy(cols, t.Columns)
	return Table{Name: t.Name, Columns: cols}
}
