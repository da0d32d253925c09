package schema

import (
	"context"
	"strings"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
)

// BuildCreateTable renders the CREATE TABLE statement for t. Key flags are
// not turned into a PRIMARY KEY clause.
func BuildCreateTable(t Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = columnDef(c)
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(t.Name)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(defs, ", "))
	sb.WriteString(");")
	return sb.String()
}

func columnDef(c ColumnDescriptor) string {
	def := c.Name + " " + c.TargetType
	switch c.Nullable {
	case database.NotNull:
		def += " NOT NULL"
	case database.Nullable:
		def += " NULL"
	}
	return def
}

// Materialize creates t on the target. Any rejection is a schema error
// scoped to the table.
func Materialize(ctx context.Context, target database.Target, t Table) error {
	if len(t.Columns) == 0 {
		return errs.New(errs.ErrKindSchema, "table has no columns").ForTable(t.Name)
	}
	if err := target.Exec(ctx, BuildCreateTable(t)); err != nil {
		return errs.Wrap(errs.ErrKindSchema, "create table rejected", err).ForTable(t.Name)
	}
	return nil
}
