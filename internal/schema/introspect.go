package schema

import (
	"context"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/logger"
)

// Introspect reads the source catalog into a Catalog. Columns keep the
// order in which the source reports them; ordinals are assigned 0..n-1 in
// that order and every type goes through MapType.
//
// An unreadable or empty table list is an introspection error. A table
// without columns is kept with an empty column list.
func Introspect(ctx context.Context, src database.Source, log *logger.Logger) (*Catalog, error) {
	if log == nil {
		log = logger.Discard()
	}

	names, err := src.ListTables(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIntrospection, "failed to list source tables", err)
	}
	if len(names) == 0 {
		return nil, errs.New(errs.ErrKindIntrospection, "source has no tables")
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		metas, err := src.ListColumns(ctx, name)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindIntrospection, "failed to read columns", err).ForTable(name)
		}

		t := Table{Name: name, Columns: describe(metas)}
		tables = append(tables, t)

		log.With().
			Str("table", name).
			Int("columns", len(t.Columns)).
			Logger().
			Debug("introspected table")
	}

	return NewCatalog(tables)
}

func describe(metas []database.ColumnMeta) []ColumnDescriptor {
	cols := make([]ColumnDescriptor, len(metas))
	for i, m := range metas {
		cols[i] = ColumnDescriptor{
			Ordinal:    i,
			Name:       m.Name,
			SourceType: m.Type,
			TargetType: MapType(m.Type),
			Nullable:   m.Nullable,
			IsKey:      m.IsKey,
			Default:    m.Default,
		}
	}
	return cols
}
