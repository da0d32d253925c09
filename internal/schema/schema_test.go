package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/database/dbtest"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(name, typ string, n database.Nullability) database.ColumnMeta {
	return database.ColumnMeta{Name: name, Type: typ, Nullable: n}
}

func TestIntrospect_PreservesColumnOrder(t *testing.T) {
	src := dbtest.NewSource().AddTable("T", []database.ColumnMeta{
		col("c", "INTEGER", database.NullUnknown),
		col("a", "VARCHAR(10)", database.NullUnknown),
		col("b", "BOOLEAN", database.NullUnknown),
	}, nil)

	cat, err := Introspect(context.Background(), src, nil)
	require.NoError(t, err)

	tbl, ok := cat.Lookup("T")
	require.True(t, ok)
	assert.Equal(t, []string{"c", "a", "b"}, tbl.ColumnNames())
	for i, c := range tbl.Columns {
		assert.Equal(t, i, c.Ordinal)
	}
	assert.Equal(t, "TEXT", tbl.Columns[1].TargetType)
	assert.Equal(t, "VARCHAR(10)", tbl.Columns[1].SourceType)
}

func TestIntrospect_TableOrderAndMetadata(t *testing.T) {
	def := "0"
	src := dbtest.NewSource().
		AddTable("ZETA", []database.ColumnMeta{
			{Name: "ID", Type: "INTEGER", Nullable: database.NotNull, IsKey: true, Default: &def},
		}, nil).
		AddTable("ALPHA", []database.ColumnMeta{col("X", "DOUBLE(12)", database.Nullable)}, nil)

	cat, err := Introspect(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZETA", "ALPHA"}, cat.Names())

	zeta, _ := cat.Lookup("ZETA")
	assert.True(t, zeta.Columns[0].IsKey)
	assert.Equal(t, database.NotNull, zeta.Columns[0].Nullable)
	require.NotNil(t, zeta.Columns[0].Default)
	assert.Equal(t, "0", *zeta.Columns[0].Default)
	assert.Equal(t, []string{"ID"}, zeta.KeyColumns())

	alpha, _ := cat.Lookup("ALPHA")
	assert.Equal(t, "FLOAT(12, 11)", alpha.Columns[0].TargetType)
	assert.Empty(t, alpha.KeyColumns())
}

func TestIntrospect_ZeroColumnTable(t *testing.T) {
	src := dbtest.NewSource().AddTable("EMPTY", nil, nil)

	cat, err := Introspect(context.Background(), src, nil)
	require.NoError(t, err)
	tbl, ok := cat.Lookup("EMPTY")
	require.True(t, ok)
	assert.Empty(t, tbl.Columns)
}

func TestIntrospect_Errors(t *testing.T) {
	t.Run("no tables", func(t *testing.T) {
		_, err := Introspect(context.Background(), dbtest.NewSource(), nil)
		require.Error(t, err)
		assert.True(t, errs.IsIntrospection(err))
	})

	t.Run("list fails", func(t *testing.T) {
		src := dbtest.NewSource()
		src.ListErr = errors.New("connection reset")
		_, err := Introspect(context.Background(), src, nil)
		require.Error(t, err)
		assert.True(t, errs.IsIntrospection(err))
		assert.ErrorIs(t, err, src.ListErr)
	})

	t.Run("columns fail", func(t *testing.T) {
		src := dbtest.NewSource().AddTable("T", nil, nil)
		src.ColumnErr["T"] = errors.New("boom")
		_, err := Introspect(context.Background(), src, nil)
		require.Error(t, err)
		assert.True(t, errs.IsIntrospection(err))
		assert.Contains(t, err.Error(), "table=T")
	})
}

func TestCatalog_IsImmutable(t *testing.T) {
	cat, err := NewCatalog([]Table{{Name: "T", Columns: []ColumnDescriptor{{Name: "a"}}}})
	require.NoError(t, err)

	tbl, _ := cat.Lookup("T")
	tbl.Columns[0].Name = "changed"
	cat.Tables()[0].Columns[0].Name = "changed"

	again, _ := cat.Lookup("T")
	assert.Equal(t, "a", again.Columns[0].Name)
}

func TestCatalog_Duplicate(t *testing.T) {
	_, err := NewCatalog([]Table{{Name: "T"}, {Name: "T"}})
	require.Error(t, err)
	assert.True(t, errs.IsIntrospection(err))
}

func TestCatalog_Filter(t *testing.T) {
	cat, err := NewCatalog([]Table{{Name: "A"}, {Name: "B"}, {Name: "C"}})
	require.NoError(t, err)

	got, err := cat.Filter([]string{"C", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, got.Names(), "source order is kept")

	same, err := cat.Filter(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, same.Len())

	_, err = cat.Filter([]string{"missing"})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestBuildCreateTable(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  string
	}{
		{
			name: "unknown nullability",
			table: Table{Name: "T", Columns: []ColumnDescriptor{
				{Name: "id", TargetType: "INTEGER"},
				{Name: "name", TargetType: "TEXT"},
				{Name: "active", TargetType: "BOOLEAN"},
			}},
			want: "CREATE TABLE T (id INTEGER, name TEXT, active BOOLEAN);",
		},
		{
			name: "nullability flags and ignored key",
			table: Table{Name: "USERS", Columns: []ColumnDescriptor{
				{Name: "ID", TargetType: "INTEGER", Nullable: database.NotNull, IsKey: true},
				{Name: "EMAIL", TargetType: "TEXT", Nullable: database.Nullable},
			}},
			want: "CREATE TABLE USERS (ID INTEGER NOT NULL, EMAIL TEXT NULL);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildCreateTable(tt.table)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "PRIMARY KEY")
		})
	}
}

func TestMaterialize(t *testing.T) {
	target := dbtest.NewTarget()
	tbl := Table{Name: "T", Columns: []ColumnDescriptor{{Name: "id", TargetType: "INTEGER"}}}

	require.NoError(t, Materialize(context.Background(), target, tbl))
	assert.Equal(t, []string{"CREATE TABLE T (id INTEGER);"}, target.Executed)
}

func TestMaterialize_Rejected(t *testing.T) {
	target := dbtest.NewTarget()
	target.ExecErr = dbtest.FailOn("CREATE TABLE T", errors.New("Table 'T' already exists"))

	err := Materialize(context.Background(), target, Table{Name: "T", Columns: []ColumnDescriptor{{Name: "id", TargetType: "INTEGER"}}})
	require.Error(t, err)
	assert.True(t, errs.IsSchema(err))
	assert.Contains(t, err.Error(), "table=T")
}

func TestMaterialize_NoColumns(t *testing.T) {
	target := dbtest.NewTarget()

	err := Materialize(context.Background(), target, Table{Name: "EMPTY"})
	require.Error(t, err)
	assert.True(t, errs.IsSchema(err))
	assert.Empty(t, target.Executed)
}
