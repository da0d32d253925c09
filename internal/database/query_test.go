package database

import (
	"testing"

	"github.com/koustreak/dbferry/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	tests := []struct {
		name     string
		builder  *SelectBuilder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "h2 plain select",
			builder:  Select("ORDERS", DialectH2),
			wantSQL:  `SELECT * FROM "ORDERS"`,
			wantArgs: nil,
		},
		{
			name:     "h2 page",
			builder:  Select("ORDERS", DialectH2).Offset(1000).Limit(1000),
			wantSQL:  `SELECT * FROM "ORDERS" OFFSET $1 ROWS FETCH NEXT $2 ROWS ONLY`,
			wantArgs: []any{int64(1000), int64(1000)},
		},
		{
			name:     "h2 ordered page",
			builder:  Select("ORDERS", DialectH2).OrderBy("ID", "LINE").Offset(0).Limit(500),
			wantSQL:  `SELECT * FROM "ORDERS" ORDER BY "ID", "LINE" OFFSET $1 ROWS FETCH NEXT $2 ROWS ONLY`,
			wantArgs: []any{int64(0), int64(500)},
		},
		{
			name:     "h2 columns",
			builder:  Select("T", DialectH2).Columns("A", "B"),
			wantSQL:  `SELECT "A", "B" FROM "T"`,
			wantArgs: nil,
		},
		{
			name:     "mysql page",
			builder:  Select("orders", DialectMySQL).OrderBy("id").Offset(20).Limit(10),
			wantSQL:  "SELECT * FROM `orders` ORDER BY `id` LIMIT ? OFFSET ?",
			wantArgs: []any{int64(10), int64(20)},
		},
		{
			name:     "mysql offset without limit",
			builder:  Select("orders", DialectMySQL).Offset(5),
			wantSQL:  "SELECT * FROM `orders` LIMIT 18446744073709551615 OFFSET ?",
			wantArgs: []any{int64(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.builder.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelectBuilder_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		builder *SelectBuilder
	}{
		{"missing table", Select("", DialectH2)},
		{"negative offset", Select("T", DialectH2).Offset(-1)},
		{"zero limit", Select("T", DialectH2).Limit(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.builder.Build()
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"ORDERS"`, QuoteIdent(DialectH2, "ORDERS"))
	assert.Equal(t, `"A""B"`, QuoteIdent(DialectH2, `A"B`))
	assert.Equal(t, "`orders`", QuoteIdent(DialectMySQL, "orders"))
	assert.Equal(t, "`a``b`", QuoteIdent(DialectMySQL, "a`b"))
}

func TestCountQuery(t *testing.T) {
	assert.Equal(t, `SELECT COUNT(*) FROM "ORDERS"`, CountQuery(DialectH2, "ORDERS"))
	assert.Equal(t, "SELECT COUNT(*) FROM `orders`", CountQuery(DialectMySQL, "orders"))
}

func TestParseNullability(t *testing.T) {
	assert.Equal(t, Nullable, ParseNullability("YES"))
	assert.Equal(t, Nullable, ParseNullability(" yes "))
	assert.Equal(t, NotNull, ParseNullability("NO"))
	assert.Equal(t, NullUnknown, ParseNullability(""))
	assert.Equal(t, NullUnknown, ParseNullability("maybe"))
	assert.Equal(t, "YES", Nullable.String())
	assert.Equal(t, "", NullUnknown.String())
}

func TestDefaultConfig(t *testing.T) {
	h2 := DefaultConfig(DriverH2, "postgres://sa@localhost:5435/test")
	assert.Equal(t, "PUBLIC", h2.Schema)
	assert.Equal(t, DriverH2, h2.Driver)
	assert.NotZero(t, h2.ConnectTimeout)

	my := DefaultConfig(DriverMySQL, "root@tcp(localhost:3306)/")
	assert.Empty(t, my.Schema)
}
