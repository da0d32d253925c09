package transfer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/koustreak/dbferry/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLiteralInsert(t *testing.T) {
	got := BuildLiteralInsert("T", []string{"id", "name", "active"}, [][]string{
		{"1", "'Al'", "True"},
		{"2", `'O\'Neil'`, "False"},
	})
	assert.Equal(t, `INSERT INTO T (id, name, active) VALUES (1, 'Al', True), (2, 'O\'Neil', False);`, got)
}

func TestBuildParamInserts(t *testing.T) {
	stmts, err := BuildParamInserts("T", []string{"id", "name"}, [][]any{
		{int64(1), "Al"},
		{int64(2), nil},
	})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "INSERT INTO T (id, name) VALUES (?, ?), (?, ?);", stmts[0].SQL)
	assert.Equal(t, []any{int64(1), "Al", int64(2), nil}, stmts[0].Args)
}

func TestBuildParamInserts_SplitsAtPlaceholderLimit(t *testing.T) {
	cols := make([]string, 10)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i)
	}
	rows := make([][]any, 7000) // 70000 placeholders
	for i := range rows {
		rows[i] = make([]any, len(cols))
	}

	stmts, err := BuildParamInserts("WIDE", cols, rows)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	total := 0
	for _, st := range stmts {
		assert.LessOrEqual(t, len(st.Args), maxPlaceholders)
		assert.Equal(t, len(st.Args), strings.Count(st.SQL, "?"))
		total += len(st.Args)
	}
	assert.Equal(t, 70000, total)
	assert.Len(t, stmts[0].Args, 6553*10)
}

func TestBuildParamInserts_NoColumns(t *testing.T) {
	_, err := BuildParamInserts("T", nil, [][]any{{}})
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestParamValue(t *testing.T) {
	assert.Equal(t, int64(1), paramValue(int64(1)))
	assert.Nil(t, paramValue(nil))
	assert.Equal(t, "[1 2]", paramValue([2]int{1, 2}))
}

func TestParseInsertMode(t *testing.T) {
	for in, want := range map[string]InsertMode{
		"":        InsertLiteral,
		"literal": InsertLiteral,
		"PARAMS":  InsertParams,
	} {
		got, err := ParseInsertMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseInsertMode("copy")
	assert.True(t, errs.IsInvalidInput(err))
}
