package transfer

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
)

// InsertMode selects how a batch is written.
type InsertMode string

const (
	// InsertLiteral writes one multi-row INSERT with values rendered by
	// FormatLiteral.
	InsertLiteral InsertMode = "literal"

	// InsertParams writes multi-row INSERTs with ? placeholders.
	InsertParams InsertMode = "params"
)

// ParseInsertMode validates a configured mode. Empty means InsertLiteral.
func ParseInsertMode(s string) (InsertMode, error) {
	switch InsertMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", InsertLiteral:
		return InsertLiteral, nil
	case InsertParams:
		return InsertParams, nil
	default:
		return "", errs.Errorf(errs.ErrKindInvalidInput, "unknown insert mode %q (want literal or params)", s)
	}
}

// maxPlaceholders is MySQL's limit on bind parameters per statement.
const maxPlaceholders = 65535

// BuildLiteralInsert renders
//
//	INSERT INTO <table> (<cols>) VALUES (<row>), (<row>);
//
// from rows that were already formatted by RowLiterals.
func BuildLiteralInsert(table string, cols []string, rows [][]string) string {
	var sb strings.Builder
	writeInsertHead(&sb, table, cols)
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		sb.WriteString(strings.Join(row, ", "))
		sb.WriteByte(')')
	}
	sb.WriteByte(';')
	return sb.String()
}

// BuildParamInserts renders rows as placeholder INSERTs, splitting them so
// that no statement exceeds MySQL's placeholder limit.
func BuildParamInserts(table string, cols []string, rows [][]any) ([]database.Statement, error) {
	if len(cols) == 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "insert needs at least one column").ForTable(table)
	}
	if len(cols) > maxPlaceholders {
		return nil, errs.Errorf(errs.ErrKindInvalidInput, "%d columns exceed the placeholder limit", len(cols)).ForTable(table)
	}

	perStmt := maxPlaceholders / len(cols)
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"

	stmts := make([]database.Statement, 0, (len(rows)+perStmt-1)/perStmt)
	for start := 0; start < len(rows); start += perStmt {
		chunk := rows[start:min(start+perStmt, len(rows))]

		var sb strings.Builder
		writeInsertHead(&sb, table, cols)
		args := make([]any, 0, len(chunk)*len(cols))
		for i, row := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(tuple)
			for _, v := range row {
				args = append(args, paramValue(v))
			}
		}
		sb.WriteByte(';')
		stmts = append(stmts, database.Statement{SQL: sb.String(), Args: args})
	}
	return stmts, nil
}

func writeInsertHead(sb *strings.Builder, table string, cols []string) {
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")
}

// paramValue passes through everything database/sql can bind and
// stringifies the rest.
func paramValue(v any) any {
	switch v.(type) {
	case nil, bool, string, []byte, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, driver.Valuer:
		return v
	default:
		return fmt.Sprint(v)
	}
}
