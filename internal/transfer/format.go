package transfer

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/dbferry/internal/errs"
)

// timestampLayout is accepted by MySQL for DATE, TIME, DATETIME and
// TIMESTAMP columns alike.
const timestampLayout = "2006-01-02 15:04:05.999999"

// escaper backslash-escapes every character MySQL treats specially inside
// a quoted literal or a LIKE pattern.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`%`, `\%`,
	`_`, `\_`,
)

// FormatValue turns stringified text into a MySQL literal. The exact
// strings True and False stay unquoted so MySQL reads them as booleans;
// everything else is escaped and single-quoted.
func FormatValue(raw string) string {
	esc := escaper.Replace(raw)
	if raw == "True" || raw == "False" {
		return esc
	}
	return "'" + esc + "'"
}

// FormatLiteral renders one driver value as a MySQL literal.
//
//	nil              NULL
//	bool             True / False
//	integers, floats decimal text, unquoted
//	[]byte           X'<hex>'
//	time.Time        FormatValue of "2006-01-02 15:04:05.999999"
//	everything else  FormatValue of its text form
//
// Text holding NUL or Ctrl-Z is refused with a format error.
func FormatLiteral(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if t {
			return FormatValue("True"), nil
		}
		return FormatValue("False"), nil
	case int:
		return strconv.FormatInt(int64(t), 10), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return formatFloat(float64(t), 32)
	case float64:
		return formatFloat(t, 64)
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(t)) + "'", nil
	case time.Time:
		return FormatValue(t.Format(timestampLayout)), nil
	case string:
		return formatText(t)
	case driver.Valuer:
		inner, err := t.Value()
		if err != nil {
			return "", errs.Wrap(errs.ErrKindFormat, fmt.Sprintf("cannot read %T value", v), err)
		}
		if _, again := inner.(driver.Valuer); again {
			return formatText(fmt.Sprint(inner))
		}
		return FormatLiteral(inner)
	default:
		return formatText(fmt.Sprint(v))
	}
}

// RowLiterals formats every value of a row in column order.
func RowLiterals(row []any) ([]string, error) {
	out := make([]string, len(row))
	for i, v := range row {
		lit, err := FormatLiteral(v)
		if err != nil {
			return nil, err
		}
		out[i] = lit
	}
	return out, nil
}

func formatText(s string) (string, error) {
	if i := strings.IndexAny(s, "\x00\x1a"); i >= 0 {
		return "", errs.Errorf(errs.ErrKindFormat, "value contains control character %#x at byte %d", s[i], i)
	}
	return FormatValue(s), nil
}

func formatFloat(f float64, bits int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errs.Errorf(errs.ErrKindFormat, "value %v has no SQL literal", f)
	}
	return strconv.FormatFloat(f, 'f', -1, bits), nil
}
