package schema

import (
	"strconv"
	"strings"
)

// Target types produced by MapType.
const (
	TextTargetType    = "TEXT"
	BooleanTargetType = "BOOLEAN"
	DoubleTargetType  = "DOUBLE"
	// RealTargetType is the fixed precision/scale used for every REAL column.
	RealTargetType = "FLOAT(15,10)"
)

// MySQL's upper bounds for FLOAT(M,D).
const (
	maxPrecision = 255
	maxScale     = 30
)

// MapType translates an H2 column type into its MySQL counterpart. Rules
// are case-sensitive substring matches tried in order; the first match
// wins and anything unmatched is returned unchanged.
//
//	VARCHAR...   -> TEXT
//	BOOLEAN      -> BOOLEAN
//	DOUBLE(v)    -> FLOAT(v, v-1)
//	REAL         -> FLOAT(15,10)
func MapType(sourceType string) string {
	switch {
	case strings.Contains(sourceType, "VARCHAR"):
		return TextTargetType
	case strings.Contains(sourceType, "BOOLEAN"):
		return BooleanTargetType
	case strings.Contains(sourceType, "DOUBLE"):
		return mapDouble(sourceType)
	case strings.Contains(sourceType, "REAL"):
		return RealTargetType
	default:
		return sourceType
	}
}

// mapDouble keeps the declared precision and uses one digit less for the
// scale, since MySQL requires the scale to be below the precision. Both are
// clamped to what MySQL accepts.
func mapDouble(sourceType string) string {
	open := strings.Index(sourceType, "(")
	end := strings.LastIndex(sourceType, ")")
	if open < 0 || end <= open {
		return DoubleTargetType
	}
	v, err := strconv.Atoi(strings.TrimSpace(sourceType[open+1 : end]))
	if err != nil || v <= 0 {
		return DoubleTargetType
	}

	if v > maxPrecision {
		v = maxPrecision
	}
	scale := v - 1
	if scale > maxScale {
		scale = maxScale
	}
	return "FLOAT(" + strconv.Itoa(v) + ", " + strconv.Itoa(scale) + ")"
}
