package core

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToNumberOrNull coerces an arbitrary input value into a decimal.
// nil, blank strings, unparsable strings and non-finite floats come back
// as a null (Valid=false) NullDecimal. Strings may carry comma grouping,
// a leading sign and surrounding whitespace ("-1,234.50").
func ToNumberOrNull(v any) decimal.NullDecimal {
	switch n := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return finite(n)
	case *decimal.Decimal:
		if n == nil {
			return decimal.NullDecimal{}
		}
		return finite(*n)
	case decimal.NullDecimal:
		if !n.Valid {
			return n
		}
		return finite(n.Decimal)
	case *decimal.NullDecimal:
		if n == nil || !n.Valid {
			return decimal.NullDecimal{}
		}
		return finite(n.Decimal)
	case json.Number:
		return parseNumericString(string(n))
	case string:
		return parseNumericString(n)
	case *string:
		if n == nil {
			return decimal.NullDecimal{}
		}
		return parseNumericString(*n)
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	case int8:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	case int16:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	case int32:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(n)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(n))
	case uint:
		return decimal.NewNullDecimal(decimal.NewFromUint64(uint64(n)))
	case uint8:
		return decimal.NewNullDecimal(decimal.NewFromUint64(uint64(n)))
	case uint16:
		return decimal.NewNullDecimal(decimal.NewFromUint64(uint64(n)))
	case uint32:
		return decimal.NewNullDecimal(decimal.NewFromUint64(uint64(n)))
	case uint64:
		return decimal.NewNullDecimal(decimal.NewFromUint64(n))
	default:
		return decimal.NullDecimal{}
	}
}

// ToNumberOrZero is ToNumberOrNull for fields whose default is an explicit zero.
func ToNumberOrZero(v any) decimal.Decimal {
	return valueOrZero(ToNumberOrNull(v))
}

// ToBoolean coerces flags coming from forms and legacy rows.
func ToBoolean(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case *bool:
		return b != nil && *b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "y":
			return true
		case "false", "0", "no", "n":
			return false
		}
		return b != ""
	}
	if n := ToNumberOrNull(v); n.Valid {
		return !n.Decimal.IsZero()
	}
	// NaN and the like are falsy; maps, slices and structs are truthy.
	if f, ok := v.(float64); ok {
		return !math.IsNaN(f)
	}
	if f, ok := v.(float32); ok {
		return !math.IsNaN(float64(f))
	}
	return true
}

func parseNumericString(s string) decimal.NullDecimal {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return finite(d)
}

// Magnitude bounds of a float64, as powers of ten.
const (
	maxMagnitude = 309
	minMagnitude = -324
)

// finite keeps d only when it fits a float64: values beyond the float64
// range are null and values below the smallest subnormal collapse to zero.
// The checks read the exponent and digit count before any arithmetic, so a
// huge exponent never gets expanded.
func finite(d decimal.Decimal) decimal.NullDecimal {
	if d.IsZero() {
		return decimal.NewNullDecimal(decimal.Zero)
	}
	magnitude := int64(d.Exponent()) + int64(d.NumDigits())
	switch {
	case magnitude > maxMagnitude:
		return decimal.NullDecimal{}
	case magnitude < minMagnitude:
		return decimal.NewNullDecimal(decimal.Zero)
	case magnitude >= maxMagnitude-1:
		if f, _ := d.Float64(); math.IsInf(f, 0) {
			return decimal.NullDecimal{}
		}
	}
	return decimal.NewNullDecimal(d)
}

func fromFloat(f float64) decimal.NullDecimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(f))
}

func valueOrZero(n decimal.NullDecimal) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Decimal
}

func nullOf(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}
