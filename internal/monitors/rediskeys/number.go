package rediskeys

import (
	"strconv"
	"strings"
)

// Number is a metric value that is either integral or floating point.
type Number struct {
	Int     int64
	Float   float64
	IsFloat bool
}

// IntNumber wraps an integer value.
func IntNumber(i int64) Number {
	return Number{Int: i}
}

// FloatNumber wraps a floating point value.
func FloatNumber(f float64) Number {
	return Number{Float: f, IsFloat: true}
}

// ParseNumber parses s as an integer, falling back to a float.  Surrounding
// whitespace is ignored.
func ParseNumber(s string) (Number, error) {
	trimmed := strings.TrimSpace(s)
	if asInt, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return IntNumber(asInt), nil
	}
	asFloat, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return Number{}, &NumericParseError{Value: s}
	}
	return FloatNumber(asFloat), nil
}

// Float64 returns the value as a float regardless of its kind.
func (n Number) Float64() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// Int64 returns the value as an integer, truncating floats.
func (n Number) Int64() int64 {
	if n.IsFloat {
		return int64(n.Float)
	}
	return n.Int
}

func (n Number) String() string {
	if n.IsFloat {
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	}
	return strconv.FormatInt(n.Int, 10)
}
