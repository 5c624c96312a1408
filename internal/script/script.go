// Package script renders host calls into the document environment's call
// syntax.
//
// A call renders as methodName(arg1, arg2, ...). Arguments are encoded as:
//
//	nil              -> null
//	string           -> `...` with backtick, backslash and '$' escaped
//	bool, numbers    -> native literal
//	color.Color      -> 'RRGGBB'
//	[]string         -> [`a`, `b`]
//
// String escaping is deliberately loose: it prevents breaking out of the
// template literal and interpolation, nothing more.
package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/richbridge/internal/color"
)

// EscapeString returns s as a backtick-delimited string literal.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('`')
	for _, r := range s {
		switch r {
		case '`':
			b.WriteString("\\`")
		case '\\':
			b.WriteString("\\\\")
		case '$':
			b.WriteString("\\$")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('`')
	return b.String()
}

// Literal encodes a single argument.
func Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case string:
		return EscapeString(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case color.Color:
		return "'" + val.Hex() + "'", nil
	case *color.Color:
		if val == nil {
			return "null", nil
		}
		return "'" + val.Hex() + "'", nil
	case []string:
		items := make([]string, len(val))
		for i, s := range val {
			items[i] = EscapeString(s)
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedArgument, v)
	}
}

// Render encodes a call of method with args.
func Render(method string, args ...any) (string, error) {
	encoded := make([]string, len(args))
	for i, arg := range args {
		lit, err := Literal(arg)
		if err != nil {
			return "", fmt.Errorf("argument %d of %s: %w", i, method, err)
		}
		encoded[i] = lit
	}
	return method + "(" + strings.Join(encoded, ", ") + ")", nil
}
