package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cgalavis/schemakit/catalog"
	"github.com/cgalavis/schemakit/schemaerr"
)

// ParseInt reads a signed integer of the given bit size from a string or any
// numeric value.
func ParseInt(v any, bits int) (int64, error) {
	switch n := v.(type) {
	case int:
		return checkInt(int64(n), bits)
	case int8:
		return int64(n), nil
	case int16:
		return checkInt(int64(n), bits)
	case int32:
		return checkInt(int64(n), bits)
	case int64:
		return checkInt(n, bits)
	case uint8, uint16, uint32, uint64, uint:
		u, err := ParseUint(v, 64)
		if err != nil || u > math.MaxInt64 {
			return 0, fmt.Errorf("%v overflows int%d", v, bits)
		}
		return checkInt(int64(u), bits)
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return checkInt(int64(n), bits)
	case float32:
		return ParseInt(float64(n), bits)
	case json.Number:
		return strconv.ParseInt(n.String(), 10, bits)
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, bits)
	}
	return 0, fmt.Errorf("cannot read %T as integer", v)
}

func checkInt(n int64, bits int) (int64, error) {
	if bits < 64 {
		lim := int64(1) << (bits - 1)
		if n < -lim || n >= lim {
			return 0, fmt.Errorf("%d overflows int%d", n, bits)
		}
	}
	return n, nil
}

// ParseUint reads an unsigned integer of the given bit size.
func ParseUint(v any, bits int) (uint64, error) {
	var u uint64
	switch n := v.(type) {
	case uint:
		u = uint64(n)
	case uint8:
		u = uint64(n)
	case uint16:
		u = uint64(n)
	case uint32:
		u = uint64(n)
	case uint64:
		u = n
	case int, int8, int16, int32, int64:
		i, err := ParseInt(v, 64)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			return 0, fmt.Errorf("%d is negative", i)
		}
		u = uint64(i)
	case float64:
		if n != math.Trunc(n) || n < 0 || n >= math.MaxUint64 {
			return 0, fmt.Errorf("%v is not an unsigned integer", n)
		}
		u = uint64(n)
	case float32:
		return ParseUint(float64(n), bits)
	case json.Number:
		return strconv.ParseUint(n.String(), 10, bits)
	case string:
		return strconv.ParseUint(strings.TrimSpace(n), 10, bits)
	default:
		return 0, fmt.Errorf("cannot read %T as unsigned integer", v)
	}
	if bits < 64 && u >= uint64(1)<<bits {
		return 0, fmt.Errorf("%d overflows uint%d", u, bits)
	}
	return u, nil
}

// ParseFloat reads a float of the given bit size.
func ParseFloat(v any, bits int) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return strconv.ParseFloat(n.String(), bits)
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), bits)
	}
	return 0, fmt.Errorf("cannot read %T as float", v)
}

// ParseBool reads a boolean from a bool, "true"/"false"/"1"/"0" or 0/1.
func ParseBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	case json.Number:
		return strconv.ParseBool(b.String())
	case int:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case int64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case float64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	}
	return false, fmt.Errorf("cannot read %v as bool", v)
}

// FormatScalar renders a scalar the way the text converters write it.
func FormatScalar(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	case bool:
		return strconv.FormatBool(s), nil
	case json.Number:
		return s.String(), nil
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(s), 'g', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(s), nil
	}
	return "", fmt.Errorf("%T is not a scalar", v)
}

// IsScalar reports whether FormatScalar accepts v.
func IsScalar(v any) bool {
	_, err := FormatScalar(v)
	return err == nil
}

// Coerce converts a scalar to the native Go type for t: int64 for signed
// integers, uint64 for unsigned ones, float64, bool or string. Failures are
// ConversionErrors with code invalid_value naming attr.
func Coerce(attr string, v any, t *catalog.TypeDescriptor) (any, error) {
	var (
		out any
		err error
	)
	switch t.Category {
	case catalog.Integer:
		bits := t.Size * 8
		if bits == 0 {
			bits = 64
		}
		if t.Signed() {
			out, err = ParseInt(v, bits)
		} else {
			out, err = ParseUint(v, bits)
		}
	case catalog.Numeric:
		bits := 64
		if t.Size == 4 {
			bits = 32
		}
		out, err = ParseFloat(v, bits)
	case catalog.Boolean:
		out, err = ParseBool(v)
	case catalog.Alpha:
		out, err = FormatScalar(v)
		if err == nil && t.Size > 0 && len(out.(string)) > t.Size {
			err = fmt.Errorf("%d bytes exceed fixed width %d", len(out.(string)), t.Size)
		}
	default:
		return nil, schemaerr.New(schemaerr.ErrUnsupportedType, schemaerr.CodeUnsupportedType, "type", t.String())
	}
	if err != nil {
		return nil, schemaerr.Conversion(schemaerr.CodeInvalidValue, "name", attr, "value", v).Wrap(err)
	}
	return out, nil
}
