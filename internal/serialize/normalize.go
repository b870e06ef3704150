// Package serialize turns arbitrary values into JSON-ready trees in which
// every arbitrary-precision or 64-bit integer is a decimal string, so that
// clients decoding into IEEE-754 numbers never lose digits.
package serialize

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	bigIntType      = reflect.TypeOf(big.Int{})
	hexBigType      = reflect.TypeOf(hexutil.Big{})
	jsonMarshaler   = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshaler   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	rawMessageType  = reflect.TypeOf(json.RawMessage{})
	shaperType      = reflect.TypeOf((*Shaper)(nil)).Elem()
	maxNestingDepth = 64
)

// Shaper is implemented by types whose wire form differs from their Go
// layout. Normalize works on the value Shape returns instead.
type Shaper interface {
	Shape() any
}

// Normalize rebuilds v as map[string]any, []any and scalar values. Big
// integers, int64 and uint64 values become base-10 strings; strings are left
// untouched, which makes Normalize idempotent. Struct fields follow the
// encoding/json tag rules.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return normalize(reflect.ValueOf(v), 0)
}

func normalize(v reflect.Value, depth int) (any, error) {
	if depth > maxNestingDepth {
		return nil, fmt.Errorf("serialize: nesting deeper than %d", maxNestingDepth)
	}
	if !v.IsValid() {
		return nil, nil
	}

	switch v.Type() {
	case bigIntType:
		return bigString(addressable(v).Addr().Interface().(*big.Int)), nil
	case hexBigType:
		return bigString(addressable(v).Addr().Interface().(*hexutil.Big).ToInt()), nil
	case rawMessageType:
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		return normalize(v.Elem(), depth+1)
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return normalize(v.Elem(), depth+1)
	case reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		if v.Type().Implements(textMarshaler) || v.Type().Implements(jsonMarshaler) {
			return v.Interface(), nil
		}
		return primitive(v), nil
	}

	if shaped, ok := asShaper(v); ok {
		return normalize(reflect.ValueOf(shaped.Shape()), depth+1)
	}

	// Types with their own wire form (addresses, hashes, hexutil.Bytes) keep it.
	if v.Type().Implements(jsonMarshaler) || v.Type().Implements(textMarshaler) {
		return v.Interface(), nil
	}
	if v.CanAddr() && (v.Addr().Type().Implements(jsonMarshaler) || v.Addr().Type().Implements(textMarshaler)) {
		return v.Addr().Interface(), nil
	}

	switch v.Kind() {
	case reflect.Struct:
		return normalizeStruct(v, depth)
	case reflect.Map:
		return normalizeMap(v, depth)
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface(), nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := normalize(v.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}
	return nil, fmt.Errorf("serialize: unsupported kind %s", v.Kind())
}

func normalizeMap(v reflect.Value, depth int) (any, error) {
	if v.IsNil() {
		return nil, nil
	}
	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return nil, err
		}
		item, err := normalize(iter.Value(), depth+1)
		if err != nil {
			return nil, err
		}
		out[key] = item
	}
	return out, nil
}

func normalizeStruct(v reflect.Value, depth int) (any, error) {
	out := make(map[string]any, v.NumField())
	if err := collectFields(v, depth, out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectFields(v reflect.Value, depth int, out map[string]any) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, omitEmpty, skip := parseTag(field)
		if skip {
			continue
		}
		value := v.Field(i)

		if field.Anonymous && name == "" {
			inner := value
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				if err := collectFields(inner, depth+1, out); err != nil {
					return err
				}
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if omitEmpty && isEmptyValue(value) {
			continue
		}
		item, err := normalize(value, depth+1)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out[name] = item
	}
	return nil
}

func parseTag(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty, false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func mapKey(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return "", err
		}
		return string(text), nil
	}
	return "", fmt.Errorf("serialize: unsupported map key kind %s", k.Kind())
}

func primitive(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		// int64 would be stringified on a second pass.
		return int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uintptr:
		return uint(v.Uint())
	default:
		return v.Float()
	}
}

func bigString(b *big.Int) any {
	if b == nil {
		return nil
	}
	return b.String()
}

func asShaper(v reflect.Value) (Shaper, bool) {
	if v.Type().Implements(shaperType) {
		return v.Interface().(Shaper), true
	}
	if reflect.PointerTo(v.Type()).Implements(shaperType) {
		return addressable(v).Addr().Interface().(Shaper), true
	}
	return nil, false
}

// addressable returns an addressable copy of v when v itself is not.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	cp := reflect.New(v.Type()).Elem()
	cp.Set(v)
	return cp
}
