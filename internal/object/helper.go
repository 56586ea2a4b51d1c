package object

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"hsl/internal/interop"
)

// Inspect renders any runtime value the way `print` shows it.
func Inspect(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case string:
		return x
	case rune:
		return string(x)
	case Object:
		return x.Inspect()
	}
	return fmt.Sprint(v)
}

// FormatNumber prints integral values without a fraction and everything else
// in the shortest form that round-trips.
func FormatNumber(f float64) string {
	abs := math.Abs(f)
	if abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case rune:
		return "char"
	case *Array:
		return "array"
	case Callable:
		return "function"
	case ClassReference:
		return "class"
	case InstanceReference:
		return "instance"
	}
	return "object"
}

// Equal compares two runtime values without coercion. Composite values are
// equal only to themselves, except host objects, which compare by value when
// their type allows it.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case rune:
		y, ok := b.(rune)
		return ok && x == y
	case *ExternalInstance:
		y, ok := b.(*ExternalInstance)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		tx, ty := reflect.TypeOf(x.Value), reflect.TypeOf(y.Value)
		return tx != nil && tx == ty && tx.Comparable() && x.Value == y.Value
	}
	return a == b
}

// FromHost converts a value produced by host code into its runtime
// representation: numbers become float64, slices become arrays, functions
// become external functions and other structured values become external
// instances. int32 is rune in Go and stays a char.
func FromHost(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool, float64, string, rune, Object:
		return x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		elements := make([]any, len(x))
		for i, e := range x {
			elements[i] = FromHost(e)
		}
		return NewArray(elements...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int64:
		return float64(rv.Int())
	case reflect.Int32:
		return rune(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		elements := make([]any, rv.Len())
		for i := range elements {
			elements[i] = FromHost(rv.Index(i).Interface())
		}
		return NewArray(elements...)
	case reflect.Func:
		if rv.IsNil() {
			return nil
		}
		exe, err := interop.FuncOf("function", v)
		if err != nil {
			return nil
		}
		return &ExternalFunction{Name: "function", Executables: []interop.Executable{exe}}
	case reflect.Ptr, reflect.Map, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	}
	return &ExternalInstance{Of: &ExternalClass{HostType: interop.Describe(v)}, Value: v}
}
