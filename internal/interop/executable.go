package interop

import (
	"fmt"
	"math"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Assignability scores used to rank overloads.
const (
	scoreLoose      = 1 // interface parameter, nil argument, char conversion
	scoreConversion = 2 // numeric conversion, slice conversion, named types
	scoreExact      = 3
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// funcExecutable invokes a Go function through reflection. Methods obtained from
// a reflect.Type take their receiver as the first parameter.
type funcExecutable struct {
	name     string
	fn       reflect.Value
	receiver bool
}

// FuncOf wraps a Go function so scripts can call it.
func FuncOf(name string, fn any) (Executable, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s: expected a function, got %T", name, fn)
	}
	return &funcExecutable{name: name, fn: v}, nil
}

func (f *funcExecutable) Name() string { return f.name }

func (f *funcExecutable) offset() int {
	if f.receiver {
		return 1
	}
	return 0
}

func (f *funcExecutable) Arity() int { return f.fn.Type().NumIn() - f.offset() }

func (f *funcExecutable) IsVariadic() bool { return f.fn.Type().IsVariadic() }

func (f *funcExecutable) paramType(i int) reflect.Type {
	t := f.fn.Type()
	n := f.Arity()
	if f.IsVariadic() && i >= n-1 {
		return t.In(f.offset() + n - 1).Elem()
	}
	return t.In(f.offset() + i)
}

func (f *funcExecutable) Score(args []any) (int, bool) {
	n := f.Arity()
	if f.IsVariadic() {
		if len(args) < n-1 {
			return 0, false
		}
	} else if len(args) != n {
		return 0, false
	}

	total := 0
	for i, a := range args {
		_, score, ok := convert(a, f.paramType(i))
		if !ok {
			return 0, false
		}
		total += score
	}
	return total, true
}

func (f *funcExecutable) Invoke(receiver any, args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", f.name, r)
		}
	}()

	in := make([]reflect.Value, 0, len(args)+1)
	if f.receiver {
		rv, err := receiverValue(receiver, f.fn.Type().In(0))
		if err != nil {
			return nil, err
		}
		in = append(in, rv)
	}
	for i, a := range args {
		v, _, ok := convert(a, f.paramType(i))
		if !ok {
			return nil, fmt.Errorf("%w: %s(%s)", ErrNoMatch, f.name, describeArgs(args))
		}
		in = append(in, v)
	}
	return results(f.fn.Call(in))
}

// results maps Go return conventions onto a single value and an error.
func results(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type().Implements(errorType) && (last.Kind() == reflect.Interface || last.Kind() == reflect.Ptr) {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		if len(out) == 1 {
			return nil, nil
		}
	}
	return out[0].Interface(), nil
}

func receiverValue(receiver any, want reflect.Type) (reflect.Value, error) {
	if hv, ok := receiver.(HostValue); ok {
		receiver = hv.HostObject()
	}
	if receiver == nil {
		return reflect.Value{}, fmt.Errorf("missing receiver of type %s", want)
	}
	rv := reflect.ValueOf(receiver)
	switch {
	case rv.Type().AssignableTo(want):
		return rv, nil
	case want.Kind() == reflect.Ptr && rv.Type() == want.Elem():
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		return p, nil
	case rv.Kind() == reflect.Ptr && rv.Type().Elem().AssignableTo(want):
		return rv.Elem(), nil
	}
	return reflect.Value{}, fmt.Errorf("receiver %T is not a %s", receiver, want)
}

// convert adapts a script value to a Go parameter type and rates the fit.
func convert(v any, target reflect.Type) (reflect.Value, int, bool) {
	if hv, ok := v.(HostValue); ok {
		v = hv.HostObject()
	}
	if v == nil {
		switch target.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(target), scoreLoose, true
		}
		return reflect.Value{}, 0, false
	}

	rv := reflect.ValueOf(v)
	if rv.Type() == target {
		return rv, scoreExact, true
	}

	if seq, ok := v.(Sequence); ok && target.Kind() == reflect.Slice {
		values := seq.Values()
		out := reflect.MakeSlice(target, len(values), len(values))
		for i, e := range values {
			ev, _, ok := convert(e, target.Elem())
			if !ok {
				return reflect.Value{}, 0, false
			}
			out.Index(i).Set(ev)
		}
		return out, scoreConversion, true
	}

	if target.Kind() == reflect.Interface {
		if rv.Type().Implements(target) {
			return rv, scoreLoose, true
		}
		return reflect.Value{}, 0, false
	}

	switch value := v.(type) {
	case float64:
		return convertNumber(value, target)
	case rune:
		if target.Kind() == reflect.String {
			return reflect.ValueOf(string(value)).Convert(target), scoreLoose, true
		}
		if isNumeric(target.Kind()) {
			return rv.Convert(target), scoreLoose, true
		}
	}

	if rv.Type().AssignableTo(target) {
		return rv, scoreConversion, true
	}
	if rv.Kind() == target.Kind() && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), scoreConversion, true
	}
	return reflect.Value{}, 0, false
}

func convertNumber(f float64, target reflect.Type) (reflect.Value, int, bool) {
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// the range is checked in float64 since converting an out of range
		// float to an integer is implementation defined
		limit := math.Ldexp(1, target.Bits()-1)
		if f != math.Trunc(f) || f < -limit || f >= limit {
			return reflect.Value{}, 0, false
		}
		return reflect.ValueOf(int64(f)).Convert(target), scoreConversion, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f != math.Trunc(f) || f < 0 || f >= math.Ldexp(1, target.Bits()) {
			return reflect.Value{}, 0, false
		}
		return reflect.ValueOf(uint64(f)).Convert(target), scoreConversion, true
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(f).Convert(target), scoreConversion, true
	}
	return reflect.Value{}, 0, false
}

func isNumeric(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

// exported returns name with its first letter upper-cased, so scripts can use
// lower camel case for Go members.
func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
