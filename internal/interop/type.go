package interop

import (
	"fmt"
	"reflect"
	"sync"
)

type TypeOption func(*reflectType) error

// WithName sets the name scripts see, which defaults to the Go type name.
func WithName(name string) TypeOption {
	return func(t *reflectType) error {
		t.name = name
		return nil
	}
}

// WithConstructor registers a Go function returning the type as a
// constructor. Several constructors may be registered; calls pick the best
// match for the arguments. Without any, the type gets a zero-argument
// constructor returning a pointer to a zero value.
func WithConstructor(fn any) TypeOption {
	return func(t *reflectType) error {
		v := reflect.ValueOf(fn)
		if v.Kind() != reflect.Func {
			return fmt.Errorf("constructor for %s: expected a function, got %T", t.base, fn)
		}
		if out := v.Type(); out.NumOut() == 0 || (out.Out(0) != t.base && out.Out(0) != t.ptr) {
			return fmt.Errorf("constructor for %s must return it, got %s", t.base, v.Type())
		}
		t.ctors = append(t.ctors, &funcExecutable{name: t.name, fn: v})
		return nil
	}
}

// Final prevents scripts from extending the type.
func Final() TypeOption {
	return func(t *reflectType) error {
		t.final = true
		return nil
	}
}

type reflectType struct {
	name  string
	base  reflect.Type
	ptr   reflect.Type
	final bool
	ctors []Executable
}

// TypeOf describes the Go type of prototype, which may be a value, a pointer
// or a reflect.Type.
func TypeOf(prototype any, opts ...TypeOption) (Type, error) {
	t, ok := prototype.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(prototype)
	}
	if t == nil {
		return nil, fmt.Errorf("cannot describe the type of nil")
	}

	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}
	rt := &reflectType{name: base.Name(), base: base, ptr: reflect.PointerTo(base)}
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	// constructors registered before WithName keep the earlier name
	for _, c := range rt.ctors {
		c.(*funcExecutable).name = rt.name
	}
	if len(rt.ctors) == 0 {
		rt.ctors = []Executable{&zeroConstructor{t: rt}}
	}
	return rt, nil
}

var described sync.Map // reflect.Type -> Type

// Describe returns a cached, option-less Type for a host value, used when host
// code hands objects back to scripts.
func Describe(value any) Type {
	t := reflect.TypeOf(value)
	if cached, ok := described.Load(t); ok {
		return cached.(Type)
	}
	rt, err := TypeOf(t)
	if err != nil {
		return nil
	}
	actual, _ := described.LoadOrStore(t, rt)
	return actual.(Type)
}

func (t *reflectType) Name() string { return t.name }

func (t *reflectType) QualifiedName() string {
	if t.base.PkgPath() == "" {
		return t.base.String()
	}
	return t.base.PkgPath() + "." + t.base.Name()
}

func (t *reflectType) IsFinal() bool { return t.final }

func (t *reflectType) Constructors() []Executable { return t.ctors }

func (t *reflectType) Methods(name string) []Executable {
	for _, candidate := range []string{name, exported(name)} {
		if m, ok := t.ptr.MethodByName(candidate); ok {
			return []Executable{&funcExecutable{name: name, fn: m.Func, receiver: true}}
		}
	}
	return nil
}

func (t *reflectType) field(receiver any, name string) (reflect.Value, bool) {
	if hv, ok := receiver.(HostValue); ok {
		receiver = hv.HostObject()
	}
	rv := reflect.Indirect(reflect.ValueOf(receiver))
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	for _, candidate := range []string{name, exported(name)} {
		sf, ok := rv.Type().FieldByName(candidate)
		if ok && sf.IsExported() {
			return rv.FieldByIndex(sf.Index), true
		}
	}
	return reflect.Value{}, false
}

func (t *reflectType) Field(receiver any, name string) (any, bool) {
	fv, ok := t.field(receiver, name)
	if !ok {
		return nil, false
	}
	return fv.Interface(), true
}

func (t *reflectType) SetField(receiver any, name string, value any) error {
	fv, ok := t.field(receiver, name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrNoSuchMember, t.name, name)
	}
	if !fv.CanSet() {
		return fmt.Errorf("field %s.%s is not settable", t.name, name)
	}
	v, _, ok := convert(value, fv.Type())
	if !ok {
		return fmt.Errorf("cannot assign %s to field %s.%s of type %s", describeArgs([]any{value}), t.name, name, fv.Type())
	}
	fv.Set(v)
	return nil
}

func (t *reflectType) Matches(value any) bool {
	if hv, ok := value.(HostValue); ok {
		value = hv.HostObject()
	}
	vt := reflect.TypeOf(value)
	return vt != nil && (vt == t.base || vt == t.ptr)
}

type zeroConstructor struct {
	t *reflectType
}

func (z *zeroConstructor) Name() string     { return z.t.name }
func (z *zeroConstructor) Arity() int       { return 0 }
func (z *zeroConstructor) IsVariadic() bool { return false }

func (z *zeroConstructor) Score(args []any) (int, bool) {
	return 0, len(args) == 0
}

func (z *zeroConstructor) Invoke(_ any, _ []any) (any, error) {
	return reflect.New(z.t.base).Interface(), nil
}
