package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsl/internal/ast"
	"hsl/internal/interop"
	"hsl/internal/token"
)

func TestInspect(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{nil, "null"},
		{true, "true"},
		{3.0, "3"},
		{2.5, "2.5"},
		{-0.125, "-0.125"},
		{1e21, "1e+21"},
		{1234567.0, "1234567"},
		{"text", "text"},
		{'x', "x"},
		{NewArray(1.0, "a", NewArray(true)), "[1, a, [true]]"},
		{NewArray(), "[]"},
		{&VirtualClass{Name: "User"}, "<class User>"},
		{NewVirtualInstance(&VirtualClass{Name: "User"}), "<User instance>"},
		{&Placeholder{Name: "User"}, "<uninitialized User>"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Inspect(tt.input))
	}
}

func TestEqual(t *testing.T) {
	arr := NewArray(1.0)
	type point struct{ X, Y int }
	pointType := interop.Describe(point{})
	p1 := &ExternalInstance{Of: &ExternalClass{HostType: pointType}, Value: point{1, 2}}
	p2 := &ExternalInstance{Of: &ExternalClass{HostType: pointType}, Value: point{1, 2}}
	s1 := &ExternalInstance{Of: &ExternalClass{HostType: pointType}, Value: []int{1}}
	s2 := &ExternalInstance{Of: &ExternalClass{HostType: pointType}, Value: []int{1}}

	tests := []struct {
		name     string
		a, b     any
		expected bool
	}{
		{"null", nil, nil, true},
		{"null and false", nil, false, false},
		{"numbers", 1.0, 1.0, true},
		{"number and string", 1.0, "1", false},
		{"strings", "a", "a", true},
		{"char and string", 'a', "a", false},
		{"chars", 'a', 'a', true},
		{"same array", arr, arr, true},
		{"equal arrays", arr, NewArray(1.0), false},
		{"comparable host values", p1, p2, true},
		{"uncomparable host values", s1, s2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Equal(tt.a, tt.b))
		})
	}
}

func TestFromHost(t *testing.T) {
	type named string
	type user struct{ Name string }

	assert.Equal(t, 3.0, FromHost(3))
	assert.Equal(t, 3.0, FromHost(uint8(3)))
	assert.Equal(t, 1.5, FromHost(float32(1.5)))
	assert.Equal(t, 'a', FromHost('a'))
	assert.Equal(t, "x", FromHost(named("x")))
	assert.Nil(t, FromHost((*user)(nil)))

	arr, ok := FromHost([]int{1, 2}).(*Array)
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, arr.Elements)

	inst, ok := FromHost(&user{Name: "ada"}).(*ExternalInstance)
	require.True(t, ok)
	assert.Equal(t, "user", inst.Of.ClassName())
	name, ok := inst.Of.HostType.Field(inst.Value, "name")
	require.True(t, ok)
	assert.Equal(t, "ada", name)

	fn, ok := FromHost(func(a, b int) int { return a + b }).(*ExternalFunction)
	require.True(t, ok)
	out, err := fn.Call([]any{1.0, 2.0})
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestTypeName(t *testing.T) {
	class := &VirtualClass{Name: "A"}
	assert.Equal(t, "number", TypeName(1.0))
	assert.Equal(t, "char", TypeName('c'))
	assert.Equal(t, "array", TypeName(NewArray()))
	assert.Equal(t, "class", TypeName(class))
	assert.Equal(t, "instance", TypeName(NewVirtualInstance(class)))
	assert.Equal(t, "function", TypeName(&NativeFunction{}))
}

func TestVariableScope(t *testing.T) {
	global := NewScope()
	global.Define("a", 1.0)
	inner := NewEnclosedScope(NewEnclosedScope(global))
	inner.Define("b", 2.0)

	v, ok := inner.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = inner.GetAt(2, "a")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = inner.GetAt(1, "a")
	assert.False(t, ok)

	assert.True(t, inner.Assign("a", 3.0))
	v, _ = global.Get("a")
	assert.Equal(t, 3.0, v)

	assert.True(t, inner.AssignAt(0, "b", 4.0))
	assert.False(t, inner.AssignAt(1, "b", 4.0))
	assert.False(t, inner.Assign("missing", 1.0))
	assert.Nil(t, inner.Ancestor(5))
	assert.Equal(t, []string{"a"}, global.Names())
}

func method(name string, params ...string) *VirtualFunction {
	decl := &ast.FunctionStatement{Name: token.Token{Type: token.IDENT, Lexeme: name}}
	for _, p := range params {
		decl.Params = append(decl.Params, token.Token{Type: token.IDENT, Lexeme: p})
	}
	return &VirtualFunction{Declaration: decl, Closure: NewScope()}
}

func TestClassHierarchy(t *testing.T) {
	hostType, err := interop.TypeOf(struct{ ID int }{})
	require.NoError(t, err)
	host := &ExternalClass{HostType: hostType, Alias: "Record"}

	base := &VirtualClass{
		Name:        "Base",
		Superclass:  host,
		Constructor: method("constructor", "id"),
		Methods:     map[string]*VirtualFunction{"f": method("f"), "g": method("g")},
	}
	derived := &VirtualClass{
		Name:       "Derived",
		Superclass: base,
		Methods:    map[string]*VirtualFunction{"f": method("f", "x")},
	}

	f, ok := derived.FindMethod("f")
	require.True(t, ok)
	assert.Equal(t, 1, f.Arity())

	g, ok := derived.FindMethod("g")
	require.True(t, ok)
	assert.Same(t, base.Methods["g"], g)

	_, ok = derived.FindMethod("h")
	assert.False(t, ok)

	assert.Same(t, base.Constructor, derived.FindConstructor())

	root, ok := derived.HostRoot()
	require.True(t, ok)
	assert.Equal(t, "Record", root.ClassName())

	lineage := derived.Lineage()
	require.Len(t, lineage, 2)
	assert.Equal(t, "Base", lineage[0].Name)

	instance := NewVirtualInstance(derived)
	bound := f.Bind(instance)
	this, ok := bound.Closure.Get("this")
	require.True(t, ok)
	assert.Same(t, instance, this)
	assert.Same(t, instance, instance.HostObject())
}

func TestExternalClass(t *testing.T) {
	type counter struct{ N int }
	typ, err := interop.TypeOf(counter{}, interop.WithName("Counter"), interop.Final())
	require.NoError(t, err)
	class := &ExternalClass{HostType: typ}

	assert.True(t, class.IsFinal())
	assert.Equal(t, "<class Counter>", class.Inspect())

	inst, err := class.Construct(nil)
	require.NoError(t, err)
	assert.True(t, typ.Matches(inst.HostObject()))
	assert.Equal(t, "<Counter instance>", inst.Inspect())

	_, err = class.Construct([]any{1.0})
	assert.ErrorIs(t, err, interop.ErrNoMatch)

	_, ok := class.Method(inst.Value, "missing")
	assert.False(t, ok)
}
