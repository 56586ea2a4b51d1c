package interop

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type account struct {
	Owner   string
	Balance float64
	secret  string
}

func newAccount(owner string) *account { return &account{Owner: owner} }

func newAccountWithBalance(owner string, balance int) *account {
	return &account{Owner: owner, Balance: float64(balance)}
}

func (a *account) Deposit(amount float64) float64 {
	a.Balance += amount
	return a.Balance
}

func (a *account) Withdraw(amount float64) (float64, error) {
	if amount > a.Balance {
		return 0, errors.New("insufficient funds")
	}
	a.Balance -= amount
	return a.Balance, nil
}

func (a account) Describe() string { return a.Owner + ":" + a.secret }

type sequence []any

func (s sequence) Values() []any { return s }

type wrapped struct{ v any }

func (w wrapped) HostObject() any { return w.v }

func TestLookupPrefersBestScore(t *testing.T) {
	asInt, err := FuncOf("pick", func(n int) string { return "int" })
	require.NoError(t, err)
	asFloat, err := FuncOf("pick", func(n float64) string { return "float" })
	require.NoError(t, err)
	asAny, err := FuncOf("pick", func(v any) string { return "any" })
	require.NoError(t, err)

	tests := []struct {
		name     string
		args     []any
		expected string
	}{
		{"exact float", []any{2.0}, "float"},
		{"string falls back to interface", []any{"x"}, "any"},
		{"nil matches interface", []any{nil}, "any"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Lookup([]Executable{asInt, asAny, asFloat}, tt.args)
			require.NoError(t, err)
			out, err := e.Invoke(nil, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestLookupTiesGoToFirst(t *testing.T) {
	first, _ := FuncOf("f", func(n int) string { return "first" })
	second, _ := FuncOf("f", func(n int64) string { return "second" })

	e, err := Lookup([]Executable{first, second}, []any{1.0})
	require.NoError(t, err)
	out, err := e.Invoke(nil, []any{1.0})
	require.NoError(t, err)
	assert.Equal(t, "first", out)
}

func TestLookupNoMatch(t *testing.T) {
	f, _ := FuncOf("strings.repeat", strings.Repeat)

	_, err := Lookup([]Executable{f}, []any{"a"})
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.ErrorContains(t, err, "strings.repeat(string)")

	_, err = Lookup(nil, nil)
	assert.ErrorIs(t, err, ErrNoSuchMember)
}

func TestNumericConversion(t *testing.T) {
	f, _ := FuncOf("byte", func(b uint8) uint8 { return b })

	tests := []struct {
		name string
		arg  any
		ok   bool
	}{
		{"integral in range", 200.0, true},
		{"fractional", 1.5, false},
		{"negative", -1.0, false},
		{"overflow", 300.0, false},
		{"char", 'A', true},
		{"string", "1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := f.Score([]any{tt.arg})
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestWideIntegerRange(t *testing.T) {
	i64, _ := FuncOf("i64", func(n int64) int64 { return n })
	u64, _ := FuncOf("u64", func(n uint64) uint64 { return n })

	tests := []struct {
		name string
		fn   Executable
		arg  float64
		ok   bool
	}{
		{"int64 lowest", i64, -9223372036854775808.0, true},
		{"int64 past highest", i64, 1e19, false},
		{"int64 past lowest", i64, -1e19, false},
		{"int64 infinity", i64, math.Inf(1), false},
		{"int64 not a number", i64, math.NaN(), false},
		{"uint64 large", u64, 1e19, true},
		{"uint64 past highest", u64, 2e19, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := tt.fn.Score([]any{tt.arg})
			assert.Equal(t, tt.ok, ok)
		})
	}

	v, err := u64.Invoke(nil, []any{1e19})
	require.NoError(t, err)
	assert.Equal(t, uint64(10000000000000000000), v)
}

func TestInvokeConventions(t *testing.T) {
	t.Run("variadic", func(t *testing.T) {
		join, _ := FuncOf("join", func(sep string, parts ...string) string { return strings.Join(parts, sep) })
		out, err := join.Invoke(nil, []any{"-", "a", "b", 'c'})
		require.NoError(t, err)
		assert.Equal(t, "a-b-c", out)
	})

	t.Run("sequence to slice", func(t *testing.T) {
		sum, _ := FuncOf("sum", func(values []float64) float64 {
			total := 0.0
			for _, v := range values {
				total += v
			}
			return total
		})
		out, err := sum.Invoke(nil, []any{sequence{1.0, 2.0, 3.5}})
		require.NoError(t, err)
		assert.Equal(t, 6.5, out)
	})

	t.Run("error result", func(t *testing.T) {
		fail, _ := FuncOf("fail", func() (string, error) { return "", errors.New("boom") })
		_, err := fail.Invoke(nil, nil)
		assert.EqualError(t, err, "boom")
	})

	t.Run("error only", func(t *testing.T) {
		ok, _ := FuncOf("ok", func() error { return nil })
		out, err := ok.Invoke(nil, nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		index, _ := FuncOf("index", func(values []string, i int) string { return values[i] })
		_, err := index.Invoke(nil, []any{sequence{"a"}, 4.0})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index:")
	})

	t.Run("host values are unwrapped", func(t *testing.T) {
		owner, _ := FuncOf("owner", func(a *account) string { return a.Owner })
		out, err := owner.Invoke(nil, []any{wrapped{&account{Owner: "ada"}}})
		require.NoError(t, err)
		assert.Equal(t, "ada", out)
	})

	_, err := FuncOf("bad", 42)
	assert.Error(t, err)
}

func TestTypeOf(t *testing.T) {
	typ, err := TypeOf(account{},
		WithName("Account"),
		WithConstructor(newAccount),
		WithConstructor(newAccountWithBalance))
	require.NoError(t, err)

	assert.Equal(t, "Account", typ.Name())
	assert.Equal(t, "hsl/internal/interop.account", typ.QualifiedName())
	assert.False(t, typ.IsFinal())

	ctor, err := Lookup(typ.Constructors(), []any{"ada", 10.0})
	require.NoError(t, err)
	assert.Equal(t, "Account", ctor.Name())
	obj, err := ctor.Invoke(nil, []any{"ada", 10.0})
	require.NoError(t, err)
	require.True(t, typ.Matches(obj))

	deposit := typ.Methods("deposit")
	require.Len(t, deposit, 1)
	out, err := deposit[0].Invoke(obj, []any{5.0})
	require.NoError(t, err)
	assert.Equal(t, 15.0, out)

	withdraw := typ.Methods("Withdraw")
	require.Len(t, withdraw, 1)
	_, err = withdraw[0].Invoke(obj, []any{100.0})
	assert.EqualError(t, err, "insufficient funds")

	describe := typ.Methods("describe")
	require.Len(t, describe, 1)
	out, err = describe[0].Invoke(obj, nil)
	require.NoError(t, err)
	assert.Equal(t, "ada:", out)

	assert.Nil(t, typ.Methods("missing"))

	owner, ok := typ.Field(obj, "owner")
	require.True(t, ok)
	assert.Equal(t, "ada", owner)

	_, ok = typ.Field(obj, "secret")
	assert.False(t, ok)

	require.NoError(t, typ.SetField(obj, "balance", 42.0))
	assert.Equal(t, 42.0, obj.(*account).Balance)
	assert.Error(t, typ.SetField(obj, "balance", "lots"))
	assert.ErrorIs(t, typ.SetField(obj, "missing", 1.0), ErrNoSuchMember)
}

func TestTypeOfDefaults(t *testing.T) {
	typ, err := TypeOf(&account{}, Final())
	require.NoError(t, err)

	assert.Equal(t, "account", typ.Name())
	assert.True(t, typ.IsFinal())

	ctor, err := Lookup(typ.Constructors(), nil)
	require.NoError(t, err)
	obj, err := ctor.Invoke(nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &account{}, obj)

	_, err = Lookup(typ.Constructors(), []any{"x"})
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = TypeOf(nil)
	assert.Error(t, err)
	_, err = TypeOf(account{}, WithConstructor(func() int { return 0 }))
	assert.Error(t, err)
}

func TestDescribeIsCached(t *testing.T) {
	a := Describe(&account{})
	b := Describe(&account{Owner: "b"})
	assert.Same(t, a, b)
	assert.True(t, a.Matches(account{}))
}

func TestModule(t *testing.T) {
	m, err := NewModule("text", map[string]any{
		"upper": strings.ToUpper,
		"pad": []any{
			func(s string) string { return " " + s },
			func(s string, n int) string { return strings.Repeat(" ", n) + s },
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "text", m.Name())
	assert.True(t, m.Supports("upper"))
	assert.False(t, m.Supports("lower"))
	assert.Equal(t, []string{"pad", "upper"}, Functions(m))

	out, err := m.Call("upper", []any{"abc"})
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)

	out, err = m.Call("pad", []any{"x", 2.0})
	require.NoError(t, err)
	assert.Equal(t, "  x", out)

	_, err = m.Call("lower", []any{"x"})
	assert.ErrorIs(t, err, ErrNoSuchMember)

	_, err = NewModule("bad", map[string]any{"x": 1})
	assert.Error(t, err)
}
