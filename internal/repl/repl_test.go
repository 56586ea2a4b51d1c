package repl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsl/internal/lexer"
	"hsl/internal/parser"
	"hsl/internal/script"
)

func session(t *testing.T) (*Session, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	rt, err := script.NewRuntime(script.WithOutput(out))
	require.NoError(t, err)
	s, err := NewSession(rt)
	require.NoError(t, err)
	return s, out
}

func TestSessionKeepsGlobals(t *testing.T) {
	s, out := session(t)

	value, ok, err := s.Eval("var greeting = \"hi\";")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)

	_, _, err = s.Eval("function shout(s) { return s + \"!\"; }")
	require.NoError(t, err)

	value, ok, err = s.Eval("shout(greeting);")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hi!", value)

	_, _, err = s.Eval("print greeting;\nyield 7 as \"seven\";")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.String())
	assert.Equal(t, 7.0, s.Results()["seven"])

	assert.Contains(t, s.Globals(), "shout")
}

func TestSessionErrors(t *testing.T) {
	s, _ := session(t)

	_, _, err := s.Eval("var x = 1;")
	require.NoError(t, err)

	_, _, err = s.Eval("x = 2;")
	require.Error(t, err)
	assert.Equal(t, "Cannot reassign variable 'x'. While resolving at line 1, column 0.\nx = 2;\n^", err.Error())

	_, _, err = s.Eval("print nope;")
	require.Error(t, err)
	assert.Equal(t, "Undefined variable 'nope'. While interpreting at line 1, column 6.\nprint nope;\n      ^", err.Error())

	// the session is still usable after a failure
	value, ok, err := s.Eval("x + 1;")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", value)
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		input      string
		incomplete bool
	}{
		{"function f() {", true},
		{"var s = \"open", true},
		{"/* comment", true},
		{"print 1", true},
		{"print 1;", false},
		{"var = 1;", false},
		{"@", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.incomplete, needsMore(tt.input))
		})
	}
}

func TestIncompleteIgnoresOtherErrors(t *testing.T) {
	tokens, _, err := lexer.New("1 = 2;").Tokenize()
	require.NoError(t, err)
	_, err = parser.New(tokens).ParseProgram()
	require.Error(t, err)
	assert.False(t, Incomplete(err))
	assert.False(t, Incomplete(nil))
}

func TestCommands(t *testing.T) {
	s, _ := session(t)
	_, _, err := s.Eval("yield 1 as \"b\";\nyield 2 as \"a\";")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	assert.False(t, command(s, ":results", out))
	assert.Equal(t, "a = 2\nb = 1\n", out.String())

	out.Reset()
	assert.False(t, command(s, ":what", out))
	assert.Contains(t, out.String(), "unknown command")

	assert.True(t, command(s, ":quit", out))
}
