package diagnostic

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hsl/internal/token"
)

func TestError(t *testing.T) {
	at := token.Token{Type: token.IDENT, Lexeme: "x", Line: 2, Column: 4}

	tests := []struct {
		name     string
		err      *ScriptError
		expected string
	}{
		{
			name:     "header only without source",
			err:      Resolution(at, "Cannot reassign variable '%s'", "x"),
			expected: "Cannot reassign variable 'x'. While resolving at line 2, column 4.",
		},
		{
			name:     "source line and caret",
			err:      Runtime(at, "Undefined variable 'x'").WithSource("var a;\nvar x = 1;\n"),
			expected: "Undefined variable 'x'. While interpreting at line 2, column 4.\nvar x = 1;\n    ^",
		},
		{
			name:     "trailing period is not doubled",
			err:      Parse(at, "Bad thing.").WithSource("a\r\nbbbbbb\r\n"),
			expected: "Bad thing. While parsing at line 2, column 4.\nbbbbbb\n    ^",
		},
		{
			name:     "line past the end",
			err:      Lexical(9, 0, "Unterminated string").WithSource("one line"),
			expected: "Unterminated string. While lexing at line 9, column 0.\n\n^",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestInteropUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Interop(token.Token{Line: 1}, cause, "Call to 'f' failed: %v", cause)

	assert.Equal(t, HostInteropError, err.Kind)
	assert.Equal(t, INTERPRETING, err.Phase)
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("running: %w", err)
	se, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, err, se)

	_, ok = As(cause)
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "RESOLVING", RESOLVING.String())
	assert.Equal(t, "interpreting", INTERPRETING.Verb())
	assert.Equal(t, "ParseError", ParseError.String())
}
