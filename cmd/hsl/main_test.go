package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeScript(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeScript(t, dir, "a.hsl", "print \"from a\";\n1 + 2;")
	b := writeScript(t, dir, "b.hsl", "native function math.sqrt(x);\nyield sqrt(81) as \"root\";")

	stdout, stderr, err := execute(t, "run", "--results", a, b)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "from a\n")
	assert.Contains(t, stdout, a+": result = 3\n")
	assert.Contains(t, stdout, b+": root = 9\n")
}

func TestRunReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	bad := writeScript(t, dir, "bad.hsl", "var x = 1;\nx = 2;")
	good := writeScript(t, dir, "good.hsl", "print \"fine\";")

	stdout, stderr, err := execute(t, "run", "--no-color", good, bad)
	require.Error(t, err)
	assert.EqualError(t, err, "1 of 2 scripts failed")
	assert.Contains(t, stdout, "fine\n")
	assert.Contains(t, stderr, bad+": ResolutionError RESOLVING\n")
	assert.Contains(t, stderr, "Cannot reassign variable 'x'. While resolving at line 2, column 0.\nx = 2;\n^")
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	slow := writeScript(t, dir, "slow.hsl", `function spin(n) {
  var i = 0;
  while (i < n) { i = i + 1; }
  return i;
}
spin(100000000);`)

	_, stderr, err := execute(t, "run", "--timeout", "10ms", slow)
	require.Error(t, err)
	assert.Contains(t, stderr, "context deadline exceeded")
}

func TestCheckTokensAndAST(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "f.hsl", "// square\nfunction sq(x) { return x * x; }")

	stdout, _, err := execute(t, "check", path)
	require.NoError(t, err)
	assert.Equal(t, path+": ok\n", stdout)

	stdout, _, err = execute(t, "tokens", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "LEXEME")
	assert.Contains(t, stdout, "sq")
	assert.Contains(t, stdout, "1 comments\n")

	stdout, _, err = execute(t, "ast", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "function sq(x)")

	stdout, _, err = execute(t, "ast", "--dump", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "FunctionStatement")

	broken := writeScript(t, dir, "broken.hsl", "var = 1;")
	_, stderr, err := execute(t, "check", broken)
	require.Error(t, err)
	assert.Contains(t, stderr, "Expected identifier after 'var'")
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := writeScript(t, dir, "hsl.toml", "[store]\ndriver = \"sqlite3\"\ndsn = \""+filepath.ToSlash(filepath.Join(dir, "hsl.db"))+"\"\n")
	path := writeScript(t, dir, "answer.hsl", "yield 42 as \"answer\";")

	stdout, stderr, err := execute(t, "--config", cfg, "store", "save", "answer", path)
	require.NoError(t, err, stderr)
	assert.Equal(t, "saved answer\n", stdout)

	stdout, _, err = execute(t, "--config", cfg, "store", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "answer")

	stdout, stderr, err = execute(t, "--config", cfg, "run", "--from-store", "--save-results", "--results", "answer")
	require.NoError(t, err, stderr)
	assert.Equal(t, "answer: answer = 42\n", stdout)

	_, stderr, err = execute(t, "--config", cfg, "run", "--from-store", "missing")
	require.Error(t, err)
	assert.Contains(t, stderr, "script not found")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hsl version 'vdev' unknown unknown\n", stdout)
}
