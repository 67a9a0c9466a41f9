package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs synpane with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTokensCommand(t *testing.T) {
	path := writeFile(t, "a.java", "int x = 1;")

	out, err := execute(t, "tokens", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "0\t3\ttype\t\"int\"", lines[0])

	out, err = execute(t, "tokens", "--from", "4", "--to", "5", path)
	require.NoError(t, err)
	assert.Equal(t, "4\t5\tidentifier\t\"x\"\n", out)
}

func TestAtCommand(t *testing.T) {
	path := writeFile(t, "a.java", "f(a(b));")

	out, err := execute(t, "at", path, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "position\t1:2")
	assert.Contains(t, out, "pair\t6\t7")

	_, err = execute(t, "at", path, "x")
	assert.Error(t, err)
}

func TestPairsCommand(t *testing.T) {
	path := writeFile(t, "a.java", "f(a[1], (b)")

	out, err := execute(t, "pairs", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1\t(\tunmatched")
	assert.Contains(t, out, "3\t5\t[]")
	assert.Contains(t, out, "8\t10\t()")
}

func TestFindCommand(t *testing.T) {
	path := writeFile(t, "a.java", "int a;\nint b;\n")

	out, err := execute(t, "find", path, `int (\w)`, "--all")
	require.NoError(t, err)
	assert.Equal(t, "1:1\t0\t5\t\"int a\"\n2:1\t7\t12\t\"int b\"\n", out)

	out, err = execute(t, "find", "-F", path, "b;")
	require.NoError(t, err)
	assert.Contains(t, out, "2:5")

	_, err = execute(t, "find", path, "zzz")
	assert.Error(t, err)
}

func TestReplaceCommand(t *testing.T) {
	path := writeFile(t, "a.java", "int a;\nint b;\n")

	out, err := execute(t, "replace", path, `int (\w)`, "long $1")
	require.NoError(t, err)
	assert.Equal(t, "long a;\nlong b;\n", out)

	out, err = execute(t, "replace", "--diff", path, `b`, "c")
	require.NoError(t, err)
	assert.Contains(t, out, "@@")
	assert.Contains(t, out, "-b")
	assert.Contains(t, out, "+c")

	_, err = execute(t, "replace", "--write", path, `a;`, "z;")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "int z;\nint b;\n", string(data))
}

func TestLangsCommand(t *testing.T) {
	out, err := execute(t, "langs")
	require.NoError(t, err)
	assert.Contains(t, out, "java\t.java")
	assert.Contains(t, out, "python\t")
}

func TestLanguageDetection(t *testing.T) {
	path := writeFile(t, "notes.unknownext", "x")

	_, err := execute(t, "tokens", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lang")

	out, err := execute(t, "--lang", "java", "tokens", path)
	require.NoError(t, err)
	assert.Contains(t, out, "identifier")
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "langs")
	assert.Error(t, err)
}
