package interp_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnkaul/toylang/interp"
)

func newInterp(t *testing.T) (*interp.Interpreter, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	it := interp.New(interp.Options{Stdout: &stdout, Stderr: &stderr})
	return it, &stdout, &stderr
}

func TestExecuteEndToEnd(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{"arithmetic precedence", `var a = 1 + 2 * 3; _print(a);`, "7\n"},
		{"string concatenation", `var s = "foo" + "bar"; _print(s);`, "foobar\n"},
		{"recursive fibonacci", `fn f(n) { if (n < 2) { return n; } return f(n-1) + f(n-2); } _print(f(10));`, "55\n"},
		{"struct fields", `struct P { var x; var y; } var p = P(); p.x = 3; p.y = 4; _print(p.x + p.y);`, "7\n"},
		{"for loop", `var i = 0; for (; i < 3; i = i + 1) { _print(i); }`, "0\n1\n2\n"},
		{"break", `var i = 0; while (true) { if (i == 2) { break; } i = i + 1; } _print(i);`, "2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it, stdout, stderr := newInterp(t)
			ok, err := it.Execute(tc.source)
			require.True(t, ok, "stderr: %s", stderr.String())
			require.NoError(t, err)
			assert.Equal(t, tc.want, stdout.String())
		})
	}
}

func TestExecuteUndefinedVariableSetsError(t *testing.T) {
	it, _, stderr := newInterp(t)
	ok, err := it.Execute(`_print(nope);`)
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "Undefined variable")
}

func TestExecuteStopsAtFirstError(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, _ := it.Execute(`_print(1); _print(nope); _print(2);`)
	assert.False(t, ok)
	assert.Equal(t, "1\n", stdout.String())
}

func TestArgCountMismatchIsRuntimeError(t *testing.T) {
	it, _, stderr := newInterp(t)
	ok, err := it.Execute(`fn add(a, b) { return a + b; } add(1);`)
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "Mismatched argument count")
}

func TestUnterminatedStringIsSingleSyntaxError(t *testing.T) {
	it, _, stderr := newInterp(t)
	_, _ = it.Execute(`var s = "never closed;`)
	assert.Equal(t, 1, bytes.Count(stderr.Bytes(), []byte("Unterminated string")))
}

func TestReservedIdentifierVarDeclIsDiscarded(t *testing.T) {
	it, _, stderr := newInterp(t)
	ok, _ := it.Execute(`var _x = 1;`)
	assert.False(t, ok)
	assert.Contains(t, stderr.String(), "reserved for intrinsics")
}

func TestShortCircuitOr(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, err := it.Execute(`
fn sideEffect() { _print("evaluated"); return true; }
var r = true or sideEffect();
_print(r);
`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout.String())
}

func TestShortCircuitAnd(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, err := it.Execute(`
fn sideEffect() { _print("evaluated"); return true; }
var r = false and sideEffect();
_print(r);
`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout.String())
}

func TestStructInstancesAreIndependent(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, err := it.Execute(`
struct P { var x; }
var a = P();
var b = P();
a.x = 1;
b.x = 2;
_print(a.x, b.x, a == b);
`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "1 2 false\n", stdout.String())
}

func TestCloneDeepCopiesStructFields(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, err := it.Execute(`
struct P { var x; }
var a = P();
a.x = 1;
var b = _clone(a);
b.x = 2;
_print(a.x, b.x);
`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "1 2\n", stdout.String())
}

func TestNestedFunctionDeclarationIsRejected(t *testing.T) {
	it, _, stderr := newInterp(t)
	ok, _ := it.Execute(`
fn outer() {
	var local = 1;
	fn inner() { return local; }
}
`)
	assert.False(t, ok)
	assert.Contains(t, stderr.String(), "at global scope")
}

func TestEvaluateExpressionStream(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, err := it.Evaluate(`1 + 1; "hi";`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "2\nhi\n", stdout.String())
}

func TestExecuteOrEvaluateDispatch(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, err := it.ExecuteOrEvaluate(`1 + 2`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout.String())

	stdout.Reset()
	ok, err = it.ExecuteOrEvaluate(`var a = 5; _print(a);`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "5\n", stdout.String())
}

func TestImportIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.tl", `_print("loaded");`)

	it, stdout, stderr := newInterp(t)
	it.Media.Mount(dir)
	ok, err := it.Execute(`
import "lib.tl";
import "lib.tl";
`)
	require.True(t, ok, "stderr: %s", stderr.String())
	require.NoError(t, err)
	assert.Equal(t, "loaded\n", stdout.String())
}

func TestImportMissingFileIsRuntimeError(t *testing.T) {
	it, _, stderr := newInterp(t)
	ok, err := it.Execute(`import "does_not_exist.tl";`)
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "File not found")
}

func TestClearStateResetsEnvironmentAndErrorFlag(t *testing.T) {
	it, stdout, _ := newInterp(t)
	ok, _ := it.Execute(`var a = 1; _print(nope);`)
	require.False(t, ok)

	it.ClearState()
	stdout.Reset()
	ok, err := it.Execute(`_print("fresh");`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", stdout.String())
}

func TestVerboseDebugPrintsStmtExprResults(t *testing.T) {
	var stdout, stderr bytes.Buffer
	it := interp.New(interp.Options{Stdout: &stdout, Stderr: &stderr, Debug: interp.DebugPrintStmtExprs})
	ok, err := it.Execute(`1 + 1;`)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "[Debug] 2\n", stdout.String())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(dir+"/"+name, []byte(content), 0o644))
}
