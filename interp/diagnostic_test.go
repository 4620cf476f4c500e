package interp_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karnkaul/toylang/interp"
)

func TestDiagnosticFormatCaretAlignment(t *testing.T) {
	source := interp.Source{Filename: "test.tl", Text: "var x = nope;\n"}
	scanner := interp.NewScanner(source, nil)
	var tok interp.Token
	for {
		tok = scanner.Next()
		if tok.Lexeme == "nope" {
			break
		}
		if tok.Type == interp.TokEOF {
			t.Fatal("token not found")
		}
	}

	d := interp.Diagnostic{
		Type:     interp.DiagRuntimeError,
		Message:  "Undefined variable",
		Location: tok.Location,
		Marked:   tok.Lexeme,
	}
	out := d.Format()
	assert.Contains(t, out, "Runtime Error: Undefined variable  'nope'")
	assert.Contains(t, out, "var x = nope;")
	assert.Contains(t, out, "test.tl")
}

func TestDiagnosticTypeIsError(t *testing.T) {
	assert.True(t, interp.DiagRuntimeError.IsError())
	assert.True(t, interp.DiagSyntaxError.IsError())
	assert.True(t, interp.DiagInternalError.IsError())
	assert.False(t, interp.DiagWarning.IsError())
}

func TestReporterLatchesOnlyOnErrorTypes(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := interp.NewReporter(&stdout, &stderr)
	r.Notify(interp.Diagnostic{Type: interp.DiagWarning, Message: "heads up"})
	assert.False(t, r.Errored())
	require.NoError(t, r.Err())

	r.Notify(interp.Diagnostic{Type: interp.DiagRuntimeError, Message: "boom"})
	assert.True(t, r.Errored())
	assert.Error(t, r.Err())

	r.Reset()
	assert.False(t, r.Errored())
	assert.NoError(t, r.Err())
}
