package interp

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// processStart anchors the monotonic clock _now reads against.
var processStart = time.Now()

// intrinsic pairs a reserved `_`-prefixed name with an Invocable wrapping a
// host callback; registerIntrinsics binds the pair in the global scope. The
// parser alone enforces the naming rule for var
// declarations; intrinsics bypass it by registering directly.
func intrinsic(name string, cb Callback) (string, Value) {
	return name, InvocableVal(&Invocable{DefToken: Token{Lexeme: name}, Callback: cb})
}

// registerIntrinsics binds the fixed set of intrinsic callbacks in env's
// global scope. Called once at Interpreter construction and again by
// ClearState.
func registerIntrinsics(it *Interpreter) {
	for _, pair := range []struct {
		name string
		cb   Callback
	}{
		{"_print", intrinsicPrint},
		{"_printf", intrinsicPrintf},
		{"_clone", intrinsicClone},
		{"_str", intrinsicStr},
		{"_now", intrinsicNow},
		{"_file", intrinsicFile},
	} {
		name, v := intrinsic(pair.name, pair.cb)
		it.env.Define(name, v)
	}
}

func checkArgCount(it *Interpreter, ctx CallContext, name string, count int) bool {
	if len(ctx.Args) != count {
		it.RuntimeError(ctx.CalleeToken, name+" requires "+strconv.Itoa(count)+" argument(s)")
		return false
	}
	return true
}

// intrinsicPrint joins its arguments' string forms with a single space,
// appends a newline, and writes the unescaped result to stdout. It returns
// the number of arguments passed.
func intrinsicPrint(it *Interpreter, ctx CallContext) Value {
	parts := make([]string, len(ctx.Args))
	for i, a := range ctx.Args {
		parts[i] = a.String()
	}
	it.printf("%s\n", unescape(strings.Join(parts, " ")))
	return NumberVal(float64(len(ctx.Args)))
}

// intrinsicPrintf scans its first (string) argument for `{`...`}`
// placeholders, substituting each with the next remaining argument's string
// form; a placeholder with no remaining argument prints literally as `{}`.
// An unterminated `{` is a runtime error. Returns the number of
// placeholders filled.
func intrinsicPrintf(it *Interpreter, ctx CallContext) Value {
	if len(ctx.Args) == 0 {
		return NumberVal(0)
	}
	if ctx.Args[0].Kind != KindString {
		it.RuntimeError(ctx.CalleeToken, "printf: Invalid fmt")
		return NumberVal(-1)
	}
	fmtStr := ctx.Args[0].Str
	args := ctx.Args[1:]

	var b strings.Builder
	filled := 0
	for len(fmtStr) > 0 {
		lbrace := strings.IndexByte(fmtStr, '{')
		if lbrace < 0 {
			b.WriteString(fmtStr)
			break
		}
		rbrace := strings.IndexByte(fmtStr[lbrace:], '}')
		if rbrace < 0 {
			it.RuntimeError(ctx.CalleeToken, "printf: Unterminated '{'")
			return NumberVal(-1)
		}
		rbrace += lbrace
		b.WriteString(fmtStr[:lbrace])
		if len(args) > 0 {
			b.WriteString(args[0].String())
			args = args[1:]
			filled++
		} else {
			b.WriteString("{}")
		}
		fmtStr = fmtStr[rbrace+1:]
	}
	it.printf("%s", unescape(b.String()))
	return NumberVal(float64(filled))
}

// intrinsicClone deep-copies a struct instance's Fields into a fresh,
// unaliased mapping; cloning any other kind of Value is a plain copy, since
// only struct instances carry shared backing storage.
func intrinsicClone(it *Interpreter, ctx CallContext) Value {
	if !checkArgCount(it, ctx, "_clone", 1) {
		return Null()
	}
	v := ctx.Args[0]
	if v.Kind != KindStructInstance {
		return v
	}
	return StructInstanceVal(&StructInstance{
		Def:    v.StructInstance.Def,
		Fields: v.StructInstance.Fields.Clone(),
	})
}

// intrinsicStr returns the fixed string representation of its argument.
func intrinsicStr(it *Interpreter, ctx CallContext) Value {
	if !checkArgCount(it, ctx, "_str", 1) {
		return Null()
	}
	return StringVal(ctx.Args[0].String())
}

// intrinsicNow returns a monotonic clock reading in fractional seconds
// since the interpreter process started.
func intrinsicNow(it *Interpreter, ctx CallContext) Value {
	if !checkArgCount(it, ctx, "_now", 0) {
		return Null()
	}
	return NumberVal(time.Since(processStart).Seconds())
}

// intrinsicFile dispatches on a first string argument: "read" (path) returns
// file contents or "" if unreadable; "write" (path, content) writes content
// to path and returns a bool; "remove" (path) deletes path and returns a
// bool.
func intrinsicFile(it *Interpreter, ctx CallContext) Value {
	if len(ctx.Args) < 2 {
		it.RuntimeError(ctx.CalleeToken, "_file: Requires at least two arguments")
		return Null()
	}
	op, okOp := ctx.Args[0], ctx.Args[0].Kind == KindString
	path, okPath := ctx.Args[1], ctx.Args[1].Kind == KindString
	if !okOp || !okPath {
		it.RuntimeError(ctx.CalleeToken, "_file: Requires (string, string) arguments")
		return Null()
	}
	switch op.Str {
	case "read":
		data, err := os.ReadFile(path.Str)
		if err != nil {
			return StringVal("")
		}
		return StringVal(string(data))
	case "write":
		if len(ctx.Args) < 3 || ctx.Args[2].Kind != KindString {
			it.RuntimeError(ctx.CalleeToken, "_file.write: Requires (string, string, string) arguments")
			return Null()
		}
		err := os.WriteFile(path.Str, []byte(ctx.Args[2].Str), 0o644)
		return BoolVal(err == nil)
	case "remove":
		err := os.Remove(path.Str)
		return BoolVal(err == nil)
	default:
		it.RuntimeError(ctx.CalleeToken, "_file: Invalid operation")
		return Null()
	}
}
