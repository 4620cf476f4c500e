package interp

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
)

// DebugFlags is a bitmask of debug-mode toggles, set from the command line.
type DebugFlags uint8

const (
	// DebugPrintStmtExprs causes every expression statement's result (at
	// any nesting depth, including inside function bodies) to be printed ("[Debug] <value>") as it is evaluated.
	DebugPrintStmtExprs DebugFlags = 1 << iota
)

// Options configures a new Interpreter: I/O streams, cmdline args/env for
// scripts to observe, a Logger for component lifecycle events, and debug
// flags.
type Options struct {
	// Stdin, Stdout, Stderr are the interpreter's I/O streams. Stdout
	// carries program output (via _print/_printf) and Evaluate's result
	// printing; Stderr carries error diagnostics; Stdout also carries
	// warning diagnostics (see Reporter). They default to os.Stdin,
	// os.Stdout, os.Stderr.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// Args and Env are made available to intrinsics that may wish to
	// inspect the host process; toylang's core does not consume them
	// itself.
	Args []string
	Env  []string

	// Filesystem, if set, is consulted by callers that load script text
	// from somewhere other than the OS filesystem. Media (import resolution
	// at runtime) and the `_file` intrinsic are unaffected by this and
	// always use the OS filesystem.
	Filesystem fs.FS

	// Debug sets the initial debug flags (e.g. the CLI's --verbose).
	Debug DebugFlags

	// Logger receives component-lifecycle events (source loaded, import
	// resolved/skipped, intrinsic registered, execution aborted). It
	// never writes to Stdout/Stderr. Defaults to a discarding logger.
	Logger *zerolog.Logger
}

// Interpreter is the top-level façade: it owns the Environment, the
// Reporter/Notifier chain, a persistent pool of source texts and executed
// top-level statements, and the Media collaborator used to resolve
// `import` targets.
type Interpreter struct {
	env      *Environment
	reporter *Reporter
	notifier Notifier
	observers []Notifier

	Media  *Media
	Debug  DebugFlags
	Logger *zerolog.Logger

	Stdin          io.Reader
	Stdout, Stderr io.Writer
	Args           []string
	Env            []string
	Filesystem     fs.FS

	imported []string

	// sourceTexts and executedStmts hold every Source ever executed and
	// every top-level Stmt slice ever executed, kept reachable for the
	// Interpreter's lifetime. Go's GC already keeps a Token's backing
	// string and an Invocable's captured *StmtFn alive for as long as
	// anything references them, so these pools aren't load-bearing for
	// memory safety here; they exist for introspection.
	sourceTexts   []Source
	executedStmts [][]Stmt
}

// New returns a ready-to-use Interpreter with intrinsics registered in its
// global scope.
func New(opts Options) *Interpreter {
	it := &Interpreter{
		env:        NewEnvironment(),
		Media:      NewMedia(),
		Debug:      opts.Debug,
		Logger:     opts.Logger,
		Stdin:      opts.Stdin,
		Stdout:     opts.Stdout,
		Stderr:     opts.Stderr,
		Args:       opts.Args,
		Env:        opts.Env,
		Filesystem: opts.Filesystem,
	}
	if it.Stdin == nil {
		it.Stdin = os.Stdin
	}
	if it.Stdout == nil {
		it.Stdout = os.Stdout
	}
	if it.Stderr == nil {
		it.Stderr = os.Stderr
	}
	if it.Args == nil {
		it.Args = os.Args
	}
	if it.Logger == nil {
		l := zerolog.New(io.Discard)
		it.Logger = &l
	}
	it.reporter = NewReporter(it.Stdout, it.Stderr)
	it.rebuildNotifier()
	registerIntrinsics(it)
	it.Logger.Debug().Msg("intrinsics registered")
	return it
}

// AddObserver appends a non-terminal Notifier to the diagnostic chain, so
// callers (tests, tooling) can observe every Diagnostic as it is raised.
// Every Diagnostic still reaches the terminal Reporter afterwards.
func (it *Interpreter) AddObserver(n Notifier) {
	it.observers = append(it.observers, n)
	it.rebuildNotifier()
}

func (it *Interpreter) rebuildNotifier() {
	chain := make(ChainNotifier, 0, len(it.observers)+1)
	chain = append(chain, it.observers...)
	chain = append(chain, it.reporter)
	it.notifier = chain
}

// Errored reports whether the current top-level call has latched an error.
func (it *Interpreter) Errored() bool { return it.reporter.Errored() }

// diagnose emits a Diagnostic without unwinding. Used both by the
// Evaluator's internal panicking path (runtimeError, which additionally
// unwinds) and by the public RuntimeError below (which does not).
//
// (defined in evaluator.go)

// RuntimeError emits a RuntimeError diagnostic anchored at tok and latches
// the error flag, without unwinding. This is the operation intrinsic
// callbacks call directly (they then return whatever sentinel Value suits
// their failure case themselves); contrast with the Evaluator's internal
// runtimeError, which panics to unwind to the nearest statement boundary.
func (it *Interpreter) RuntimeError(tok Token, message string) {
	it.diagnose(DiagRuntimeError, tok, message, "")
}

// printf writes directly to Stdout, bypassing the diagnostic chain. Used
// for program output: _print/_printf, Evaluate's result printing, and the
// --verbose StmtExpr trace.
func (it *Interpreter) printf(format string, args ...interface{}) {
	fmt.Fprintf(it.Stdout, format, args...)
}

func (it *Interpreter) pin(src Source) {
	it.sourceTexts = append(it.sourceTexts, src)
}

// Execute parses program as a sequence of statements (after consuming any
// leading `import` prologue) and executes each in turn. It returns true iff
// no error was raised, along with a multierror folding every diagnostic
// raised during this call (nil if none).
func (it *Interpreter) Execute(program string) (bool, error) {
	it.reporter.Reset()
	ok := it.executeProgram(program, "")
	return ok, it.reporter.Err()
}

// executeProgram is Execute's reentrant core: it does not reset the
// Reporter, so a failure raised while resolving a nested `import` latches
// through to the outer call under a single error flag per top-level call.
func (it *Interpreter) executeProgram(program, filename string) bool {
	if program == "" {
		return true
	}
	src := Source{Filename: filename, Text: program}
	it.pin(src)
	it.Logger.Debug().Str("filename", filename).Int("bytes", len(program)).Msg("source loaded")

	parser := NewParser(src, it.notifier)
	imports, stmts := parser.ParseProgram()

	for _, imp := range imports {
		if !it.executeImport(imp.PathToken) {
			it.Logger.Debug().Str("filename", filename).Msg("execution aborted")
			return false
		}
	}

	for _, s := range stmts {
		it.execTopStmt(s)
	}
	it.executedStmts = append(it.executedStmts, stmts)
	return !it.reporter.Errored()
}

// executeImport resolves pathTok's URI via Media and recursively executes
// it in this Interpreter, unless it was already imported (exact string
// match on the URI), in which case it is a no-op success: each import URI
// runs at most once per Interpreter lifetime.
func (it *Interpreter) executeImport(pathTok Token) bool {
	uri := pathTok.Lexeme
	for _, done := range it.imported {
		if done == uri {
			it.Logger.Debug().Str("uri", uri).Msg("import skipped (already imported)")
			return true
		}
	}
	var content string
	if !it.Media.ReadTo(&content, uri) {
		it.diagnose(DiagRuntimeError, pathTok, "File not found", "")
		return false
	}
	it.imported = append(it.imported, uri)
	if !it.executeProgram(content, uri) {
		return false
	}
	it.Logger.Debug().Str("uri", uri).Msg("import resolved")
	return true
}

// execTopStmt executes one top-level statement. A break or return that
// escapes every enclosing loop/function becomes a RuntimeError here;
// ordinary evaluation errors are already caught and latched by execStmt
// (evaluator.go).
func (it *Interpreter) execTopStmt(s Stmt) {
	if it.reporter.Errored() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			switch sig := r.(type) {
			case breakSignal:
				it.diagnose(DiagRuntimeError, sig.token, "Unexpected break outside of any loops", "")
			case returnSignal:
				it.diagnose(DiagRuntimeError, sig.token, "Unexpected return outside of any functions", "")
			default:
				panic(r)
			}
		}
	}()
	it.execStmt(s)
}

// Evaluate parses expression as a stream of expressions and evaluates each,
// printing the unescaped string form of its result to Stdout. It returns
// true iff no error was raised. An empty expression string is a no-op
// success, consistent with Execute("").
func (it *Interpreter) Evaluate(expression string) (bool, error) {
	it.reporter.Reset()
	if expression == "" {
		return true, nil
	}
	src := Source{Text: expression}
	it.pin(src)

	parser := NewParser(src, it.notifier)
	exprs := parser.ParseExpressions()
	for _, e := range exprs {
		it.evalTopExpr(e)
	}
	return !it.reporter.Errored(), it.reporter.Err()
}

func (it *Interpreter) evalTopExpr(e Expr) {
	if it.reporter.Errored() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(evalError); ok {
				return
			}
			panic(r)
		}
	}()
	v := it.evalExpr(e)
	it.printf("%s\n", unescape(v.String()))
}

// ExecuteOrEvaluate decides, via Parser.IsExpression, whether text is a
// single expression (printed via Evaluate) or a statement sequence
// (run via Execute). Used by the REPL.
func (it *Interpreter) ExecuteOrEvaluate(text string) (bool, error) {
	if IsExpression(text) {
		return it.Evaluate(text)
	}
	return it.Execute(text)
}

// ClearState resets the Environment and storage pools and re-registers
// intrinsics, readying the Interpreter for a fresh program as though newly
// constructed (but keeping its I/O streams, Media mounts, and Logger).
func (it *Interpreter) ClearState() {
	it.env = NewEnvironment()
	it.reporter.Reset()
	it.imported = nil
	it.sourceTexts = nil
	it.executedStmts = nil
	registerIntrinsics(it)
	it.Logger.Debug().Msg("state cleared")
}
