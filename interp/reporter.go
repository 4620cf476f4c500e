package interp

import (
	"io"

	"github.com/hashicorp/go-multierror"
)

// Reporter is the terminal Notifier of an Interpreter's diagnostic chain: it
// formats and writes each Diagnostic, and latches an error flag on any
// error-typed Diagnostic. Warnings go to stdout; errors go to stderr.
type Reporter struct {
	stdout  io.Writer
	stderr  io.Writer
	errored bool
	errs    *multierror.Error
}

// NewReporter returns a Reporter writing warnings to stdout and errors to
// stderr.
func NewReporter(stdout, stderr io.Writer) *Reporter {
	return &Reporter{stdout: stdout, stderr: stderr}
}

// Notify implements Notifier.
func (r *Reporter) Notify(d Diagnostic) {
	if d.Type.IsError() {
		io.WriteString(r.stderr, d.Format())
		r.errored = true
		r.errs = multierror.Append(r.errs, &diagnosticError{d})
		return
	}
	io.WriteString(r.stdout, d.Format())
}

// Errored reports whether any error-typed Diagnostic has been seen since the
// last Reset.
func (r *Reporter) Errored() bool { return r.errored }

// Err folds every error-typed Diagnostic seen since the last Reset into a
// single error, or nil if none occurred.
func (r *Reporter) Err() error {
	if r.errs == nil {
		return nil
	}
	return r.errs.ErrorOrNil()
}

// Reset clears the error flag and the accumulated error list, readying the
// Reporter for the next top-level execute/evaluate call.
func (r *Reporter) Reset() {
	r.errored = false
	r.errs = nil
}

// diagnosticError adapts a Diagnostic to the error interface so it can be
// folded into a multierror.Error.
type diagnosticError struct {
	d Diagnostic
}

func (e *diagnosticError) Error() string {
	return e.d.Type.String() + ": " + e.d.Message
}
