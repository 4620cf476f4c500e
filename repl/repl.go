// Package repl provides an interactive read-eval-print loop over an
// interp.Interpreter, backed by a readline-capable terminal.
package repl

import (
	"errors"
	"io"

	"github.com/chzyer/readline"

	"github.com/karnkaul/toylang/interp"
)

// Prompt is printed before each line of input, matching the original
// interactive runner's "> " cursor.
const Prompt = "> "

// Run drives a REPL against it until the user types "q"/"quit", sends EOF
// (Ctrl-D), or interrupts (Ctrl-C) on an empty line.
func Run(it *interp.Interpreter) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if line == "q" || line == "quit" {
			return nil
		}
		it.ExecuteOrEvaluate(line)
	}
}
