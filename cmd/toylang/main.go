package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/karnkaul/toylang/interp"
	"github.com/karnkaul/toylang/repl"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "toylang [path/to/script]",
	Short: "toylang — a small dynamically-typed scripting language",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runToylang,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print lots of debug text")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runToylang(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if !verbose {
		logger = logger.Level(zerolog.Disabled)
	}

	var debug interp.DebugFlags
	if verbose {
		debug |= interp.DebugPrintStmtExprs
		fmt.Println("[Debug] Verbose mode enabled")
	}

	it := interp.New(interp.Options{
		Args:   os.Args,
		Env:    os.Environ(),
		Debug:  debug,
		Logger: &logger,
	})

	mountStdlib(it)

	if len(args) == 0 {
		if err := repl.Run(it); err != nil {
			return err
		}
		return nil
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	ok, _ := it.ExecuteOrEvaluate(string(text))
	if !ok {
		os.Exit(1)
	}
	return nil
}

// mountStdlib walks every parent directory of the running executable
// looking for a stdlib/ (or toylang/stdlib/) directory containing std.tl,
// mounts the executable's own directory unconditionally, and auto-imports
// the first std.tl found.
func mountStdlib(it *interp.Interpreter) {
	exePath, err := os.Executable()
	if err != nil {
		return
	}
	exePath, err = filepath.Abs(exePath)
	if err != nil {
		return
	}
	it.Media.Mount(filepath.Dir(exePath))

	for dir := exePath; ; {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent

		for _, candidate := range []string{filepath.Join(dir, "stdlib"), filepath.Join(dir, "toylang", "stdlib")} {
			if info, err := os.Stat(filepath.Join(candidate, "std.tl")); err == nil && !info.IsDir() {
				it.Media.Mount(candidate)
				it.Execute(`import "std.tl";`)
				return
			}
		}
	}
}
