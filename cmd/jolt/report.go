package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/jolt/vm"
	"github.com/mattn/go-isatty"
)

const (
	colorRed   = "\x1b[31m"
	colorDim   = "\x1b[2m"
	colorReset = "\x1b[0m"
)

// isTerminal reports whether w is a terminal, so diagnostics can be colored.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// report prints err, adding where execution stopped for engine errors.
func report(w io.Writer, err error) {
	color := isTerminal(w)
	prefix := "Error:"
	if color {
		prefix = colorRed + prefix + colorReset
	}
	fmt.Fprintf(w, "%s %v\n", prefix, err)

	var ee *vm.ExecError
	if errors.As(err, &ee) {
		where := fmt.Sprintf("  at %s.%s pc %d", ee.Class, ee.Method, ee.PC)
		if ee.Line > 0 {
			where += fmt.Sprintf(" line %d", ee.Line)
		}
		if color {
			where = colorDim + where + colorReset
		}
		fmt.Fprintln(w, where)
	}
}
