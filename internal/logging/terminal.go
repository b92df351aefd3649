package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// isTerminalWriter reports whether w is an *os.File attached to a terminal.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
