package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// New returns a stdlib-backed logger with component prefix, used where a
// plain line-oriented log is wanted (e.g. echoing subprocess output).
func New(component string) *log.Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return log.New(os.Stdout, prefix, log.LstdFlags)
}

type lineWriter struct {
	l *log.Logger
}

func (w lineWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.l.Print(line)
	}
	return len(p), nil
}

// NewWriter returns an io.Writer that prefixes each written line with the
// component name.
func NewWriter(component string) io.Writer {
	return lineWriter{l: New(component)}
}
