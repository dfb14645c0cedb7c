package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"golang.org/x/term"
)

// consoleLogger writes leveled, colored lines to stderr.
type consoleLogger struct {
	out     io.Writer
	verbose bool
}

func newConsoleLogger(verbose, noColor bool) *consoleLogger {
	if noColor || !term.IsTerminal(int(os.Stderr.Fd())) {
		color.NoColor = true
	}

	return &consoleLogger{out: os.Stderr, verbose: verbose}
}

var _ hac.Logger = (*consoleLogger)(nil)

func (l *consoleLogger) Debug(msg string, fields map[string]interface{}) {
	if l.verbose {
		l.write(color.New(color.FgHiBlack).Sprint("DEBUG"), msg, fields)
	}
}

func (l *consoleLogger) Info(msg string, fields map[string]interface{}) {
	l.write(color.New(color.FgCyan).Sprint("INFO "), msg, fields)
}

func (l *consoleLogger) Warn(msg string, fields map[string]interface{}) {
	l.write(color.New(color.FgYellow).Sprint("WARN "), msg, fields)
}

func (l *consoleLogger) Error(msg string, fields map[string]interface{}) {
	l.write(color.New(color.FgRed, color.Bold).Sprint("ERROR"), msg, fields)
}

func (l *consoleLogger) write(level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&builder, " %s=%v", color.New(color.FgBlue).Sprint(key), fields[key])
	}

	fmt.Fprintf(l.out, "%s %s%s\n", level, msg, builder.String())
}
