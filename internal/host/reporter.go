package host

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/itsmostafa/jsrepl/internal/output"
)

var (
	// wrapperLine is the "repl:<line>" header some traces start with
	wrapperLine = regexp.MustCompile(`(?m)^` + shellSource + `:\d+\r?\n`)

	// stackFrame matches one "    at ..." frame
	stackFrame = regexp.MustCompile(`(?m)^\s+at\s.*\n?`)

	// sourcePrefix is the shell source name in front of compiler positions
	sourcePrefix = regexp.MustCompile(`(?m)^(\w*Error: )` + shellSource + `: `)

	// sourcePosition is a trailing " at repl:<line>:<col>"
	sourcePosition = regexp.MustCompile(` at ` + shellSource + `:\d+(:\d+)?`)
)

// Reporter displays faults from the script and from the shell alike
type Reporter struct {
	app *App
}

// Report displays f in the error style. With a shell handle present it also
// records f as the last fault, drops any half-typed multi-line statement and
// redisplays the prompt.
func (r *Reporter) Report(f Fault) {
	sh := r.app.shell
	if sh != nil {
		sh.lastFault = &f
	}

	fmt.Fprint(r.app.Stdout(), output.Fault(r.Render(f), r.app.color()))

	if sh != nil {
		sh.clearBufferedCommand()
		sh.DisplayPrompt()
	}
}

// Render formats f without styling. The result always ends in a line break.
func (r *Reporter) Render(f Fault) string {
	if f.Kind == FaultOpaque {
		return "Thrown: " + r.formatValue(f) + "\n"
	}

	trace := f.Trace
	if f.Name == "SyntaxError" {
		trace = trimSyntaxTrace(trace)
	}
	if !strings.HasSuffix(trace, "\n") {
		trace += "\n"
	}
	return trace
}

func (r *Reporter) formatValue(f Fault) string {
	if f.Value != nil {
		return output.Inspect(r.app.vm, f.Value)
	}
	return fmt.Sprint(f.Raw)
}

// trimSyntaxTrace drops the shell wrapper and the internal frames of the
// evaluation shim, leaving the part of a syntax error the user wrote.
func trimSyntaxTrace(trace string) string {
	trace = wrapperLine.ReplaceAllString(trace, "")
	trace = stackFrame.ReplaceAllString(trace, "")
	trace = sourcePosition.ReplaceAllString(trace, "")
	return sourcePrefix.ReplaceAllString(trace, "$1")
}
