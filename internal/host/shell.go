package host

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/dop251/goja"

	"github.com/itsmostafa/jsrepl/internal/output"
	"github.com/itsmostafa/jsrepl/internal/tty"
)

// continuationPrompt is shown while a multi-line statement is pending
const continuationPrompt = "... "

const exitHint = "(To exit, press Ctrl+C again or Ctrl+D or type .exit)"

// Shell lifecycle states
const (
	shellNotStarted int32 = iota
	shellStarting
	shellRunning
)

// Shell is the read-eval-print loop over the shared runtime
type Shell struct {
	app     *App
	console Console
	prompt  string

	state  atomic.Int32
	paused bool
	exit   bool

	// interrupts counts Ctrl-C presses on an empty prompt in a row
	interrupts int

	// pending holds the lines of an incomplete statement
	pending  []string
	brackets bracketTracker

	lastFault *Fault
}

func newShell(a *App) *Shell {
	prompt := output.Prompt(a.cfg.Prompt)
	return &Shell{
		app:     a,
		console: a.cfg.NewConsole(prompt),
		prompt:  prompt,
	}
}

// Start runs the loop until end of input or .exit. Calling Start while the
// loop is starting or running returns nil at once. Each start replaces the
// fault listeners with a single reporter, so a restarted shell never reports
// a fault twice.
//
// The event loop runs in the background while the shell waits for input, so
// timers keep firing between lines. Each line is evaluated as a job on the
// loop.
func (s *Shell) Start() error {
	if !s.state.CompareAndSwap(shellNotStarted, shellStarting) {
		s.app.log.Debug("shell already started")
		return nil
	}
	defer s.state.Store(shellNotStarted)

	a := s.app
	a.faults.reset()
	a.faults.listen(a.reporter.Report)

	if err := a.mode.enter(); err != nil {
		return err
	}
	defer a.mode.leave()

	a.loop.Start()
	defer a.loop.Stop()

	a.Do(func() {
		s.exit = false
		s.interrupts = 0
		s.clearBufferedCommand()
		s.DisplayPrompt()
	})
	s.state.Store(shellRunning)
	a.log.Debug("shell started")

	for !s.exit {
		line, err := s.console.ReadLine()
		switch {
		case errors.Is(err, tty.ErrInterrupt):
			a.Do(func() { s.handleInterrupt(line) })
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.console)
			a.log.Debug("shell stopped")
			return nil
		case err != nil:
			return fmt.Errorf("failed to read shell input: %w", err)
		default:
			a.Do(func() { s.handleLine(line) })
		}
	}

	a.log.Debug("shell stopped")
	return nil
}

// Active reports whether the read loop is running
func (s *Shell) Active() bool {
	return s.state.Load() == shellRunning
}

// LastFault returns the most recently reported fault, or nil
func (s *Shell) LastFault() *Fault {
	return s.lastFault
}

// Buffering reports whether an incomplete statement is pending
func (s *Shell) Buffering() bool {
	return len(s.pending) > 0
}

// DisplayPrompt sets the prompt for the next read: the continuation prompt
// while a statement is pending, the primary prompt otherwise.
func (s *Shell) DisplayPrompt() {
	if s.paused {
		return
	}
	if s.Buffering() {
		s.console.SetPrompt(continuationPrompt)
		return
	}
	s.console.SetPrompt(s.prompt)
}

func (s *Shell) pause() {
	s.paused = true
	s.console.Pause()
}

func (s *Shell) resume() {
	s.paused = false
	s.console.Resume()
}

func (s *Shell) clearBufferedCommand() {
	s.pending = nil
	s.brackets.reset()
}

// handleInterrupt drops the typed line and any pending statement. Ctrl-C on
// an empty prompt prints how to leave; pressing it again ends the shell.
func (s *Shell) handleInterrupt(typed string) {
	if typed != "" || s.Buffering() {
		s.interrupts = 0
		s.clearBufferedCommand()
		s.DisplayPrompt()
		return
	}

	s.interrupts++
	if s.interrupts > 1 {
		s.exit = true
		return
	}
	fmt.Fprintln(s.console, exitHint)
	s.DisplayPrompt()
}

// handleLine runs a dot command or adds line to the pending statement and
// evaluates it once complete.
func (s *Shell) handleLine(line string) {
	s.interrupts = 0
	if cmd, ok := s.commands()[strings.TrimSpace(line)]; ok {
		cmd.run()
		return
	}
	if !s.Buffering() && strings.TrimSpace(line) == "" {
		return
	}

	s.pending = append(s.pending, line)
	s.brackets.feed(line)

	src := strings.Join(s.pending, "\n")
	prog, err := s.compile(src)
	if err != nil {
		if incomplete(err) || s.brackets.open() {
			s.DisplayPrompt()
			return
		}
		s.app.emitFault(err)
		return
	}

	val, err := s.app.Run(prog)
	if err != nil {
		s.app.emitFault(err)
		return
	}

	s.clearBufferedCommand()
	fmt.Fprintln(s.console, s.format(val))
	s.DisplayPrompt()
}

// compile tries input wrapped in braces as an object literal first
func (s *Shell) compile(src string) (*goja.Program, error) {
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		if prog, err := s.app.Compile(shellSource, "("+src+"\n)"); err == nil {
			return prog, nil
		}
	}
	return s.app.Compile(shellSource, src)
}

func (s *Shell) format(v goja.Value) string {
	if s.app.color() {
		return output.Highlight(s.app.vm, v)
	}
	return output.Inspect(s.app.vm, v)
}

// incomplete reports whether a compile error only means more input is needed
func incomplete(err error) bool {
	var syntaxErr *goja.CompilerSyntaxError
	if !errors.As(err, &syntaxErr) {
		return false
	}
	return strings.Contains(syntaxErr.Error(), "Unexpected end of input")
}

type shellCommand struct {
	usage string
	run   func()
}

func (s *Shell) commands() map[string]shellCommand {
	drop := shellCommand{
		usage: "Drop the pending multi-line input",
		run: func() {
			s.clearBufferedCommand()
			s.DisplayPrompt()
		},
	}
	return map[string]shellCommand{
		".break": drop,
		".clear": drop,
		".error": {
			usage: "Show the last reported error again",
			run:   s.showLastFault,
		},
		".exit": {
			usage: "Exit the shell",
			run:   func() { s.exit = true },
		},
		".help": {
			usage: "Print this help message",
			run:   s.showHelp,
		},
	}
}

func (s *Shell) showLastFault() {
	if s.lastFault == nil {
		fmt.Fprintln(s.console, "No error has been reported")
		return
	}
	fmt.Fprint(s.console, output.Fault(s.app.reporter.Render(*s.lastFault), s.app.color()))
}

func (s *Shell) showHelp() {
	commands := []output.Command{}
	for _, name := range []string{".break", ".clear", ".error", ".exit", ".help"} {
		commands = append(commands, output.Command{Name: name, Usage: s.commands()[name].usage})
	}
	output.FormatHelp(s.console, commands)
	fmt.Fprintln(s.console, "Press Ctrl+C to abort the current expression, Ctrl+D to exit the shell")
}
