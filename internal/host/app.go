// Package host runs a user script inside one shared goja runtime and hands
// the same runtime to an interactive shell afterwards. Timers run on a
// goja_nodejs event loop; the blocking alert, prompt and confirm globals stall
// the loop until the user has answered.
package host

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/buffer"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/process"
	"github.com/dop251/goja_nodejs/require"

	"github.com/itsmostafa/jsrepl/internal/input"
	"github.com/itsmostafa/jsrepl/internal/tty"
)

// DefaultPrompt is the prompt glyph used when Config.Prompt is empty
const DefaultPrompt = "›"

// shellSource is the source name given to code typed into the shell
const shellSource = "repl"

// RawSwitch moves the controlling terminal in and out of raw mode
type RawSwitch interface {
	EnableRaw() error
	DisableRaw() error
}

// LineReader performs blocking reads from the terminal in line-buffered mode
type LineReader interface {
	// Question writes query and returns the line typed in reply
	Question(query string) (string, error)
	// KeyInYNStrict asks query until the answer is yes or no
	KeyInYNStrict(query string) (bool, error)
}

// Console is the line editor the shell reads from and draws on. ReadLine
// returns tty.ErrInterrupt with the abandoned text when Ctrl-C is pressed.
type Console interface {
	io.Writer
	ReadLine() (string, error)
	SetPrompt(prompt string)
	// Pause drops the partially typed line and stops reading keys
	Pause()
	Resume()
}

// Config holds the host configuration
type Config struct {
	// Stdin and Stdout default to the process streams
	Stdin  io.Reader
	Stdout io.Writer

	// Prompt is the shell prompt glyph (default: DefaultPrompt)
	Prompt string

	// NoColor disables the error style and result highlighting
	NoColor bool

	// Raw switches the terminal mode. Defaults to a tty.RawMode on Stdin when
	// Stdin is a file, and to a no-op otherwise.
	Raw RawSwitch

	// LineReader answers prompt and confirm (default: input.Reader)
	LineReader LineReader

	// NewConsole creates the shell's line editor (default: tty.Console). The
	// default reader and console share one input.Source on Stdin.
	NewConsole func(prompt string) Console

	// Logger receives lifecycle diagnostics (default: discarded)
	Logger *slog.Logger
}

// App is the process-wide evaluation context. It owns the one goja runtime
// that the script and the shell share, the event loop it runs on, and the
// shell handle once the shell has been started. There is no teardown; it
// lives until the process exits.
type App struct {
	cfg      Config
	vm       *goja.Runtime
	loop     *eventloop.EventLoop
	registry *require.Registry
	log      *slog.Logger

	shell    *Shell
	reporter *Reporter
	mode     *ModeController
	bridge   *Bridge

	faults     faultChannel
	beforeExit []func() error

	// mu guards the interrupt bookkeeping, which the signal goroutine shares
	// with the loop
	mu          sync.Mutex
	evaluating  bool
	interrupted bool
	scripting   bool
	cancelled   bool
}

// New creates the shared context and installs the host globals
func New(cfg Config) (*App, error) {
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Raw == nil {
		if f, ok := cfg.Stdin.(*os.File); ok {
			cfg.Raw = tty.NewRawMode(f)
		} else {
			cfg.Raw = noRaw{}
		}
	}
	var src *input.Source
	if cfg.LineReader == nil || cfg.NewConsole == nil {
		src = input.NewSource(cfg.Stdin)
	}
	if cfg.LineReader == nil {
		cfg.LineReader = input.NewReader(src, cfg.Stdout)
	}
	if cfg.NewConsole == nil {
		out := cfg.Stdout
		cfg.NewConsole = func(prompt string) Console {
			return tty.NewConsole(src, out, prompt)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	a := &App{
		cfg: cfg,
		log: cfg.Logger,
	}
	a.reporter = &Reporter{app: a}
	a.mode = &ModeController{raw: cfg.Raw, shell: a.Shell, log: a.log}
	a.bridge = &Bridge{app: a, reader: cfg.LineReader}

	// Faults raised before the shell exists are only displayed
	a.faults.listen(a.reporter.Report)

	if err := a.setupEnvironment(); err != nil {
		return nil, err
	}
	if src != nil {
		src.OnInterrupt(a.Interrupt)
	}
	return a, nil
}

// setupEnvironment creates the event loop and installs require, console,
// process, Buffer, the timer globals and the blocking input globals
func (a *App) setupEnvironment() error {
	a.registry = require.NewRegistry()
	a.registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(printer{app: a}))
	a.loop = eventloop.NewEventLoop(eventloop.WithRegistry(a.registry))

	// The loop owns the runtime; with no jobs queued Run returns at once
	var err error
	a.loop.Run(func(vm *goja.Runtime) {
		a.vm = vm
		process.Enable(vm)
		buffer.Enable(vm)
		if err = a.installTimers(); err != nil {
			return
		}
		if err = a.bridge.install(vm); err != nil {
			err = fmt.Errorf("failed to install input globals: %w", err)
		}
	})
	return err
}

// Runtime returns the shared goja runtime
func (a *App) Runtime() *goja.Runtime {
	return a.vm
}

// Shell returns the shell handle, or nil before the shell was first started
func (a *App) Shell() *Shell {
	return a.shell
}

// Stdout returns the writer output should go to right now. While the shell
// is running that is its console, which translates newlines for raw mode.
func (a *App) Stdout() io.Writer {
	if a.shell != nil && a.shell.Active() {
		return a.shell.console
	}
	return a.cfg.Stdout
}

// StartShell creates the shell handle on first use and runs the shell. It
// returns immediately if the shell is already running.
func (a *App) StartShell() error {
	if a.shell == nil {
		a.shell = newShell(a)
	}
	return a.shell.Start()
}

// Compile compiles src under name. The name shows up in stack traces and is
// the root for relative require calls made by the code.
func (a *App) Compile(name, src string) (*goja.Program, error) {
	return goja.Compile(name, src, false)
}

// Run executes prog in the shared global scope. Go panics escaping native
// functions are returned as *PanicError.
func (a *App) Run(prog *goja.Program) (goja.Value, error) {
	return a.evaluate(func() (goja.Value, error) {
		return a.vm.RunProgram(prog)
	})
}

// evaluate runs fn as one evaluation: an interrupt only reaches the runtime
// while fn runs, and one that arrived is cleared when fn returns so the next
// evaluation starts clean.
func (a *App) evaluate(fn func() (goja.Value, error)) (val goja.Value, err error) {
	a.setEvaluating(true)
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, &PanicError{Value: r}
		}
		a.setEvaluating(false)
	}()
	return fn()
}

func (a *App) setEvaluating(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.evaluating = on
	if !on && a.interrupted {
		a.interrupted = false
		a.vm.ClearInterrupt()
	}
}

// Interrupt stops the evaluation that is currently running. While a script
// runs it also abandons the timers the script left, so the shell can take
// over. It reports whether there was anything to stop and is safe to call from
// another goroutine.
func (a *App) Interrupt() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.evaluating && !a.scripting {
		a.log.Debug("interrupt ignored while idle")
		return false
	}
	if a.evaluating {
		a.interrupted = true
		a.vm.Interrupt(errInterrupted)
	}
	if a.scripting {
		a.cancelled = true
		a.loop.StopNoWait()
	}
	return true
}

// RunScript runs fn on the event loop in the foreground and keeps the loop
// going until no timer or immediate is left, or until an interrupt abandoned
// them.
func (a *App) RunScript(fn func()) {
	a.setScripting(true)
	a.loop.Run(func(*goja.Runtime) {
		fn()
		if a.scriptCancelled() {
			a.loop.StopNoWait()
		}
	})
	if a.setScripting(false) {
		a.log.Debug("pending timers abandoned")
		a.loop.Terminate()
	}
}

// setScripting switches the script phase and returns whether it was cancelled
func (a *App) setScripting(on bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	cancelled := a.cancelled
	a.scripting = on
	a.cancelled = false
	return cancelled
}

func (a *App) scriptCancelled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scripting && a.cancelled
}

// Do runs fn on the event loop, which must be running in the background, and
// waits for it to finish. Once the loop was terminated fn runs directly.
func (a *App) Do(fn func()) {
	done := make(chan struct{})
	queued := a.loop.RunOnLoop(func(*goja.Runtime) {
		defer close(done)
		fn()
	})
	if !queued {
		fn()
		return
	}
	<-done
}

// Defer queues fn for the next turn of the event loop: after the current
// job, including everything it prints, has finished.
func (a *App) Defer(fn func()) {
	a.loop.RunOnLoop(func(*goja.Runtime) { fn() })
}

// OnBeforeExit registers fn to run once the script and its timers have finished
func (a *App) OnBeforeExit(fn func() error) {
	a.beforeExit = append(a.beforeExit, fn)
}

// BeforeExit runs the before-exit hooks in order
func (a *App) BeforeExit() error {
	for _, fn := range a.beforeExit {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// defineModule makes the module globals point at the script being run
func (a *App) defineModule(filename string) error {
	module := a.vm.NewObject()
	exports := a.vm.NewObject()
	for name, value := range map[string]any{
		"id":       ".",
		"filename": filename,
		"exports":  exports,
		"loaded":   false,
	} {
		if err := module.Set(name, value); err != nil {
			return fmt.Errorf("failed to set module.%s: %w", name, err)
		}
	}

	for name, value := range map[string]any{
		"module":     module,
		"exports":    exports,
		"__filename": filename,
		"__dirname":  filepath.Dir(filename),
	} {
		if err := a.vm.Set(name, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}
	return nil
}

func (a *App) emitFault(err error) {
	a.faults.emit(Classify(err))
}

func (a *App) color() bool {
	return !a.cfg.NoColor
}

var errInterrupted = errors.New("Script execution was interrupted by SIGINT")

// faultChannel delivers classified faults to its listeners
type faultChannel struct {
	listeners []func(Fault)
}

func (c *faultChannel) listen(fn func(Fault)) {
	c.listeners = append(c.listeners, fn)
}

func (c *faultChannel) reset() {
	c.listeners = nil
}

func (c *faultChannel) emit(f Fault) {
	for _, fn := range c.listeners {
		fn(f)
	}
}

// printer routes console output to the current output writer
type printer struct {
	app *App
}

func (p printer) Log(s string)   { fmt.Fprintln(p.app.Stdout(), s) }
func (p printer) Warn(s string)  { fmt.Fprintln(p.app.Stdout(), s) }
func (p printer) Error(s string) { fmt.Fprintln(p.app.Stdout(), s) }

type noRaw struct{}

func (noRaw) EnableRaw() error  { return nil }
func (noRaw) DisableRaw() error { return nil }
