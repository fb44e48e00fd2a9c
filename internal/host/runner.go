package host

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dop251/goja"

	"github.com/itsmostafa/jsrepl/internal/output"
)

// Runner decides between running a script first and going straight to the
// shell
type Runner struct {
	app *App
}

// NewRunner creates a Runner over app
func NewRunner(app *App) *Runner {
	return &Runner{app: app}
}

// Run executes the script at path and then falls through into the shell. The
// shell starts once the script and the timers it set have finished. An empty
// path starts the shell at once. Only failures to locate or read the script
// are returned; faults raised by the script itself are reported and the shell
// still starts.
func (r *Runner) Run(path string) error {
	stop := r.armInterrupt()
	defer stop()

	if path == "" {
		return r.app.StartShell()
	}

	if err := r.runScript(path); err != nil {
		return err
	}

	r.app.OnBeforeExit(r.app.StartShell)
	return r.app.BeforeExit()
}

func (r *Runner) runScript(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve script path: %w", err)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	if err := r.app.defineModule(abs); err != nil {
		return err
	}

	prog, err := r.app.Compile(abs, string(src))
	if err != nil {
		r.app.emitFault(err)
		return nil
	}

	r.app.RunScript(func() {
		val, err := r.app.Run(prog)
		switch {
		case IsInterrupt(err):
			r.app.log.Debug("script interrupted", "path", abs)
		case err != nil:
			r.app.emitFault(err)
		case val != nil && !goja.IsUndefined(val):
			fmt.Fprintln(r.app.Stdout(), output.Inspect(r.app.vm, val))
		}
	})
	return nil
}

// armInterrupt routes SIGINT to App.Interrupt until stop is called. An
// interrupted script unwinds, its pending timers are dropped and control
// moves on to the shell. A signal that arrives during a blocking prompt or
// confirm read takes effect once the read has returned. Signals that arrive
// while nothing is evaluating are ignored.
func (r *Runner) armInterrupt() (stop func()) {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, os.Interrupt)

	go func() {
		for {
			select {
			case <-sigs:
				r.app.log.Debug("interrupt received")
				r.app.Interrupt()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
