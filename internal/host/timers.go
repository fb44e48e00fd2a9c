package host

import (
	"fmt"

	"github.com/dop251/goja"
)

// installTimers wraps the event loop's scheduling globals so that every
// callback runs as an evaluation: faults it raises are reported like any
// other, and an interrupt can stop it.
func (a *App) installTimers() error {
	for _, name := range []string{"setTimeout", "setInterval", "setImmediate"} {
		schedule, ok := goja.AssertFunction(a.vm.Get(name))
		if !ok {
			return fmt.Errorf("event loop did not install %s", name)
		}
		if err := a.vm.Set(name, a.scheduler(schedule)); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}
	return nil
}

func (a *App) scheduler(schedule goja.Callable) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := append([]goja.Value(nil), call.Arguments...)
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			args[0] = a.vm.ToValue(a.callback(fn))
		}
		ret, err := schedule(goja.Undefined(), args...)
		if err != nil {
			panic(err)
		}
		return ret
	}
}

func (a *App) callback(fn goja.Callable) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if a.scriptCancelled() {
			return goja.Undefined()
		}
		_, err := a.evaluate(func() (goja.Value, error) {
			return fn(goja.Undefined(), call.Arguments...)
		})
		switch {
		case err == nil:
		case IsInterrupt(err) && a.inScript():
			a.log.Debug("timer interrupted")
		default:
			a.emitFault(err)
		}
		return goja.Undefined()
	}
}

func (a *App) inScript() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scripting
}
