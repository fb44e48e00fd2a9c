package host

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/itsmostafa/jsrepl/internal/output"
)

// Bridge installs the synchronous alert, prompt and confirm globals. prompt
// and confirm stall the whole process until the user has answered.
type Bridge struct {
	app    *App
	reader LineReader

	// reading is set while a blocking read is outstanding
	reading bool
}

func (b *Bridge) install(vm *goja.Runtime) error {
	globals := []struct {
		name string
		fn   func(goja.FunctionCall) goja.Value
	}{
		{"alert", b.alert},
		{"prompt", b.prompt},
		{"confirm", b.confirm},
	}
	for _, g := range globals {
		if err := vm.Set(g.name, g.fn); err != nil {
			return fmt.Errorf("failed to set %s: %w", g.name, err)
		}
	}
	return nil
}

// alert(...args) prints its arguments; it never touches the terminal mode
func (b *Bridge) alert(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = output.Inspect(b.app.vm, arg)
	}
	fmt.Fprintln(b.app.Stdout(), strings.Join(parts, " "))
	return goja.Undefined()
}

// prompt(question) returns one line of echoed input
func (b *Bridge) prompt(call goja.FunctionCall) goja.Value {
	question := questionText(call.Argument(0))

	var answer string
	err := b.blockingRead(func() (err error) {
		answer, err = b.reader.Question(question + "> ")
		return err
	})
	if err != nil {
		panic(b.app.vm.NewGoError(err))
	}
	return b.app.vm.ToValue(answer)
}

// confirm(question) returns true for yes and false for no
func (b *Bridge) confirm(call goja.FunctionCall) goja.Value {
	question := questionText(call.Argument(0))

	var answer bool
	err := b.blockingRead(func() (err error) {
		answer, err = b.reader.KeyInYNStrict(question)
		return err
	})
	if err != nil {
		panic(b.app.vm.NewGoError(err))
	}
	return b.app.vm.ToValue(answer)
}

// blockingRead takes the terminal away from the shell for the duration of
// read, gives it back and queues a prompt redisplay for the next turn of the
// event loop.
func (b *Bridge) blockingRead(read func() error) error {
	if b.reading {
		panic(b.app.vm.NewTypeError("a blocking read is already pending"))
	}
	b.reading = true
	defer func() { b.reading = false }()

	b.app.mode.Suspend()
	err := func() error {
		defer b.app.mode.Resume()
		return read()
	}()

	if sh := b.app.shell; sh != nil {
		b.app.Defer(sh.DisplayPrompt)
	}
	return err
}

func questionText(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}
