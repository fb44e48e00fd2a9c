package host

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/itsmostafa/jsrepl/internal/output"
)

// FaultKind tells a structured error apart from an arbitrary thrown value
type FaultKind int

const (
	// FaultStructured is an error object carrying a name and a trace
	FaultStructured FaultKind = iota + 1
	// FaultOpaque is any other thrown value
	FaultOpaque
)

// Fault is a classified failure raised during evaluation
type Fault struct {
	Kind FaultKind

	// Name and Trace are set for FaultStructured
	Name  string
	Trace string

	// Value holds a thrown JavaScript value; Raw holds a Go panic value
	// when there is no JavaScript value. Only set for FaultOpaque.
	Value goja.Value
	Raw   any
}

// PanicError wraps a Go panic recovered at an evaluation boundary
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// IsInterrupt reports whether err is the result of App.Interrupt
func IsInterrupt(err error) bool {
	var interrupted *goja.InterruptedError
	return errors.As(err, &interrupted)
}

// Classify turns an error returned by compile or run into a Fault
func Classify(err error) Fault {
	var (
		syntaxErr   *goja.CompilerSyntaxError
		exception   *goja.Exception
		interrupted *goja.InterruptedError
		panicErr    *PanicError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return Fault{Kind: FaultStructured, Name: "SyntaxError", Trace: syntaxErr.Error()}
	case errors.As(err, &exception):
		return classifyThrown(exception)
	case errors.As(err, &interrupted):
		return Fault{Kind: FaultStructured, Name: "Error", Trace: fmt.Sprintf("Error: %v", interrupted.Value())}
	case errors.As(err, &panicErr):
		return classifyPanic(panicErr.Value)
	default:
		return Fault{Kind: FaultStructured, Name: "Error", Trace: err.Error()}
	}
}

func classifyThrown(ex *goja.Exception) Fault {
	v := ex.Value()
	if v == nil {
		return Fault{Kind: FaultStructured, Name: "Error", Trace: ex.Error()}
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return Fault{Kind: FaultOpaque, Value: v}
	}
	stack, isErr := output.ErrorStack(obj)
	if !isErr {
		return Fault{Kind: FaultOpaque, Value: v}
	}

	name := "Error"
	if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
		name = n.String()
	}
	return Fault{Kind: FaultStructured, Name: name, Trace: stack}
}

func classifyPanic(v any) Fault {
	if err, ok := v.(error); ok {
		return Fault{Kind: FaultStructured, Name: "Error", Trace: "Error: " + err.Error()}
	}
	return Fault{Kind: FaultOpaque, Raw: v}
}
