package output

import (
	"math/big"

	"github.com/dop251/goja"
)

// Inspect renders a JavaScript value the way the shell prints results.
// Strings are written bare at the top level; objects and arrays go through
// JSON.stringify and fall back to their string conversion.
func Inspect(vm *goja.Runtime, v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return v.String()
	}
	if _, isFn := goja.AssertFunction(obj); isFn {
		return describeFunction(obj)
	}
	if stack, isErr := ErrorStack(obj); isErr {
		return stack
	}
	if s, ok := stringify(vm, obj); ok {
		return s
	}
	return obj.String()
}

// Highlight is Inspect with lipgloss colors applied to primitive values
func Highlight(vm *goja.Runtime, v goja.Value) string {
	text := Inspect(vm, v)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return dimStyle.Render(text)
	}
	if _, ok := v.(*goja.Object); ok {
		return text
	}

	switch v.Export().(type) {
	case string:
		return stringStyle.Render(text)
	case int64, float64, bool, *big.Int:
		return numberStyle.Render(text)
	}
	return text
}

// ErrorStack reports whether obj is an Error object and returns its stack
// trace, or its string form when no stack is attached.
func ErrorStack(obj *goja.Object) (string, bool) {
	if obj.ClassName() != "Error" {
		return "", false
	}
	stack := obj.Get("stack")
	if stack == nil || goja.IsUndefined(stack) || goja.IsNull(stack) {
		return obj.String(), true
	}
	return stack.String(), true
}

func describeFunction(fn *goja.Object) string {
	name := fn.Get("name")
	if name == nil || goja.IsUndefined(name) || name.String() == "" {
		return "[Function (anonymous)]"
	}
	return "[Function: " + name.String() + "]"
}

func stringify(vm *goja.Runtime, obj *goja.Object) (string, bool) {
	if vm == nil {
		return "", false
	}
	json := vm.Get("JSON")
	if json == nil || goja.IsUndefined(json) {
		return "", false
	}
	jsonObj := json.ToObject(vm)
	fn, ok := goja.AssertFunction(jsonObj.Get("stringify"))
	if !ok {
		return "", false
	}

	// Cyclic structures and throwing toJSON methods fall back to String()
	res, err := fn(jsonObj, obj)
	if err != nil || res == nil || goja.IsUndefined(res) {
		return "", false
	}
	return res.String(), true
}
