package host

import (
	"strings"
	"testing"
)

func runCode(t *testing.T, h *testHost, code string) {
	t.Helper()
	prog, err := h.app.Compile("test.js", code)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	if _, err := h.app.Run(prog); err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
}

func TestBridge_Alert(t *testing.T) {
	h := newTestHost(t)

	runCode(t, h, `alert("hello", 42, [1])`)

	if h.stdout.String() != "hello 42 [1]\n" {
		t.Errorf("unexpected alert output: %q", h.stdout.String())
	}
	if len(h.raw.calls) != 0 {
		t.Errorf("expected alert to leave the terminal alone, got %v", h.raw.calls)
	}
}

func TestBridge_PromptWithoutShell(t *testing.T) {
	h := newTestHost(t)
	h.reader.answers = []string{"Ada"}

	runCode(t, h, `var name = prompt("name"); alert("hi " + name)`)

	if h.stdout.String() != "hi Ada\n" {
		t.Errorf("unexpected output: %q", h.stdout.String())
	}
	if len(h.reader.queries) != 1 || h.reader.queries[0] != "name> " {
		t.Errorf("unexpected queries: %v", h.reader.queries)
	}
	if len(h.raw.calls) != 0 {
		t.Errorf("expected no terminal switching without a shell, got %v", h.raw.calls)
	}
	for _, e := range h.console.events {
		if strings.HasPrefix(e, "prompt:") {
			t.Errorf("expected no prompt redisplay without a shell, events: %v", h.console.events)
		}
	}
}

func TestBridge_Confirm(t *testing.T) {
	tests := []struct {
		name     string
		answer   bool
		expected string
	}{
		{name: "yes", answer: true, expected: "true\n"},
		{name: "no", answer: false, expected: "false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHost(t)
			h.reader.yesNo = []bool{tt.answer}

			runCode(t, h, `alert(confirm("ok?"))`)

			if h.stdout.String() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, h.stdout.String())
			}
			if h.reader.queries[0] != "ok?" {
				t.Errorf("unexpected query: %q", h.reader.queries[0])
			}
		})
	}
}

func TestBridge_ReadFaultPropagates(t *testing.T) {
	h := newTestHost(t)
	h.reader.err = errClosed

	runCode(t, h, `
try {
	prompt("q")
} catch (e) {
	alert("caught: " + e.message)
}
try {
	confirm("q")
} catch (e) {
	alert("caught again: " + e.message)
}`)

	expected := "caught: stream closed\ncaught again: stream closed\n"
	if h.stdout.String() != expected {
		t.Errorf("expected %q, got %q", expected, h.stdout.String())
	}
}

func TestBridge_RefusesOverlappingReads(t *testing.T) {
	h := newTestHost(t)
	h.app.bridge.reading = true

	runCode(t, h, `try { prompt("x") } catch (e) { alert(e.name) }`)

	if h.stdout.String() != "TypeError\n" {
		t.Errorf("expected a TypeError, got %q", h.stdout.String())
	}
	if len(h.reader.queries) != 0 {
		t.Errorf("expected no read to happen, got %v", h.reader.queries)
	}
}

func TestBridge_PromptInsideShell(t *testing.T) {
	h := newTestHost(t, `prompt("Q"); alert("after")`)
	h.reader.answers = []string{"x"}

	if err := h.app.StartShell(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(h.reader.rawDuringRead) != 1 || h.reader.rawDuringRead[0] {
		t.Errorf("expected the read to run in cooked mode, got %v", h.reader.rawDuringRead)
	}
	if strings.Join(h.raw.calls, ",") != "raw,cooked,raw,cooked" {
		t.Errorf("unexpected terminal switching: %v", h.raw.calls)
	}

	events := h.console.events
	question := indexOf(events, func(e string) bool { return e == "question:Q> " }, 0)
	if question < 0 {
		t.Fatalf("expected the question to be asked, events: %v", events)
	}
	if pause := indexOf(events, func(e string) bool { return e == "pause" }, 0); pause < 0 || pause > question {
		t.Errorf("expected the console to be paused before reading, events: %v", events)
	}

	after := indexOf(events, func(e string) bool { return e == "out:after\n" }, question)
	redisplay := indexOf(events, func(e string) bool { return strings.HasPrefix(e, "prompt:") }, question)
	if after < 0 || redisplay < 0 {
		t.Fatalf("expected output and a prompt redisplay after the question, events: %v", events)
	}
	if after > redisplay {
		t.Errorf("expected caller output before the prompt redisplay, events: %v", events)
	}
}

func TestBridge_ConfirmInsideShell(t *testing.T) {
	h := newTestHost(t, `var ok = confirm("sure")`, "ok")
	h.reader.yesNo = []bool{true}

	if err := h.app.StartShell(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := h.console.output()
	if !strings.Contains(out, "true\n") {
		t.Errorf("expected the answer to be bound, got: %q", out)
	}
	if h.app.mode.Suspended() {
		t.Error("expected the terminal to be handed back to the shell")
	}
}
