package host

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itsmostafa/jsrepl/internal/tty"
)

// ctrlC as a scripted line makes the fake console report Ctrl-C. Text after
// it is returned as the abandoned line.
const ctrlC = "\x03"

// fakeConsole feeds scripted lines to the shell and records what it draws.
// Timers write to it from the event loop while the shell reads, so every
// field is guarded by mu.
type fakeConsole struct {
	mu     sync.Mutex
	lines  []string
	out    strings.Builder
	events []string
	prompt string
	reads  int

	// onRead runs before each scripted line is returned
	onRead func(line string)
}

func (c *fakeConsole) ReadLine() (string, error) {
	c.mu.Lock()
	c.reads++
	c.events = append(c.events, "read")
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return "", io.EOF
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	onRead := c.onRead
	c.mu.Unlock()

	if onRead != nil {
		onRead(line)
	}
	if typed, ok := strings.CutPrefix(line, ctrlC); ok {
		return typed, tty.ErrInterrupt
	}
	return line, nil
}

func (c *fakeConsole) SetPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
	c.events = append(c.events, "prompt:"+prompt)
}

func (c *fakeConsole) Pause() {
	c.record("pause")
}

func (c *fakeConsole) Resume() {
	c.record("resume")
}

func (c *fakeConsole) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, "out:"+string(p))
	return c.out.Write(p)
}

func (c *fakeConsole) record(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// output returns everything written so far
func (c *fakeConsole) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

// fakeRaw records raw mode switches
type fakeRaw struct {
	raw   bool
	calls []string
}

func (r *fakeRaw) EnableRaw() error {
	r.raw = true
	r.calls = append(r.calls, "raw")
	return nil
}

func (r *fakeRaw) DisableRaw() error {
	r.raw = false
	r.calls = append(r.calls, "cooked")
	return nil
}

// fakeReader answers prompt and confirm from scripted replies
type fakeReader struct {
	answers       []string
	yesNo         []bool
	err           error
	queries       []string
	rawDuringRead []bool
	raw           *fakeRaw
	console       *fakeConsole
}

func (r *fakeReader) Question(query string) (string, error) {
	r.record(query)
	if r.err != nil {
		return "", r.err
	}
	if len(r.answers) == 0 {
		return "", io.EOF
	}
	a := r.answers[0]
	r.answers = r.answers[1:]
	return a, nil
}

func (r *fakeReader) KeyInYNStrict(query string) (bool, error) {
	r.record(query)
	if r.err != nil {
		return false, r.err
	}
	if len(r.yesNo) == 0 {
		return false, io.EOF
	}
	a := r.yesNo[0]
	r.yesNo = r.yesNo[1:]
	return a, nil
}

func (r *fakeReader) record(query string) {
	r.queries = append(r.queries, query)
	if r.raw != nil {
		r.rawDuringRead = append(r.rawDuringRead, r.raw.raw)
	}
	if r.console != nil {
		r.console.record("question:" + query)
	}
}

type testHost struct {
	app     *App
	stdout  *strings.Builder
	console *fakeConsole
	raw     *fakeRaw
	reader  *fakeReader
}

func newTestHost(t *testing.T, lines ...string) *testHost {
	t.Helper()

	h := &testHost{
		stdout:  &strings.Builder{},
		console: &fakeConsole{lines: lines},
		raw:     &fakeRaw{},
	}
	h.reader = &fakeReader{raw: h.raw, console: h.console}

	app, err := New(Config{
		Stdin:      strings.NewReader(""),
		Stdout:     h.stdout,
		Raw:        h.raw,
		LineReader: h.reader,
		NewConsole: func(string) Console { return h.console },
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	h.app = app
	return h
}

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func indexOf(events []string, match func(string) bool, from int) int {
	for i := from; i < len(events); i++ {
		if match(events[i]) {
			return i
		}
	}
	return -1
}

var errClosed = errors.New("stream closed")

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
