package tty

import (
	"errors"
	"io"
	"sync"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/itsmostafa/jsrepl/internal/input"
)

// ErrInterrupt is returned by ReadLine when Ctrl-C was pressed
var ErrInterrupt = errors.New("^C")

// discardKey never comes from a keyboard; the key filter sends it to make the
// editor drop its line.
const discardKey = '\uE000'

// eraseLine moves up to the line the editor just left and clears it
const eraseLine = "\u001b[1A\r\u001b[K"

// Console is the shell's line editor. It must only be read while the
// terminal is in raw mode.
type Console struct {
	t    *term.Terminal
	keys *keyFilter
	src  *input.Source
	out  io.Writer

	mu        sync.Mutex
	abandoned string
}

// NewConsole creates a Console reading keys from src and drawing on out
func NewConsole(src *input.Source, out io.Writer, prompt string) *Console {
	c := &Console{
		keys: &keyFilter{src: src},
		src:  src,
		out:  out,
	}
	rw := struct {
		io.Reader
		io.Writer
	}{c.keys, out}
	c.t = term.NewTerminal(rw, prompt)
	c.t.AutoCompleteCallback = c.onKey
	return c
}

func (c *Console) onKey(line string, pos int, key rune) (string, int, bool) {
	if key != discardKey {
		return "", 0, false
	}
	c.mu.Lock()
	c.abandoned = line
	c.mu.Unlock()
	return "", 0, true
}

// ReadLine blocks until a full line was typed. Ctrl-D on an empty line
// returns io.EOF. Ctrl-C drops the typed text and returns it together with
// ErrInterrupt. While the console is paused no keys are read.
func (c *Console) ReadLine() (string, error) {
	for {
		c.src.WaitRelease()
		line, err := c.t.ReadLine()

		switch c.keys.take() {
		case signalInterrupt:
			return c.takeAbandoned(), ErrInterrupt
		case signalHeld:
			_, _ = io.WriteString(c.out, eraseLine)
			continue
		}
		return line, err
	}
}

func (c *Console) takeAbandoned() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := c.abandoned
	c.abandoned = ""
	return line
}

// SetPrompt changes the prompt drawn by the next ReadLine
func (c *Console) SetPrompt(prompt string) {
	c.t.SetPrompt(prompt)
}

// Pause drops the partially typed line, erases it from the screen and stops
// reading keys until Resume.
func (c *Console) Pause() {
	c.src.Hold()
}

// Resume lets the editor read keys again
func (c *Console) Resume() {
	c.src.Release()
}

// Write draws p above the prompt, translating newlines for raw mode
func (c *Console) Write(p []byte) (int, error) {
	return c.t.Write(p)
}

const ctrlC = 3

type signal int

const (
	signalNone signal = iota
	signalInterrupt
	signalHeld
)

// keyFilter sits between the input source and the terminal. It turns Ctrl-C
// and a held input into an abandoned line, and ends an unterminated last line
// at end of input.
type keyFilter struct {
	src *input.Source

	mu      sync.Mutex
	queue   []byte
	sig     signal
	midLine bool
}

func (k *keyFilter) Read(p []byte) (int, error) {
	k.mu.Lock()
	pending := len(k.queue) > 0
	k.mu.Unlock()

	if !pending {
		n, err := k.src.Read(p)
		switch {
		case errors.Is(err, input.ErrHeld):
			k.abandon(signalHeld)
		case errors.Is(err, io.EOF) && k.midLine:
			k.midLine = false
			return copy(p, "\r"), nil
		case err != nil || n == 0:
			return n, err
		case p[n-1] == ctrlC:
			k.abandon(signalInterrupt)
			if n > 1 {
				return n - 1, nil
			}
		default:
			last := p[n-1]
			k.midLine = last != '\r' && last != '\n'
			return n, nil
		}
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	n := copy(p, k.queue)
	k.queue = k.queue[n:]
	return n, nil
}

// abandon queues the keys that clear the line and end it
func (k *keyFilter) abandon(sig signal) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sig = sig
	k.midLine = false
	k.queue = utf8.AppendRune(k.queue[:0], discardKey)
	k.queue = append(k.queue, '\r')
}

func (k *keyFilter) take() signal {
	k.mu.Lock()
	defer k.mu.Unlock()
	sig := k.sig
	k.sig = signalNone
	return sig
}
