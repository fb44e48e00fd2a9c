package input

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

const ctrlC = 3

// ErrHeld is returned to the line editor while a blocking question owns the
// input.
var ErrHeld = errors.New("input is held by a blocking read")

// Source is the single reader of the process input. The shell's line editor
// reads keys through Read and blocking questions read whole lines through
// ReadLine; both drain the same buffer, so bytes typed ahead for one of them
// are never swallowed by the other.
type Source struct {
	r    io.Reader
	once sync.Once

	mu   sync.Mutex
	cond *sync.Cond
	buf  []byte
	err  error

	held   bool
	editor editorState

	onInterrupt func() bool
}

type editorState int

const (
	editorIdle editorState = iota
	editorReading
	editorLeaving
)

// NewSource creates a Source over r. Reading from r starts with the first read
// and runs on its own goroutine until r reports an error.
func NewSource(r io.Reader) *Source {
	s := &Source{r: r}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// OnInterrupt sets fn to be called for a Ctrl-C byte that arrives while the
// line editor is not waiting for keys, as happens in raw mode while the shell
// evaluates. When fn returns true the byte is dropped.
func (s *Source) OnInterrupt(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInterrupt = fn
}

func (s *Source) start() {
	s.once.Do(func() { go s.pump() })
}

func (s *Source) pump() {
	chunk := make([]byte, 256)
	for {
		n, err := s.r.Read(chunk)
		if n > 0 {
			s.push(chunk[:n])
		}
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
	}
}

func (s *Source) push(p []byte) {
	s.mu.Lock()
	fn := s.onInterrupt
	idle := s.editor != editorReading
	s.mu.Unlock()

	if fn != nil && idle && bytes.IndexByte(p, ctrlC) >= 0 {
		kept := make([]byte, 0, len(p))
		for _, b := range p {
			if b == ctrlC && fn() {
				continue
			}
			kept = append(kept, b)
		}
		p = kept
	}

	s.mu.Lock()
	s.buf = append(s.buf, p...)
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Read hands the line editor the next keys, never more than up to the end of
// the current line or a Ctrl-C. While the input is held it returns ErrHeld.
func (s *Source) Read(p []byte) (int, error) {
	s.start()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editor = editorReading
	for !s.held && len(s.buf) == 0 && s.err == nil {
		s.cond.Wait()
	}
	if s.held {
		s.editor = editorLeaving
		s.cond.Broadcast()
		return 0, ErrHeld
	}
	s.editor = editorIdle
	if len(s.buf) == 0 {
		return 0, s.err
	}

	n := keyChunk(s.buf)
	n = copy(p, s.buf[:n])
	s.buf = s.buf[n:]
	return n, nil
}

// keyChunk returns the length of the leading run of buf that ends with the
// first line terminator or Ctrl-C.
func keyChunk(buf []byte) int {
	for i, b := range buf {
		switch b {
		case '\r':
			if i+1 < len(buf) && buf[i+1] == '\n' {
				return i + 2
			}
			return i + 1
		case '\n', ctrlC:
			return i + 1
		}
	}
	return len(buf)
}

// ReadLine blocks until a full line is available and returns it without its
// terminator. A final line without a newline is still returned; the read
// error is only reported once nothing is left.
func (s *Source) ReadLine() (string, error) {
	s.start()
	s.mu.Lock()
	defer s.mu.Unlock()

	for bytes.IndexByte(s.buf, '\n') < 0 && s.err == nil {
		s.cond.Wait()
	}

	if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
		line := string(s.buf[:i+1])
		s.buf = s.buf[i+1:]
		return trimEOL(line), nil
	}
	if len(s.buf) > 0 {
		line := string(s.buf)
		s.buf = nil
		return trimEOL(line), nil
	}
	return "", s.err
}

// Hold takes the input away from the line editor. If the editor is waiting for
// keys, Hold returns once it has given up its line and parked in WaitRelease.
func (s *Source) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.held = true
	s.cond.Broadcast()
	for s.editor != editorIdle {
		s.cond.Wait()
	}
}

// Release gives the input back to the line editor
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.held = false
	s.cond.Broadcast()
}

// WaitRelease parks the line editor until the input is no longer held
func (s *Source) WaitRelease() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editor = editorIdle
	s.cond.Broadcast()
	for s.held {
		s.cond.Wait()
	}
}
