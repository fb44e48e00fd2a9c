// Package input reads from the controlling terminal. A Source owns the raw
// input; Reader asks single questions through it while the terminal is in
// normal line-buffered mode.
package input

import (
	"fmt"
	"io"
	"strings"
)

// Reader blocks the calling goroutine until the user finishes a line
type Reader struct {
	src *Source
	out io.Writer
}

// NewReader creates a Reader that takes answers from src and writes queries to out
func NewReader(src *Source, out io.Writer) *Reader {
	return &Reader{
		src: src,
		out: out,
	}
}

// Question writes query and returns the line typed in reply, without its
// line terminator. A final line without a newline is still returned; io.EOF
// is only reported when nothing at all could be read.
func (r *Reader) Question(query string) (string, error) {
	if _, err := io.WriteString(r.out, query); err != nil {
		return "", fmt.Errorf("failed to write query: %w", err)
	}
	return r.src.ReadLine()
}

// KeyInYNStrict asks a yes/no question and keeps asking until the answer is
// one of y, yes, n or no (any case).
func (r *Reader) KeyInYNStrict(query string) (bool, error) {
	for {
		answer, err := r.Question(query + " [y/n]: ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}
