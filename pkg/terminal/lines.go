// package terminal reads user input line by line for interactive commands.
package terminal

import (
	"bufio"
	"context"
	"io"
	"strings"
)

type line struct {
	text string
	err  error
}

// Lines owns the only goroutine reading its input. Every consumer of the same
// input shares one Lines, so a read abandoned on cancel leaves the pending
// line to the next ReadLine.
type Lines struct {
	ch <-chan line
}

// NewLines starts reading r. The reading goroutine lives until r ends.
func NewLines(r io.Reader) *Lines {
	ch := make(chan line)

	go func() {
		defer close(ch)

		br := bufio.NewReader(r)
		for {
			text, err := br.ReadString('\n')
			if text != "" || err != nil {
				ch <- line{text: text, err: err}
			}
			if err != nil {
				return
			}
		}
	}()

	return &Lines{ch: ch}
}

// ReadLine returns the next line without its line ending. At the end of the
// input it returns io.EOF, possibly alongside a last unterminated line.
func (l *Lines) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case ln, ok := <-l.ch:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimRight(ln.text, "\r\n"), ln.err
	}
}
