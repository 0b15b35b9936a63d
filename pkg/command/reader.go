package command

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnexpectedEOF is returned when the input ends in the middle of a line.
var ErrUnexpectedEOF = errors.New("unexpected end of input")

// LineReader yields newline-terminated lines of any length.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReader(r)}
}

// Next returns the next line without its trailing newline. It returns
// io.EOF at a clean end of input and ErrUnexpectedEOF when the last line is
// not newline-terminated.
func (lr *LineReader) Next() (string, error) {
	line, err := lr.r.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", io.EOF
		}
		return "", ErrUnexpectedEOF
	}
	if err != nil {
		return "", errors.Wrap(err, "read line")
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Line is one result of a background read.
type Line struct {
	Text string
	Err  error
}

// Lines reads in the background and delivers each line on the returned
// channel. The last Line sent carries the read error, io.EOF included. The
// channel is closed after that, or as soon as ctx is done; a read already
// blocked in the underlying reader is abandoned rather than interrupted.
func (lr *LineReader) Lines(ctx context.Context) <-chan Line {
	ch := make(chan Line)
	go func() {
		defer close(ch)
		for {
			text, err := lr.Next()
			select {
			case ch <- Line{Text: text, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// Skip reports whether a line carries no command: blank lines and
// comments starting with '#'.
func Skip(line string) bool {
	return line == "" || line[0] == '#'
}
