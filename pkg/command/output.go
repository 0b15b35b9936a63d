package command

import (
	"fmt"
	"io"
)

const (
	replyOK    = "OK"
	replyYes   = "YES"
	replyNo    = "NO"
	replyError = "ERROR"
)

// Printer renders results: replies go to Out, ERROR goes to Err. A writer
// with a Flush method is flushed after every reply, so buffered replies
// keep their order relative to ERROR lines.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

type flusher interface {
	Flush() error
}

// NewPrinter creates a printer writing to out and errOut.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut}
}

// Print writes the reply for r. An energy of 0 means "unassigned" and is
// reported as ERROR.
func (p *Printer) Print(r Result) error {
	if r.Err != nil {
		return p.Error()
	}

	var err error
	switch r.Kind {
	case KindBool:
		reply := replyNo
		if r.Bool {
			reply = replyYes
		}
		_, err = fmt.Fprintln(p.Out, reply)
	case KindEnergy:
		if r.Energy == 0 {
			return p.Error()
		}
		_, err = fmt.Fprintln(p.Out, uint64(r.Energy))
	default:
		_, err = fmt.Fprintln(p.Out, replyOK)
	}
	if err != nil {
		return err
	}
	return flush(p.Out)
}

// Error writes the ERROR reply.
func (p *Printer) Error() error {
	if _, err := fmt.Fprintln(p.Err, replyError); err != nil {
		return err
	}
	return flush(p.Err)
}

func flush(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
