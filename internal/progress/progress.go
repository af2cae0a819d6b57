// Package progress prints a single, continuously rewritten status line on a terminal.
package progress

import (
	"fmt"
	"io"
	"os"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
)

// A Printer reports how many of a known number of steps are done.
type Printer struct {
	w       io.Writer
	label   string
	percent int
}

// New returns a Printer writing to stderr, or nil when stderr is not a terminal.
// A nil Printer discards all updates.
func New(label string) *Printer {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return NewWriter(colorable.NewColorableStderr(), label)
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer, label string) *Printer {
	return &Printer{w: w, label: label, percent: -1}
}

// Update records that done out of total steps are complete.
// The line is only rewritten when the completed percentage changes.
func (p *Printer) Update(done, total int) {
	if p == nil || total <= 0 {
		return
	}
	percent := done * 100 / total
	if percent == p.percent {
		return
	}
	p.percent = percent
	fmt.Fprintf(p.w, "\r\033[36m%s\033[0m\t%3d%%\t%d / %d", p.label, percent, done, total)
}

// Done terminates the status line.
func (p *Printer) Done() {
	if p == nil {
		return
	}
	fmt.Fprintln(p.w)
}

// Func returns Update as a callback, or nil for a nil Printer.
func (p *Printer) Func() func(done, total int) {
	if p == nil {
		return nil
	}
	return p.Update
}
