package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// progressPrinter shows audit progress. On a terminal it redraws a single
// status line; elsewhere it prints one line per milestone.
type progressPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	percent float64
	started bool
	width   int
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tty: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Update matches audit.Config.OnProgress. Plain output only prints when the
// percent advances; messages at the same milestone just redraw the TTY line.
func (p *progressPrinter) Update(percent float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	advanced := !p.started || percent > p.percent
	p.started = true
	if percent > p.percent {
		p.percent = percent
	}
	line := fmt.Sprintf("[%3.0f%%] %s", p.percent, message)
	if !p.tty {
		if advanced {
			fmt.Fprintln(p.w, line)
		}
		return
	}
	pad := ""
	if n := p.width - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	p.width = len(line)
	fmt.Fprint(p.w, "\r"+line+pad)
}

// Done ends the in-place line.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tty && p.width > 0 {
		fmt.Fprintln(p.w)
		p.width = 0
	}
}
