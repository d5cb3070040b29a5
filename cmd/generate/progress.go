package generate

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/moby/term"
	"golang.org/x/time/rate"

	"github.com/tphakala/filetools/internal/units"
)

// Progress lines are coalesced: a terminal redraws at most every 200ms, a log
// file or pipe gets a line every 5s. 100% is always printed.
const (
	terminalRefresh = 200 * time.Millisecond
	pipeRefresh     = 5 * time.Second
)

// progressPrinter renders allocator progress for people
type progressPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	tty     bool
	limiter *rate.Limiter
	total   int64
	last    int
	open    bool // a \r line is on screen
}

func newProgressPrinter(out io.Writer, total int64) *progressPrinter {
	_, tty := term.GetFdInfo(out)
	every := pipeRefresh
	if tty {
		every = terminalRefresh
	}
	return &progressPrinter{
		out:     out,
		tty:     tty,
		limiter: rate.NewLimiter(rate.Every(every), 1),
		total:   total,
		last:    -1,
	}
}

// Update is an allocator.ProgressFunc
func (p *progressPrinter) Update(pct int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pct == p.last || (pct < 100 && !p.limiter.Allow()) {
		return
	}
	p.last = pct

	total := uint64(p.total) //nolint:gosec // total is positive
	written := uint64(float64(total) * float64(pct) / 100)
	line := fmt.Sprintf("%3d%%  %s / %s", pct, units.HumanSize(written), units.HumanSize(total))

	if !p.tty {
		_, _ = fmt.Fprintln(p.out, line)
		return
	}
	_, _ = fmt.Fprintf(p.out, "\r%-40s", line)
	p.open = true
	if pct == 100 {
		p.finishLine()
	}
}

// Note prints a line without corrupting an in-place progress line
func (p *progressPrinter) Note(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.finishLine()
	_, _ = fmt.Fprintln(p.out, line)
}

// Done terminates an open progress line
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLine()
}

func (p *progressPrinter) finishLine() {
	if p.open {
		_, _ = fmt.Fprintln(p.out)
		p.open = false
	}
}
