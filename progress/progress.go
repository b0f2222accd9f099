package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"
)

const (
	redrawInterval = 100 * time.Millisecond
	barWidth       = 40
)

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

// Reporter receives byte counts while a transfer runs.
type Reporter interface {
	Add(n int64)
	Finish()
}

type nop struct{}

func (nop) Add(int64) {}
func (nop) Finish()   {}

// Nop discards all progress.
var Nop Reporter = nop{}

// New returns a bar when total is known and a spinner otherwise.
func New(w io.Writer, total int64, label string) Reporter {
	base := &renderer{
		w:        w,
		label:    labelStyle.Render(label),
		throttle: &rate.Sometimes{Interval: redrawInterval},
	}
	if total > 0 {
		return &bar{
			renderer: base,
			total:    total,
			model:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		}
	}
	return &spin{renderer: base, frames: spinner.Dot.Frames}
}

type renderer struct {
	mu       sync.Mutex
	w        io.Writer
	label    string
	current  int64
	throttle *rate.Sometimes
	done     bool
}

type bar struct {
	*renderer
	total int64
	model progress.Model
}

func (b *bar) Add(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.current += n
	b.throttle.Do(b.draw)
}

func (b *bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.draw()
	fmt.Fprintln(b.w)
	b.done = true
}

func (b *bar) draw() {
	pct := float64(b.current) / float64(b.total)
	if pct > 1 {
		pct = 1
	}
	fmt.Fprintf(b.w, "\r%s %s %s/%s", b.label, b.model.ViewAs(pct), formatBytes(b.current), formatBytes(b.total))
}

type spin struct {
	*renderer
	frames []string
	frame  int
}

func (s *spin) Add(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.current += n
	s.throttle.Do(s.draw)
}

func (s *spin) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	fmt.Fprintf(s.w, "\r%s %s\n", s.label, formatBytes(s.current))
	s.done = true
}

func (s *spin) draw() {
	frame := s.frames[s.frame%len(s.frames)]
	s.frame++
	fmt.Fprintf(s.w, "\r%s %s %s", s.label, frame, formatBytes(s.current))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
