package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mangaforge/pkg/pipeline"
)

var spinFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinInterval = 80 * time.Millisecond

// pageSpinner animates a running stage on one terminal line and shows how
// many pages of the batch are done. Pool workers report through Progress.
type pageSpinner struct {
	out    io.Writer
	label  string
	parent context.Context
	stop   context.CancelFunc
	exited chan struct{}

	mu          sync.Mutex
	done, total int
	drawn       int
}

// startSpinner animates label on stderr until Stop is called or ctx ends.
func startSpinner(ctx context.Context, label string) *pageSpinner {
	return startSpinnerTo(ctx, os.Stderr, label)
}

func startSpinnerTo(ctx context.Context, out io.Writer, label string) *pageSpinner {
	sctx, stop := context.WithCancel(ctx)
	s := &pageSpinner{
		out:    out,
		label:  label,
		parent: ctx,
		stop:   stop,
		exited: make(chan struct{}),
	}
	go s.run(sctx)
	return s
}

func (s *pageSpinner) run(ctx context.Context) {
	defer close(s.exited)
	tick := time.NewTicker(spinInterval)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.clear()
			return
		case <-tick.C:
			s.draw(spinFrames[i%len(spinFrames)])
		}
	}
}

// Progress records done of total pages. It has the signature of the
// pipeline progress callback.
func (s *pageSpinner) Progress(done, total int) {
	s.mu.Lock()
	s.done, s.total = done, total
	s.mu.Unlock()
}

// Stop ends the animation and clears its line. Later calls return at once.
func (s *pageSpinner) Stop() {
	s.stop()
	<-s.exited
}

// Interrupted reports whether the stage's context ended before Stop.
func (s *pageSpinner) Interrupted() bool { return s.parent.Err() != nil }

// line renders one frame. The count appears once a page has finished.
func (s *pageSpinner) line(frame string) string {
	text := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.label)
	if s.total > 0 {
		text += " " + StyleNumber.Render(fmt.Sprintf("%d/%d", s.done, s.total))
	}
	return text
}

func (s *pageSpinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.line(frame)
	pad := max(s.drawn-lipgloss.Width(l), 0)
	fmt.Fprint(s.out, "\r"+l+strings.Repeat(" ", pad))
	s.drawn = lipgloss.Width(l) + pad
}

func (s *pageSpinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.drawn)+"\r")
		s.drawn = 0
	}
}

// withSpinner runs fn while a spinner labelled label shows the progress
// reported to popts.
func withSpinner(ctx context.Context, label string, popts *pipeline.Options, fn func() error) error {
	spin := startSpinner(ctx, label)
	popts.Progress = spin.Progress
	err := fn()
	spin.Stop()
	if err != nil && spin.Interrupted() {
		printWarning("%s interrupted", label)
	}
	return err
}
