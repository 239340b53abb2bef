package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Status reports the progress of a single backend call on stderr so that
// stdout stays machine readable.
type Status struct {
	mu      sync.Mutex
	writer  io.Writer
	quiet   bool
	label   string
	started time.Time
	now     func() time.Time
}

// NewStatus creates a status reporter that writes to w. If w is nil it
// defaults to os.Stderr. A quiet reporter prints nothing.
func NewStatus(w io.Writer, quiet bool) *Status {
	if w == nil {
		w = os.Stderr
	}
	return &Status{writer: w, quiet: quiet, now: time.Now}
}

// Start announces the operation.
func (s *Status) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.label = label
	s.started = s.now()
	if !s.quiet {
		fmt.Fprintf(s.writer, "%s ...\n", label)
	}
}

// Done reports how many records came back and how long it took.
func (s *Status) Done(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quiet {
		return
	}
	elapsed := s.now().Sub(s.started).Round(time.Millisecond)
	fmt.Fprintf(s.writer, "✓ %s: %d %s in %s\n", s.label, count, plural(count, "record", "records"), elapsed)
}

// Error reports a failed operation. Errors are printed even when quiet.
func (s *Status) Error(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.writer, "✗ %s: %v\n", s.label, err)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
