package tracker

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Span measures one execution of a named task. It is created by a Tracker
// level method and must be finished with End (or Run) on every exit path.
// A Span only observes the outcome of the work it brackets; it never
// swallows or alters errors.
type Span struct {
	tracker *tracker
	task    string
	level   logrus.Level
	start   time.Time
	done    atomic.Bool
}

// End records the elapsed time since the span started. Pass the error the
// guarded work produced, or nil; it is observed only to classify the status
// of the emitted event. Calling End more than once is a no-op.
func (s *Span) End(err error) {
	if !s.done.CompareAndSwap(false, true) {
		return
	}

	elapsed := s.tracker.now().Sub(s.start)
	if elapsed < 0 {
		// Clock anomalies are clamped rather than reported.
		elapsed = 0
	}

	s.tracker.record(s.task, elapsed, s.level, err)
}

// Run executes fn inside the span and returns its error unchanged. The
// sample is recorded on every exit path; a panic in fn is recorded as a
// failed sample and then re-raised.
func (s *Span) Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.End(fmt.Errorf("panic: %v", r))
			panic(r)
		}
		s.End(err)
	}()

	return fn()
}

// Task returns the trimmed task name the span records under.
func (s *Span) Task() string {
	return s.task
}
