// Package tracker provides scoped timing of named tasks with per-task
// statistics aggregation. The tracker owns timing, aggregation and summary
// rendering; output handling is delegated to logrus, which owns sinks,
// formatting, filtering and persistence.
package tracker

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Field keys and values bound to every entry the tracker emits. External
// sinks can isolate tracker traffic by matching MarkerKey == MarkerValue
// and inspecting FieldKind.
const (
	MarkerKey   = "emitter"
	MarkerValue = "tracktime"

	FieldKind    = "kind"
	FieldTask    = "task"
	FieldElapsed = "elapsed_s"
	FieldStatus  = "status"
	FieldTracker = "tracker"

	KindEvent   = "event"
	KindSummary = "summary"
)

// ErrInvalidArgument is wrapped by every argument validation failure;
// match it with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// Unit selects how elapsed times are rendered in events and summaries.
// Stored samples are always raw durations; the unit affects rendering only.
type Unit string

const (
	// UnitSeconds renders elapsed times as fractional seconds.
	UnitSeconds Unit = "s"
	// UnitMilliseconds renders elapsed times as fractional milliseconds.
	UnitMilliseconds Unit = "ms"
)

// Tracker times named tasks and aggregates per-task statistics.
type Tracker interface {
	// Trace through Error start a Span for task at the corresponding
	// logrus level. These are the only way to begin timing.
	Trace(task string) (*Span, error)
	Debug(task string) (*Span, error)
	Info(task string) (*Span, error)
	Warning(task string) (*Span, error)
	Error(task string) (*Span, error)

	// Configure updates tracker-owned knobs atomically and returns the
	// tracker for chaining. Updates affect future events and summaries
	// only; stored samples are never reformatted.
	Configure(opts ...ConfigOption) (Tracker, error)

	// Summary renders the statistics table, emits it through the logger
	// at the configured summary level, and returns the rendered text.
	Summary(opts ...SummaryOption) (string, error)

	// Stats returns a snapshot of the statistics for every task with at
	// least one recorded sample, ordered by task name.
	Stats() []TaskStats

	// Clear discards all recorded samples. Configuration is untouched.
	Clear()

	// AddEventSink registers w as a destination that receives only
	// tracker-tagged entries. The caller owns w's lifecycle.
	AddEventSink(w io.Writer, opts ...SinkOption) (SinkID, error)
	// RemoveEventSink detaches a previously registered sink and reports
	// whether the id was known.
	RemoveEventSink(id SinkID) bool
	// Sinks lists the ids of the currently registered event sinks.
	Sinks() []SinkID

	// Logger exposes the underlying logrus logger so callers can
	// configure outputs, formatters and levels directly.
	Logger() *logrus.Logger
}

// tracker implements Tracker interface
type tracker struct {
	log  *logrus.Logger
	hook *eventHook

	mu      sync.RWMutex
	records map[string][]time.Duration

	emitEach     bool
	unit         Unit
	summaryLevel logrus.Level
	name         string

	// now is the clock used by spans; overridable in tests
	now func() time.Time
}

// New creates a Tracker that emits through log. A nil logger is a
// configuration error: the tracker cannot operate without its collaborator.
func New(log *logrus.Logger, opts ...ConfigOption) (Tracker, error) {
	if log == nil {
		return nil, fmt.Errorf("%w: logger is required", ErrInvalidArgument)
	}

	t := &tracker{
		log:          log,
		hook:         newEventHook(),
		records:      make(map[string][]time.Duration),
		unit:         UnitSeconds,
		summaryLevel: logrus.InfoLevel,
		now:          time.Now,
	}
	log.AddHook(t.hook)

	if len(opts) > 0 {
		if _, err := t.Configure(opts...); err != nil {
			return nil, err
		}
	}

	return t, nil
}

var (
	defaultOnce    sync.Once
	defaultTracker Tracker
)

// Default returns the process-wide tracker backed by the logrus standard
// logger, creating it on first use. Trackers built with New share nothing
// with it or with each other.
func Default() Tracker {
	defaultOnce.Do(func() {
		defaultTracker, _ = New(logrus.StandardLogger())
	})

	return defaultTracker
}

func (t *tracker) Trace(task string) (*Span, error)   { return t.span(task, logrus.TraceLevel) }
func (t *tracker) Debug(task string) (*Span, error)   { return t.span(task, logrus.DebugLevel) }
func (t *tracker) Info(task string) (*Span, error)    { return t.span(task, logrus.InfoLevel) }
func (t *tracker) Warning(task string) (*Span, error) { return t.span(task, logrus.WarnLevel) }
func (t *tracker) Error(task string) (*Span, error)   { return t.span(task, logrus.ErrorLevel) }

func (t *tracker) span(task string, level logrus.Level) (*Span, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, fmt.Errorf("%w: task name must be a non-empty string", ErrInvalidArgument)
	}

	return &Span{
		tracker: t,
		task:    task,
		level:   level,
		start:   t.now(),
	}, nil
}

// record appends one sample and, when emit-each is enabled, emits a single
// event entry at the span's level. The entry is emitted after the append is
// visible and outside the lock so a slow sink never stalls concurrent spans.
func (t *tracker) record(task string, elapsed time.Duration, level logrus.Level, workErr error) {
	t.mu.Lock()
	t.records[task] = append(t.records[task], elapsed)
	emit := t.emitEach
	unit := t.unit
	name := t.name
	t.mu.Unlock()

	if !emit {
		return
	}

	status := "OK"
	if workErr != nil {
		status = fmt.Sprintf("ERR:%T", workErr)
	}

	t.bind(logrus.Fields{
		FieldKind:    KindEvent,
		FieldTask:    task,
		FieldElapsed: elapsed.Seconds(),
		FieldStatus:  status,
	}, name).Log(level, fmt.Sprintf("task=%s | elapsed=%s", task, formatElapsed(elapsed, unit)))
}

// bind attaches the tracker marker pair plus fields to a fresh entry.
func (t *tracker) bind(fields logrus.Fields, name string) *logrus.Entry {
	entry := t.log.WithField(MarkerKey, MarkerValue).WithFields(fields)
	if name != "" {
		entry = entry.WithField(FieldTracker, name)
	}

	return entry
}

func (t *tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string][]time.Duration)
}

func (t *tracker) Logger() *logrus.Logger {
	return t.log
}

// Compile-time interface compliance check
var _ Tracker = (*tracker)(nil)
