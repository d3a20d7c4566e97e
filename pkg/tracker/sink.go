package tracker

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SinkID identifies a registered event sink.
type SinkID int

// SinkOption configures a registered event sink.
type SinkOption func(*sink)

// WithKinds restricts the sink to the given entry kinds (KindEvent,
// KindSummary). The default receives both.
func WithKinds(kinds ...string) SinkOption {
	return func(s *sink) {
		s.kinds = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
}

// WithSinkFormatter overrides the formatter used for entries written to
// this sink.
func WithSinkFormatter(f logrus.Formatter) SinkOption {
	return func(s *sink) {
		s.formatter = f
	}
}

type sink struct {
	w         io.Writer
	kinds     map[string]bool
	formatter logrus.Formatter
}

func (s *sink) wants(kind string) bool {
	if len(s.kinds) == 0 {
		return true
	}

	return s.kinds[kind]
}

// render formats one entry for the sink. Summaries are written verbatim so
// the table layout survives; events default to a compact single line.
func (s *sink) render(entry *logrus.Entry, kind string) ([]byte, error) {
	if s.formatter != nil {
		return s.formatter.Format(entry)
	}

	if kind == KindSummary {
		return []byte(entry.Message), nil
	}

	return fmt.Appendf(nil, "%s level=%s %s status=%v\n",
		entry.Time.Format(time.RFC3339), entry.Level, entry.Message, entry.Data[FieldStatus]), nil
}

// eventHook fans tracker-tagged entries out to registered sinks. logrus
// has no hook removal, so one hook owns a removable registry instead.
type eventHook struct {
	mu    sync.RWMutex
	next  SinkID
	sinks map[SinkID]*sink
}

func newEventHook() *eventHook {
	return &eventHook{sinks: make(map[SinkID]*sink)}
}

// Levels implements logrus.Hook.
func (h *eventHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook. Entries without the tracker marker pass
// through untouched.
func (h *eventHook) Fire(entry *logrus.Entry) error {
	if entry.Data[MarkerKey] != MarkerValue {
		return nil
	}

	kind, _ := entry.Data[FieldKind].(string)

	h.mu.RLock()
	targets := make([]*sink, 0, len(h.sinks))
	for _, s := range h.sinks {
		if s.wants(kind) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		line, err := s.render(entry, kind)
		if err != nil {
			return fmt.Errorf("formatting tracker entry for sink: %w", err)
		}
		if _, err := s.w.Write(line); err != nil {
			return fmt.Errorf("writing tracker entry to sink: %w", err)
		}
	}

	return nil
}

func (h *eventHook) add(s *sink) SinkID {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.sinks[h.next] = s

	return h.next
}

func (h *eventHook) remove(id SinkID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sinks[id]
	delete(h.sinks, id)

	return ok
}

func (h *eventHook) ids() []SinkID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]SinkID, 0, len(h.sinks))
	for id := range h.sinks {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// AddEventSink registers a destination that receives only tracker-tagged
// entries. The returned id can later be passed to RemoveEventSink; the
// tracker does not own the writer's lifecycle.
func (t *tracker) AddEventSink(w io.Writer, opts ...SinkOption) (SinkID, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: sink writer is required", ErrInvalidArgument)
	}

	s := &sink{w: w}
	for _, opt := range opts {
		opt(s)
	}

	for k := range s.kinds {
		if k != KindEvent && k != KindSummary {
			return 0, fmt.Errorf("%w: unknown sink kind %q", ErrInvalidArgument, k)
		}
	}

	return t.hook.add(s), nil
}

func (t *tracker) RemoveEventSink(id SinkID) bool {
	return t.hook.remove(id)
}

func (t *tracker) Sinks() []SinkID {
	return t.hook.ids()
}

// Compile-time interface compliance check
var _ logrus.Hook = (*eventHook)(nil)
