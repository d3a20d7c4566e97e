package tracker

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// trackerConfig stages Configure updates so that validation completes
// before any tracker field is touched.
type trackerConfig struct {
	emitEach     *bool
	unit         *Unit
	summaryLevel *string
	name         *string
}

// ConfigOption configures tracker behavior.
type ConfigOption func(*trackerConfig)

// WithEmitEach controls whether one log line is emitted per completed span.
func WithEmitEach(on bool) ConfigOption {
	return func(c *trackerConfig) {
		c.emitEach = &on
	}
}

// WithTimeUnit sets the unit used to render elapsed times.
func WithTimeUnit(u Unit) ConfigOption {
	return func(c *trackerConfig) {
		c.unit = &u
	}
}

// WithSummaryLevel sets the logrus level name summaries are emitted at.
func WithSummaryLevel(level string) ConfigOption {
	return func(c *trackerConfig) {
		c.summaryLevel = &level
	}
}

// WithName tags every emitted entry with a tracker instance name, so
// multiple trackers sharing one logger can be told apart downstream.
func WithName(name string) ConfigOption {
	return func(c *trackerConfig) {
		c.name = &name
	}
}

// Configure applies the given options atomically under the tracker lock
// and returns the tracker for chaining. Unknown time units and summary
// levels are rejected without changing any state.
func (t *tracker) Configure(opts ...ConfigOption) (Tracker, error) {
	var c trackerConfig
	for _, opt := range opts {
		opt(&c)
	}

	var unit Unit
	if c.unit != nil {
		unit = *c.unit
		if unit != UnitSeconds && unit != UnitMilliseconds {
			return nil, fmt.Errorf("%w: time unit must be %q or %q, got %q",
				ErrInvalidArgument, UnitMilliseconds, UnitSeconds, unit)
		}
	}

	var level logrus.Level
	if c.summaryLevel != nil {
		parsed, err := logrus.ParseLevel(*c.summaryLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown summary level %q", ErrInvalidArgument, *c.summaryLevel)
		}
		level = parsed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if c.emitEach != nil {
		t.emitEach = *c.emitEach
	}
	if c.unit != nil {
		t.unit = unit
	}
	if c.summaryLevel != nil {
		t.summaryLevel = level
	}
	if c.name != nil {
		t.name = strings.TrimSpace(*c.name)
	}

	return t, nil
}
