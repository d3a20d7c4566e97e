package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultSummaryTitle = "Time Consumption Summary"

type summaryOptions struct {
	sortBy     SortKey
	descending bool
	limit      int
	limitSet   bool
	reset      bool
	title      string
}

// SummaryOption configures a single Summary call.
type SummaryOption func(*summaryOptions)

// WithSortBy sets the field the table is ordered by. Default is SortTotal.
func WithSortBy(key SortKey) SummaryOption {
	return func(o *summaryOptions) {
		o.sortBy = key
	}
}

// WithDescending controls sort direction. Default is descending.
func WithDescending(descending bool) SummaryOption {
	return func(o *summaryOptions) {
		o.descending = descending
	}
}

// WithLimit truncates the table to the top limit tasks after sorting.
// A limit of zero or less renders an empty table body.
func WithLimit(limit int) SummaryOption {
	return func(o *summaryOptions) {
		o.limit = limit
		o.limitSet = true
	}
}

// WithReset clears all samples after the summary is rendered, so the
// emitted table reflects the pre-reset state.
func WithReset() SummaryOption {
	return func(o *summaryOptions) {
		o.reset = true
	}
}

// WithTitle overrides the table title.
func WithTitle(title string) SummaryOption {
	return func(o *summaryOptions) {
		o.title = title
	}
}

// Summary computes per-task statistics, renders the fixed-width table, and
// emits it as a single raw message at the configured summary level. The
// snapshot happens under the lock; sorting, rendering and emission happen
// outside it. The rendered text is returned regardless of emission.
func (t *tracker) Summary(opts ...SummaryOption) (string, error) {
	o := summaryOptions{
		sortBy:     SortTotal,
		descending: true,
		title:      defaultSummaryTitle,
	}
	for _, opt := range opts {
		opt(&o)
	}

	stats := t.Stats()
	if err := sortStats(stats, o.sortBy, o.descending); err != nil {
		return "", err
	}

	if o.limitSet {
		if o.limit < 0 {
			o.limit = 0
		}
		if o.limit < len(stats) {
			stats = stats[:o.limit]
		}
	}

	t.mu.RLock()
	unit := t.unit
	level := t.summaryLevel
	name := t.name
	t.mu.RUnlock()

	rendered := renderSummary(stats, o.title, unit)

	t.bind(logrus.Fields{FieldKind: KindSummary}, name).Log(level, rendered+"\n")

	if o.reset {
		t.Clear()
	}

	return rendered, nil
}

// renderSummary produces the table: title, rules, header, one row per task,
// and a grand-total row summing the rendered set.
func renderSummary(stats []TaskStats, title string, unit Unit) string {
	lines := []string{title}

	rule := len(title)
	if rule < 24 {
		rule = 24
	}
	lines = append(lines, strings.Repeat("-", rule))

	if len(stats) == 0 {
		lines = append(lines, "(no data)")

		return strings.Join(lines, "\n")
	}

	header := fmt.Sprintf("%-30s  %7s  %14s  %14s  %14s  %14s  %14s",
		"TASK", "COUNT", "TOTAL", "AVG", "MIN", "MAX", "LAST")
	lines = append(lines, header, strings.Repeat("-", len(header)))

	var grandTotal time.Duration
	for _, s := range stats {
		task := s.Task
		if r := []rune(task); len(r) > 30 {
			task = string(r[:30])
		}

		lines = append(lines, fmt.Sprintf("%-30s  %7d  %14s  %14s  %14s  %14s  %14s",
			task, s.Count,
			formatElapsed(s.Total, unit),
			formatElapsed(s.Avg, unit),
			formatElapsed(s.Min, unit),
			formatElapsed(s.Max, unit),
			formatElapsed(s.Last, unit)))

		grandTotal += s.Total
	}

	lines = append(lines, strings.Repeat("-", len(header)))
	lines = append(lines, fmt.Sprintf("%-30s  %7s  %14s",
		"TOTAL (all tasks)", "", formatElapsed(grandTotal, unit)))

	return strings.Join(lines, "\n")
}

// formatElapsed renders a duration in the given unit.
func formatElapsed(d time.Duration, unit Unit) string {
	if unit == UnitMilliseconds {
		return fmt.Sprintf("%.3f ms", d.Seconds()*1000)
	}

	return fmt.Sprintf("%.6f s", d.Seconds())
}
