package tracker

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TaskStats is an immutable snapshot of one task's aggregated samples.
// It is recomputed on demand, never cached.
type TaskStats struct {
	Task  string
	Count int
	Total time.Duration
	Avg   time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration
}

// SortKey selects the field summaries are ordered by.
type SortKey string

const (
	SortTotal SortKey = "total"
	SortAvg   SortKey = "avg"
	SortCount SortKey = "count"
	SortMax   SortKey = "max"
	SortMin   SortKey = "min"
	// SortTask orders by task name, case-insensitively.
	SortTask SortKey = "task"
)

// Stats snapshots the sample store under the lock, then computes statistics
// outside it. Tasks with no samples are omitted.
func (t *tracker) Stats() []TaskStats {
	t.mu.RLock()
	snapshot := make(map[string][]time.Duration, len(t.records))
	for task, samples := range t.records {
		copied := make([]time.Duration, len(samples))
		copy(copied, samples)
		snapshot[task] = copied
	}
	t.mu.RUnlock()

	out := make([]TaskStats, 0, len(snapshot))
	for task, samples := range snapshot {
		if len(samples) == 0 {
			continue
		}
		out = append(out, computeStats(task, samples))
	}

	// Deterministic base order before any sort key is applied.
	sort.Slice(out, func(i, j int) bool { return out[i].Task < out[j].Task })

	return out
}

func computeStats(task string, samples []time.Duration) TaskStats {
	var total time.Duration
	minS, maxS := samples[0], samples[0]
	for _, s := range samples {
		total += s
		if s < minS {
			minS = s
		}
		if s > maxS {
			maxS = s
		}
	}

	return TaskStats{
		Task:  task,
		Count: len(samples),
		Total: total,
		Avg:   total / time.Duration(len(samples)),
		Min:   minS,
		Max:   maxS,
		Last:  samples[len(samples)-1],
	}
}

// sortStats orders stats in place by key. Ties keep the deterministic
// task-name base order.
func sortStats(stats []TaskStats, key SortKey, descending bool) error {
	var less func(a, b TaskStats) bool

	switch key {
	case SortTotal:
		less = func(a, b TaskStats) bool { return a.Total < b.Total }
	case SortAvg:
		less = func(a, b TaskStats) bool { return a.Avg < b.Avg }
	case SortCount:
		less = func(a, b TaskStats) bool { return a.Count < b.Count }
	case SortMax:
		less = func(a, b TaskStats) bool { return a.Max < b.Max }
	case SortMin:
		less = func(a, b TaskStats) bool { return a.Min < b.Min }
	case SortTask:
		less = func(a, b TaskStats) bool {
			return strings.ToLower(a.Task) < strings.ToLower(b.Task)
		}
	default:
		return fmt.Errorf("%w: sort key must be one of total, avg, count, max, min, task; got %q",
			ErrInvalidArgument, key)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if descending {
			return less(stats[j], stats[i])
		}

		return less(stats[i], stats[j])
	})

	return nil
}
