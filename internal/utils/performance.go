package utils

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// StepAggregate holds aggregate timing information for a step
type StepAggregate struct {
	Count    int
	Total    time.Duration
	Average  time.Duration
	Min      time.Duration
	Max      time.Duration
	StepName string
}

// PerformanceTracker tracks execution times of named steps across goroutines.
type PerformanceTracker struct {
	aggregates map[string]*StepAggregate
	mu         sync.Mutex
	now        func() time.Time
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		aggregates: make(map[string]*StepAggregate),
		now:        time.Now,
	}
}

// Track starts timing a step and returns the function that ends it.
//
//	defer tracker.Track("fetch window")()
func (pt *PerformanceTracker) Track(name string) func() {
	start := pt.now()
	return func() {
		pt.Record(name, pt.now().Sub(start))
	}
}

// Record adds one observation of duration d for the named step.
func (pt *PerformanceTracker) Record(name string, d time.Duration) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	agg, exists := pt.aggregates[name]
	if !exists {
		agg = &StepAggregate{
			StepName: name,
			Min:      d,
			Max:      d,
		}
		pt.aggregates[name] = agg
	}

	agg.Count++
	agg.Total += d
	agg.Average = agg.Total / time.Duration(agg.Count)

	if d < agg.Min {
		agg.Min = d
	}
	if d > agg.Max {
		agg.Max = d
	}
}

// Aggregates returns a snapshot of all steps sorted by total time, largest first.
func (pt *PerformanceTracker) Aggregates() []StepAggregate {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	steps := make([]StepAggregate, 0, len(pt.aggregates))
	for _, agg := range pt.aggregates {
		steps = append(steps, *agg)
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Total == steps[j].Total {
			return steps[i].StepName < steps[j].StepName
		}
		return steps[i].Total > steps[j].Total
	})
	return steps
}

// GenerateAggregateReport renders the aggregates as a table.
func (pt *PerformanceTracker) GenerateAggregateReport() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Aggregate Performance Report")
	t.AppendHeader(table.Row{"Step", "Count", "Total", "Average", "Min", "Max"})

	for _, agg := range pt.Aggregates() {
		t.AppendRow(table.Row{
			agg.StepName,
			agg.Count,
			agg.Total.Round(time.Millisecond),
			agg.Average.Round(time.Millisecond),
			agg.Min.Round(time.Millisecond),
			agg.Max.Round(time.Millisecond),
		})
	}

	return fmt.Sprintf("\n%s\n", t.Render())
}
