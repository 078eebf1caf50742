package plan

import (
	"sort"
	"time"
)

// ScheduledHours sums the duration of task blocks per task id.
// Fixed events never count toward a task.
func ScheduledHours(events []Event) map[string]float64 {
	totals := make(map[string]time.Duration)
	for _, e := range events {
		if e.Type != EventTask {
			continue
		}
		d := e.End.Sub(e.Start.Time)
		if d <= 0 {
			continue
		}
		taskID := e.TaskID
		if taskID == "" {
			taskID = e.ID
		}
		totals[taskID] += d
	}

	hours := make(map[string]float64, len(totals))
	for id, d := range totals {
		hours[id] = d.Hours()
	}
	return hours
}

// DeriveStatus maps scheduled time against an estimate.
func DeriveStatus(scheduled, estimate float64) Status {
	switch {
	case scheduled <= 0:
		return StatusPool
	case scheduled < estimate:
		return StatusPartial
	default:
		return StatusScheduled
	}
}

// Reconcile recomputes the derived status of every task without a manual override.
// It only writes derived statuses and depends on nothing but d.Events.
func Reconcile(d *Document) {
	hours := ScheduledHours(d.Events)
	for _, g := range d.Goals {
		for _, t := range g.Items {
			if t.override != "" {
				continue
			}
			t.derived = DeriveStatus(hours[t.ID], t.EstimatedHours)
		}
	}
}

// SortEvents orders events by start, keeping the relative order of ties.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}
