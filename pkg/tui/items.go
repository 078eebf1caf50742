package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

// TaskRow is one line of the task pane: a role header or a task.
type TaskRow struct {
	ID              string // task ID, or a synthetic header ID
	Role            string
	Name            string
	Task            *plan.Task
	Scheduled       float64 // hours of task blocks linked to the task
	IsSectionHeader bool
}

// BuildTaskRows flattens the goals of a document into role headers followed by their tasks.
func BuildTaskRows(doc *plan.Document) []TaskRow {
	scheduled := plan.ScheduledHours(doc.Events)

	var rows []TaskRow
	for i, g := range doc.Goals {
		rows = append(rows, TaskRow{
			ID:              "__role_" + strconv.Itoa(i),
			Role:            g.Role,
			Name:            g.Role,
			IsSectionHeader: true,
		})
		for _, t := range g.Items {
			rows = append(rows, TaskRow{
				ID:        t.ID,
				Role:      g.Role,
				Name:      t.Title,
				Task:      t,
				Scheduled: scheduled[t.ID],
			})
		}
	}
	return rows
}

// FilterTaskRows keeps tasks whose title contains query, plus the headers of
// roles that still have a match.
func FilterTaskRows(rows []TaskRow, query string) []TaskRow {
	if query == "" {
		return rows
	}
	query = strings.ToLower(query)

	var result []TaskRow
	var header *TaskRow
	for i := range rows {
		row := rows[i]
		if row.IsSectionHeader {
			header = &rows[i]
			continue
		}
		if !strings.Contains(strings.ToLower(row.Name), query) {
			continue
		}
		if header != nil {
			result = append(result, *header)
			header = nil
		}
		result = append(result, row)
	}
	return result
}

// AgendaRow is one line of the agenda pane: a day header or an event.
type AgendaRow struct {
	ID          string
	Day         time.Time
	Event       plan.Event
	IsDayHeader bool
}

// BuildAgenda groups sorted events under one header per calendar day.
func BuildAgenda(events []plan.Event) []AgendaRow {
	var rows []AgendaRow
	var current time.Time
	for _, e := range events {
		day := time.Date(e.Start.Year(), e.Start.Month(), e.Start.Day(), 0, 0, 0, 0, time.UTC)
		if !day.Equal(current) {
			current = day
			rows = append(rows, AgendaRow{
				ID:          "__day_" + day.Format("2006-01-02"),
				Day:         day,
				IsDayHeader: true,
			})
		}
		rows = append(rows, AgendaRow{ID: e.ID, Day: day, Event: e})
	}
	return rows
}

// PlanStats summarizes a document for the header.
type PlanStats struct {
	Tasks     int
	Done      int // completed or scheduled
	Estimated float64
	Planned   float64
}

// ComputeStats totals task estimates and scheduled task hours.
func ComputeStats(doc *plan.Document) PlanStats {
	var s PlanStats
	for _, t := range doc.Tasks() {
		s.Tasks++
		switch t.Status() {
		case plan.StatusCompleted, plan.StatusScheduled:
			s.Done++
		}
		if t.Status() != plan.StatusDropped {
			s.Estimated += t.EstimatedHours
		}
	}
	for _, h := range plan.ScheduledHours(doc.Events) {
		s.Planned += h
	}
	return s
}
