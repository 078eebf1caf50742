package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

// JSON helpers

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type taskJSON struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	Override  string  `json:"override,omitempty"`
	Estimated float64 `json:"estimated_hours"`
	Scheduled float64 `json:"scheduled_hours"`
}

type eventJSON struct {
	ID     string  `json:"id"`
	TaskID string  `json:"task_id,omitempty"`
	Type   string  `json:"type"`
	Title  string  `json:"title"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Hours  float64 `json:"hours"`
	Fixed  bool    `json:"fixed"`
}

type weekJSON struct {
	Week    string      `json:"week"`
	Path    string      `json:"path"`
	Insight string      `json:"insight,omitempty"`
	Tasks   []taskJSON  `json:"tasks"`
	Events  []eventJSON `json:"events"`
}

func tasksToJSON(d *plan.Document) []taskJSON {
	hours := plan.ScheduledHours(d.Events)
	out := []taskJSON{}
	for _, g := range d.Goals {
		for _, t := range g.Items {
			out = append(out, taskToJSON(g.Role, t, hours[t.ID]))
		}
	}
	return out
}

func taskToJSON(role string, t *plan.Task, scheduled float64) taskJSON {
	return taskJSON{
		ID:        t.ID,
		Role:      role,
		Title:     t.Title,
		Status:    string(t.Status()),
		Override:  string(t.Override()),
		Estimated: t.EstimatedHours,
		Scheduled: scheduled,
	}
}

func eventToJSON(e plan.Event) eventJSON {
	return eventJSON{
		ID:     e.ID,
		TaskID: e.TaskID,
		Type:   string(e.Type),
		Title:  e.Title,
		Start:  e.Start.String(),
		End:    e.End.String(),
		Hours:  e.Hours(),
		Fixed:  e.IsFixed(),
	}
}

func weekToJSON(d *plan.Document, path string) weekJSON {
	events := make([]eventJSON, 0, len(d.Events))
	for _, e := range d.Events {
		events = append(events, eventToJSON(e))
	}
	return weekJSON{
		Week:    d.Week,
		Path:    path,
		Insight: d.Insight,
		Tasks:   tasksToJSON(d),
		Events:  events,
	}
}

// Pretty printing

var statusColors = map[plan.Status]*color.Color{
	plan.StatusPool:      color.New(color.Reset),
	plan.StatusPartial:   color.New(color.FgYellow),
	plan.StatusScheduled: color.New(color.FgCyan),
	plan.StatusCompleted: color.New(color.FgGreen),
	plan.StatusDropped:   color.New(color.Faint, color.CrossedOut),
}

func colorStatus(s plan.Status) string {
	c, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return c.Sprint(string(s))
}

func printTasks(w io.Writer, d *plan.Document) {
	bold := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	hours := plan.ScheduledHours(d.Events)
	for _, g := range d.Goals {
		_, _ = bold.Fprintln(w, g.Role)
		if len(g.Items) == 0 {
			_, _ = faint.Fprint(w, "  none\n\n")
			continue
		}
		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.MaxColWidth = 48
		for _, t := range g.Items {
			tbl.AddRow(" ", colorStatus(t.Status()), t.Title, formatHours(hours[t.ID], t.EstimatedHours), faint.Sprint(t.ID))
		}
		fmt.Fprintln(w, tbl)
		fmt.Fprintln(w)
	}
}

func printAgenda(w io.Writer, d *plan.Document) {
	bold := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	_, _ = bold.Fprintln(w, "Agenda")
	if len(d.Events) == 0 {
		_, _ = faint.Fprint(w, "  none\n")
		return
	}
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	for _, e := range d.Events {
		title := e.Title
		if e.IsFixed() {
			title = faint.Sprint(title)
		}
		tbl.AddRow(" ", e.Start.Format("Mon 15:04"), e.End.Format("15:04"), title, faint.Sprint(e.ID))
	}
	fmt.Fprintln(w, tbl)
}

func formatHours(scheduled, estimated float64) string {
	return fmt.Sprintf("%gh/%gh", scheduled, estimated)
}
