package plan

import "github.com/google/uuid"

// Status represents the scheduling state of a task.
type Status string

const (
	StatusPool      Status = "pool"
	StatusPartial   Status = "partial"
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusDropped   Status = "dropped"
)

// IsManual reports whether the status is a manual override that derivation never touches.
func (s Status) IsManual() bool {
	return s == StatusCompleted || s == StatusDropped
}

// Schedulable reports whether new blocks may be created from a task in this status.
func (s Status) Schedulable() bool {
	return s == StatusPool || s == StatusPartial
}

// EventType distinguishes user-scheduled blocks from imported fixed events.
type EventType string

const (
	EventTask    EventType = "task"
	EventOutlook EventType = "outlook"
)

// Default colors for blocks that do not carry one.
const (
	DefaultBlockColor = "#7D56F4"
	DefaultFixedColor = "#626262"
)

// DefaultEstimate is used when a task's estimate is missing or unusable.
const DefaultEstimate = 1.0

// Document is the root aggregate for one planning week.
type Document struct {
	Week    string
	Insight string
	Goals   []*Goal
	Events  []Event

	// Markdown body after the frontmatter.
	Notes string
}

// Goal groups tasks under a role.
type Goal struct {
	Role  string
	Items []*Task
}

// Task is a unit of intended work.
//
// The manual override (completed/dropped) and the derived status are kept
// apart so that Reconcile can only ever write the derived half.
type Task struct {
	ID             string
	Title          string
	EstimatedHours float64

	override Status
	derived  Status
}

// NewTask creates a task in the pool.
func NewTask(id, title string, hours float64) *Task {
	if hours <= 0 {
		hours = DefaultEstimate
	}
	return &Task{ID: id, Title: title, EstimatedHours: hours, derived: StatusPool}
}

// Status returns the effective status: the manual override if set, else the derived one.
func (t *Task) Status() Status {
	if t.override != "" {
		return t.override
	}
	if t.derived == "" {
		return StatusPool
	}
	return t.derived
}

// Override returns the manual override, or "" when status is derived.
func (t *Task) Override() Status {
	return t.override
}

// Cycle advances the manual status: derived → completed → dropped → derived.
// The caller must reconcile after the override is cleared.
func (t *Task) Cycle() {
	switch t.override {
	case "":
		t.override = StatusCompleted
	case StatusCompleted:
		t.override = StatusDropped
	default:
		t.override = ""
		t.derived = StatusPool
	}
}

// setStatus applies a status read from disk.
func (t *Task) setStatus(s Status) {
	switch s {
	case StatusCompleted, StatusDropped:
		t.override = s
	case StatusPartial, StatusScheduled:
		t.derived = s
	default:
		t.derived = StatusPool
	}
}

// Event is a concrete time block on the calendar.
type Event struct {
	ID     string
	TaskID string
	Type   EventType
	Title  string
	Start  Timestamp
	End    Timestamp
	Color  string
}

// IsFixed reports whether the event was imported and is read-only to the user.
func (e Event) IsFixed() bool {
	return e.Type == EventOutlook
}

// Hours returns the duration of the event in fractional hours.
func (e Event) Hours() float64 {
	d := e.End.Sub(e.Start.Time)
	if d < 0 {
		return 0
	}
	return d.Hours()
}

// NewID returns a fresh identifier for tasks and blocks.
func NewID() string {
	return uuid.NewString()
}

// FindTask returns the task with the given id and its goal.
func (d *Document) FindTask(id string) (*Task, *Goal) {
	for _, g := range d.Goals {
		for _, t := range g.Items {
			if t.ID == id {
				return t, g
			}
		}
	}
	return nil, nil
}

// EventIndex returns the index of the event with the given id, or -1.
func (d *Document) EventIndex(id string) int {
	for i := range d.Events {
		if d.Events[i].ID == id {
			return i
		}
	}
	return -1
}

// FindEvent returns a copy of the event with the given id.
func (d *Document) FindEvent(id string) (Event, bool) {
	if i := d.EventIndex(id); i >= 0 {
		return d.Events[i], true
	}
	return Event{}, false
}

// Tasks returns all tasks in display order.
func (d *Document) Tasks() []*Task {
	var tasks []*Task
	for _, g := range d.Goals {
		tasks = append(tasks, g.Items...)
	}
	return tasks
}

// AddTask appends a new pool task to the named role, creating the role if needed.
func (d *Document) AddTask(role, title string, hours float64) (*Task, error) {
	if title == "" {
		return nil, &ValidationError{Field: "title", Err: ErrEmptyTitle}
	}
	if role == "" {
		return nil, &ValidationError{Field: "role", Err: ErrEmptyRole}
	}

	task := NewTask(NewID(), title, hours)

	for _, g := range d.Goals {
		if g.Role == role {
			g.Items = append(g.Items, task)
			return task, nil
		}
	}
	d.Goals = append(d.Goals, &Goal{Role: role, Items: []*Task{task}})
	return task, nil
}

// CycleStatus advances a task's manual status and reconciles when it re-enters derivation.
func (d *Document) CycleStatus(taskID string) (Status, error) {
	task, _ := d.FindTask(taskID)
	if task == nil {
		return "", ErrTaskNotFound
	}
	task.Cycle()
	if task.Override() == "" {
		Reconcile(d)
	}
	return task.Status(), nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := &Document{
		Week:    d.Week,
		Insight: d.Insight,
		Notes:   d.Notes,
		Events:  append([]Event(nil), d.Events...),
	}
	for _, g := range d.Goals {
		cg := &Goal{Role: g.Role}
		for _, t := range g.Items {
			ct := *t
			cg.Items = append(cg.Items, &ct)
		}
		c.Goals = append(c.Goals, cg)
	}
	return c
}
