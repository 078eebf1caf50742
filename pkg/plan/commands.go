package plan

import (
	"fmt"
	"time"
)

// DefaultBlockLength is used when a block is dropped without an end.
const DefaultBlockLength = time.Hour

// Change is a single calendar-originated mutation: a new block, a move or a resize.
// A zero End means "no end supplied".
type Change struct {
	ID    string
	Title string
	Start Timestamp
	End   Timestamp
	Color string
}

// ApplyCalendarChange merges a change into the document. An existing event with
// the same id is updated in place (task linkage and type are kept); otherwise a
// new task block is appended, linked to originTaskID or, failing that, to itself.
// Events are re-sorted and statuses reconciled. It returns the id of the event.
func ApplyCalendarChange(d *Document, c Change, originTaskID string) (string, error) {
	if c.Start.IsZero() {
		return "", &ValidationError{Field: "start", Err: fmt.Errorf("start is required")}
	}
	if c.End.IsZero() {
		c.End = c.Start.Add(DefaultBlockLength)
	}
	if !c.Start.Before(c.End) {
		return "", &ValidationError{Field: "end", Err: ErrInvalidRange}
	}

	if i := d.EventIndex(c.ID); c.ID != "" && i >= 0 {
		ev := &d.Events[i]
		if ev.IsFixed() {
			return "", ErrFixedEvent
		}
		ev.Start = c.Start
		ev.End = c.End
		if c.Title != "" {
			ev.Title = c.Title
		}
		if c.Color != "" {
			ev.Color = c.Color
		}
	} else {
		if c.ID == "" {
			c.ID = NewID()
		}
		taskID := originTaskID
		if taskID == "" {
			taskID = c.ID
		}
		color := c.Color
		if color == "" {
			color = DefaultBlockColor
		}
		d.Events = append(d.Events, Event{
			ID:     c.ID,
			TaskID: taskID,
			Type:   EventTask,
			Title:  c.Title,
			Start:  c.Start,
			End:    c.End,
			Color:  color,
		})
	}

	SortEvents(d.Events)
	Reconcile(d)
	return c.ID, nil
}

// DeleteEvent removes a task block and reconciles. Fixed events are rejected.
func DeleteEvent(d *Document, id string) error {
	i := d.EventIndex(id)
	if i < 0 {
		return ErrEventNotFound
	}
	if d.Events[i].IsFixed() {
		return ErrFixedEvent
	}
	d.Events = append(d.Events[:i], d.Events[i+1:]...)
	Reconcile(d)
	return nil
}

// Command is a discrete calendar gesture applied to a Document.
type Command interface {
	Apply(d *Document) error
	Name() string
}

// CreateBlock schedules a new block. With a TaskID the task must be pool or partial.
type CreateBlock struct {
	ID     string // optional; generated when empty
	TaskID string
	Title  string
	Start  Timestamp
	End    Timestamp // zero means one hour
	Color  string
}

func (c CreateBlock) Name() string { return "create-block" }

func (c CreateBlock) Apply(d *Document) error {
	title := c.Title
	if c.TaskID != "" {
		task, _ := d.FindTask(c.TaskID)
		if task == nil {
			return ErrTaskNotFound
		}
		if !task.Status().Schedulable() {
			return &ValidationError{Field: "task", Err: fmt.Errorf("%w: %s is %s", ErrNotSchedulable, task.Title, task.Status())}
		}
		if title == "" {
			title = task.Title
		}
	}
	if c.ID != "" && d.EventIndex(c.ID) >= 0 {
		return &ValidationError{Field: "id", Err: fmt.Errorf("event %s already exists", c.ID)}
	}

	_, err := ApplyCalendarChange(d, Change{
		ID:    c.ID,
		Title: title,
		Start: c.Start,
		End:   c.End,
		Color: c.Color,
	}, c.TaskID)
	return err
}

// MoveBlock shifts a block to a new start. A zero End keeps the block's length.
type MoveBlock struct {
	EventID string
	Start   Timestamp
	End     Timestamp
}

func (c MoveBlock) Name() string { return "move-block" }

func (c MoveBlock) Apply(d *Document) error {
	ev, ok := d.FindEvent(c.EventID)
	if !ok {
		return ErrEventNotFound
	}
	if ev.IsFixed() {
		return ErrFixedEvent
	}
	end := c.End
	if end.IsZero() {
		end = c.Start.Add(ev.End.Sub(ev.Start.Time))
	}
	_, err := ApplyCalendarChange(d, Change{ID: ev.ID, Start: c.Start, End: end}, ev.TaskID)
	return err
}

// ResizeBlock changes the end of a block.
type ResizeBlock struct {
	EventID string
	End     Timestamp
}

func (c ResizeBlock) Name() string { return "resize-block" }

func (c ResizeBlock) Apply(d *Document) error {
	ev, ok := d.FindEvent(c.EventID)
	if !ok {
		return ErrEventNotFound
	}
	if ev.IsFixed() {
		return ErrFixedEvent
	}
	_, err := ApplyCalendarChange(d, Change{ID: ev.ID, Start: ev.Start, End: c.End}, ev.TaskID)
	return err
}

// DeleteBlock removes a task block.
type DeleteBlock struct {
	EventID string
}

func (c DeleteBlock) Name() string { return "delete-block" }

func (c DeleteBlock) Apply(d *Document) error {
	return DeleteEvent(d, c.EventID)
}
