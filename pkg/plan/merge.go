package plan

import (
	"fmt"

	"github.com/google/uuid"
)

// externalNamespace seeds deterministic ids for imported events that arrive without one.
var externalNamespace = uuid.MustParse("6f1d7c52-7a43-4e5e-9a51-1f3c0f6d2b8e")

// RawEvent is an event record as produced by the external importer.
type RawEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type,omitempty"`
	Color string `json:"color,omitempty"`
}

// MergeExternal replaces every fixed event with the incoming batch. Task blocks
// are never touched. The batch is validated in full before the document changes,
// so on error d is left as it was.
func MergeExternal(d *Document, incoming []RawEvent) error {
	taskIDs := make(map[string]bool)
	for _, e := range d.Events {
		if e.Type != EventOutlook {
			taskIDs[e.ID] = true
		}
	}

	fixed := make([]Event, 0, len(incoming))
	seen := make(map[string]bool, len(incoming))
	for i, raw := range incoming {
		ev, err := raw.toEvent()
		if err != nil {
			return &SyncError{Op: "merge", Err: fmt.Errorf("event %d: %w", i, err)}
		}
		if seen[ev.ID] {
			return &SyncError{Op: "merge", Err: fmt.Errorf("event %d: duplicate id %q", i, ev.ID)}
		}
		if taskIDs[ev.ID] {
			return &SyncError{Op: "merge", Err: fmt.Errorf("event %d: id %q collides with a scheduled block", i, ev.ID)}
		}
		seen[ev.ID] = true
		fixed = append(fixed, ev)
	}

	kept := make([]Event, 0, len(d.Events)+len(fixed))
	for _, e := range d.Events {
		if e.Type != EventOutlook {
			kept = append(kept, e)
		}
	}
	kept = append(kept, fixed...)
	SortEvents(kept)

	d.Events = kept
	Reconcile(d)
	return nil
}

func (r RawEvent) toEvent() (Event, error) {
	start, err := ParseTimestamp(r.Start)
	if err != nil {
		return Event{}, fmt.Errorf("start: %w", err)
	}
	end := start.Add(DefaultBlockLength)
	if r.End != "" {
		end, err = ParseTimestamp(r.End)
		if err != nil {
			return Event{}, fmt.Errorf("end: %w", err)
		}
	}
	if !start.Before(end) {
		return Event{}, fmt.Errorf("%w: %s to %s", ErrInvalidRange, start, end)
	}

	id := r.ID
	if id == "" {
		id = uuid.NewSHA1(externalNamespace, []byte(r.Title+"\x00"+start.String()+"\x00"+end.String())).String()
	}
	color := r.Color
	if color == "" {
		color = DefaultFixedColor
	}

	return Event{
		ID:     id,
		TaskID: id,
		Type:   EventOutlook,
		Title:  r.Title,
		Start:  start,
		End:    end,
		Color:  color,
	}, nil
}
