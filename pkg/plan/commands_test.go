package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSorted(t *testing.T, events []Event) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Start.Before(events[i-1].Start), "events out of order at %d", i)
	}
}

func TestApplyCalendarChangeCreatesBlock(t *testing.T) {
	d := docWithTask("t1", 2)
	mon := At(2026, time.October, 19, 9, 0)
	d.Events = []Event{block("later", "x", mon.Add(4*time.Hour), 1)}

	id, err := ApplyCalendarChange(d, Change{ID: "drop-1", Title: "Write report", Start: mon}, "t1")
	require.NoError(t, err)
	assert.Equal(t, "drop-1", id)

	ev, ok := d.FindEvent("drop-1")
	require.True(t, ok)
	assert.Equal(t, EventTask, ev.Type)
	assert.Equal(t, "t1", ev.TaskID)
	assert.Equal(t, DefaultBlockColor, ev.Color)
	assert.Equal(t, mon.Add(time.Hour), ev.End, "point drops last one hour")
	assert.Equal(t, "drop-1", d.Events[0].ID)
	assertSorted(t, d.Events)
}

func TestApplyCalendarChangeLinksToItselfWithoutOrigin(t *testing.T) {
	d := docWithTask("t1", 2)
	id, err := ApplyCalendarChange(d, Change{Start: At(2026, time.October, 20, 14, 0)}, "")
	require.NoError(t, err)

	ev, ok := d.FindEvent(id)
	require.True(t, ok)
	assert.Equal(t, id, ev.TaskID)
}

func TestApplyCalendarChangeUpdatesInPlace(t *testing.T) {
	d := docWithTask("t1", 2)
	mon := At(2026, time.October, 19, 9, 0)
	d.Events = []Event{block("e1", "t1", mon, 1)}
	d.Events[0].Color = "#123456"

	_, err := ApplyCalendarChange(d, Change{ID: "e1", Start: mon.Add(time.Hour), End: mon.Add(3 * time.Hour)}, "other")
	require.NoError(t, err)

	require.Len(t, d.Events, 1)
	ev := d.Events[0]
	assert.Equal(t, "t1", ev.TaskID, "linkage is preserved")
	assert.Equal(t, "e1", ev.Title, "empty title keeps the old one")
	assert.Equal(t, "#123456", ev.Color)
	assert.Equal(t, StatusScheduled, d.Goals[0].Items[0].Status())
}

func TestApplyCalendarChangeRejectsBadRange(t *testing.T) {
	d := docWithTask("t1", 2)
	mon := At(2026, time.October, 19, 9, 0)

	_, err := ApplyCalendarChange(d, Change{Start: mon, End: mon.Add(-time.Hour)}, "t1")
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.Empty(t, d.Events)
}

func TestFixedEventsAreReadOnly(t *testing.T) {
	mon := At(2026, time.October, 19, 9, 0)
	d := docWithTask("t1", 2)
	d.Events = []Event{fixed("o1", mon, 1)}
	before := d.Clone()

	cmds := []Command{
		MoveBlock{EventID: "o1", Start: mon.Add(time.Hour)},
		ResizeBlock{EventID: "o1", End: mon.Add(3 * time.Hour)},
		DeleteBlock{EventID: "o1"},
	}
	for _, cmd := range cmds {
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.ErrorIs(t, cmd.Apply(d), ErrFixedEvent)
			assert.Equal(t, before, d)
		})
	}

	_, err := ApplyCalendarChange(d, Change{ID: "o1", Start: mon.Add(time.Hour)}, "")
	assert.ErrorIs(t, err, ErrFixedEvent)
	assert.Equal(t, before, d)
}

func TestCreateBlockCommand(t *testing.T) {
	mon := At(2026, time.October, 19, 9, 0)

	t.Run("uses task title", func(t *testing.T) {
		d := docWithTask("t1", 2)
		require.NoError(t, CreateBlock{TaskID: "t1", Start: mon}.Apply(d))
		require.Len(t, d.Events, 1)
		assert.Equal(t, "Write report", d.Events[0].Title)
		assert.Equal(t, StatusPartial, d.Goals[0].Items[0].Status())
	})

	t.Run("rejects completed task", func(t *testing.T) {
		d := docWithTask("t1", 2)
		d.Goals[0].Items[0].setStatus(StatusCompleted)
		err := CreateBlock{TaskID: "t1", Start: mon}.Apply(d)
		assert.ErrorIs(t, err, ErrNotSchedulable)
		assert.Empty(t, d.Events)
	})

	t.Run("rejects scheduled task", func(t *testing.T) {
		d := docWithTask("t1", 1)
		require.NoError(t, CreateBlock{TaskID: "t1", Start: mon}.Apply(d))
		err := CreateBlock{TaskID: "t1", Start: mon.Add(2 * time.Hour)}.Apply(d)
		assert.ErrorIs(t, err, ErrNotSchedulable)
		assert.Len(t, d.Events, 1)
	})

	t.Run("unknown task", func(t *testing.T) {
		d := docWithTask("t1", 1)
		assert.ErrorIs(t, CreateBlock{TaskID: "nope", Start: mon}.Apply(d), ErrTaskNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		d := docWithTask("t1", 3)
		require.NoError(t, CreateBlock{ID: "b1", TaskID: "t1", Start: mon}.Apply(d))
		err := CreateBlock{ID: "b1", TaskID: "t1", Start: mon.Add(time.Hour)}.Apply(d)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Len(t, d.Events, 1)
	})
}

func TestMoveAndResizeBlock(t *testing.T) {
	mon := At(2026, time.October, 19, 9, 0)
	d := docWithTask("t1", 3)
	d.Events = []Event{
		block("e1", "t1", mon, 1.5),
		block("e2", "t1", mon.Add(4*time.Hour), 1),
	}

	require.NoError(t, MoveBlock{EventID: "e1", Start: mon.Add(6 * time.Hour)}.Apply(d))
	assert.Equal(t, "e2", d.Events[0].ID)
	moved, _ := d.FindEvent("e1")
	assert.Equal(t, mon.Add(6*time.Hour), moved.Start)
	assert.InDelta(t, 1.5, moved.Hours(), 1e-9, "move keeps duration")
	assertSorted(t, d.Events)

	require.NoError(t, ResizeBlock{EventID: "e2", End: mon.Add(6 * time.Hour)}.Apply(d))
	resized, _ := d.FindEvent("e2")
	assert.InDelta(t, 2.0, resized.Hours(), 1e-9)
	assert.Equal(t, StatusScheduled, d.Goals[0].Items[0].Status())

	err := ResizeBlock{EventID: "e2", End: resized.Start}.Apply(d)
	assert.ErrorIs(t, err, ErrInvalidRange)

	assert.ErrorIs(t, MoveBlock{EventID: "missing", Start: mon}.Apply(d), ErrEventNotFound)
	assert.ErrorIs(t, DeleteBlock{EventID: "missing"}.Apply(d), ErrEventNotFound)
}
