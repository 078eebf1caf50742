package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() []RawEvent {
	return []RawEvent{
		{ID: "o-standup", Title: "Standup", Start: "2026-10-20T09:00:00", End: "2026-10-20T09:15:00", Type: "outlook"},
		{ID: "o-review", Title: "Design review", Start: "2026-10-19T13:00:00", End: "2026-10-19T14:00:00", Color: "#E05252"},
		{Title: "Lunch", Start: "2026-10-21T12:00:00+02:00"},
	}
}

func taskEvents(events []Event) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == EventTask {
			out = append(out, e)
		}
	}
	return out
}

func TestMergeExternalEmptyBatchDropsFixedEvents(t *testing.T) {
	mon := At(2026, time.October, 19, 9, 0)
	d := docWithTask("t1", 2)
	d.Events = []Event{
		fixed("o1", mon, 1),
		block("e1", "t1", mon.Add(time.Hour), 1),
		fixed("o2", mon.Add(3*time.Hour), 1),
	}
	want := d.Events[1]

	require.NoError(t, MergeExternal(d, nil))
	require.Len(t, d.Events, 1)
	assert.Equal(t, want, d.Events[0])
}

func TestMergeExternalIsIdempotent(t *testing.T) {
	mon := At(2026, time.October, 19, 9, 0)
	d := docWithTask("t1", 2)
	d.Events = []Event{fixed("stale", mon, 1), block("e1", "t1", mon.Add(2*time.Hour), 1)}

	require.NoError(t, MergeExternal(d, sampleBatch()))
	once := d.Clone()

	require.NoError(t, MergeExternal(d, sampleBatch()))
	assert.Equal(t, once, d)

	_, ok := d.FindEvent("stale")
	assert.False(t, ok)
	assertSorted(t, d.Events)
}

func TestMergeExternalPreservesTaskBlocks(t *testing.T) {
	mon := At(2026, time.October, 19, 9, 0)
	d := docWithTask("t1", 2)
	d.Events = []Event{
		block("e1", "t1", mon, 1),
		block("e2", "t1", mon.Add(26*time.Hour), 1),
	}
	before := taskEvents(d.Events)

	require.NoError(t, MergeExternal(d, sampleBatch()))
	assert.Equal(t, before, taskEvents(d.Events))
	assert.Equal(t, StatusScheduled, d.Goals[0].Items[0].Status())
}

func TestMergeExternalDefaults(t *testing.T) {
	d := docWithTask("t1", 2)
	require.NoError(t, MergeExternal(d, sampleBatch()))
	require.Len(t, d.Events, 3)

	review := d.Events[0]
	assert.Equal(t, "o-review", review.ID)
	assert.Equal(t, EventOutlook, review.Type)
	assert.Equal(t, "#E05252", review.Color)

	lunch := d.Events[2]
	assert.Equal(t, "Lunch", lunch.Title)
	assert.NotEmpty(t, lunch.ID)
	assert.Equal(t, DefaultFixedColor, lunch.Color)
	assert.Equal(t, At(2026, time.October, 21, 12, 0), lunch.Start, "offset dropped, wall clock kept")
	assert.Equal(t, At(2026, time.October, 21, 13, 0), lunch.End)

	// Generated ids are stable between runs.
	again := docWithTask("t1", 2)
	require.NoError(t, MergeExternal(again, sampleBatch()))
	assert.Equal(t, lunch.ID, again.Events[2].ID)
}

func TestMergeExternalRejectsBadBatch(t *testing.T) {
	mon := At(2026, time.October, 19, 9, 0)
	tests := []struct {
		name  string
		batch []RawEvent
	}{
		{"missing start", []RawEvent{{ID: "x", Title: "No start"}}},
		{"bad end", []RawEvent{{ID: "x", Start: "2026-10-19T09:00:00", End: "soon"}}},
		{"end before start", []RawEvent{{ID: "x", Start: "2026-10-19T10:00:00", End: "2026-10-19T09:00:00"}}},
		{"empty range", []RawEvent{{ID: "x", Start: "2026-10-19T10:00:00", End: "2026-10-19T10:00:00"}}},
		{"duplicate ids", []RawEvent{
			{ID: "x", Start: "2026-10-19T09:00:00"},
			{ID: "x", Start: "2026-10-19T10:00:00"},
		}},
		{"collides with task block", []RawEvent{{ID: "e1", Start: "2026-10-19T09:00:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := docWithTask("t1", 2)
			d.Events = []Event{block("e1", "t1", mon, 1), fixed("o1", mon.Add(time.Hour), 1)}
			before := d.Clone()

			err := MergeExternal(d, tt.batch)
			var serr *SyncError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, "merge", serr.Op)
			assert.Equal(t, before, d)
		})
	}
}
