package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWeek = `---
week: 2026-W43
insight: "Front-load the report."
goals:
  - role: Work
    items:
      - id: t1
        title: Write report
        estimated_hours: 2
        status: pool
      - id: t2
        title: Inbox zero
        estimated_hours: abc
        status: completed
  - role: Health
    items:
      - title: Run
        estimated_hours: 0.5
events:
  - id: e2
    taskId: t1
    type: task
    title: Write report
    start: 2026-10-19T13:00:00
    end: 2026-10-19T14:00:00
    color: "#7D56F4"
  - id: e1
    title: Legacy block
    start: "2026-10-19T09:00:00"
  - id: o1
    type: outlook
    title: Standup
    start: 2026-10-19T08:30:00
    end: 2026-10-19T08:45:00
---

# Notes

Remember the dentist.
`

func TestParseDocument(t *testing.T) {
	d, err := Parse(sampleWeek)
	require.NoError(t, err)

	assert.Equal(t, "2026-W43", d.Week)
	assert.Equal(t, "Front-load the report.", d.Insight)
	assert.Contains(t, d.Notes, "Remember the dentist.")

	require.Len(t, d.Goals, 2)
	work := d.Goals[0]
	assert.Equal(t, "Work", work.Role)
	require.Len(t, work.Items, 2)
	assert.Equal(t, StatusPartial, work.Items[0].Status(), "derived from the 1h block")
	assert.Equal(t, DefaultEstimate, work.Items[1].EstimatedHours, "unparseable estimate defaults")
	assert.Equal(t, StatusCompleted, work.Items[1].Status())

	run := d.Goals[1].Items[0]
	assert.NotEmpty(t, run.ID, "missing ids are filled in")
	assert.Equal(t, 0.5, run.EstimatedHours)

	require.Len(t, d.Events, 3)
	assert.Equal(t, []string{"o1", "e1", "e2"}, []string{d.Events[0].ID, d.Events[1].ID, d.Events[2].ID})

	legacy := d.Events[1]
	assert.Equal(t, "e1", legacy.TaskID, "legacy events link to themselves")
	assert.Equal(t, EventTask, legacy.Type)
	assert.Equal(t, At(2026, time.October, 19, 10, 0), legacy.End)
	assert.True(t, d.Events[0].IsFixed())
}

func TestParseMissingTaskIDsAreStable(t *testing.T) {
	a, err := Parse(sampleWeek)
	require.NoError(t, err)
	b, err := Parse(sampleWeek)
	require.NoError(t, err)
	assert.Equal(t, a.Goals[1].Items[0].ID, b.Goals[1].Items[0].ID)
}

func TestParseLegacyInsight(t *testing.T) {
	d, err := Parse("week: 2026-W43\nai_insight: Too many meetings.\n")
	require.NoError(t, err)
	assert.Equal(t, "Too many meetings.", d.Insight)
	assert.Empty(t, d.Goals)
	assert.Empty(t, d.Events)
}

func TestParseEmpty(t *testing.T) {
	d, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, d.Week)
	assert.Empty(t, d.Insight)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{
			name:     "unclosed frontmatter",
			input:    "---\nweek: 2026-W43\n",
			wantLine: 1,
		},
		{
			name:     "syntax error",
			input:    "---\nweek: 2026-W43\ngoals: [\n---\n",
			wantLine: 0,
		},
		{
			name:     "not a mapping",
			input:    "- one\n- two\n",
			wantLine: 1,
		},
		{
			name:     "event without start",
			input:    "---\nevents:\n  - id: e1\n    title: x\n---\n",
			wantLine: 3,
		},
		{
			name:     "duplicate event ids",
			input:    "events:\n  - id: e1\n    start: 2026-10-19T09:00:00\n  - id: e1\n    start: 2026-10-19T10:00:00\n",
			wantLine: 4,
		},
		{
			name:     "duplicate task ids",
			input:    "goals:\n  - role: Work\n    items:\n      - id: t1\n      - id: t1\n",
			wantLine: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			if tt.wantLine > 0 {
				assert.Equal(t, tt.wantLine, perr.Line)
			}
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	d, err := Parse(sampleWeek)
	require.NoError(t, err)

	text, err := Serialize(d)
	require.NoError(t, err)
	assert.Contains(t, text, "insight: Front-load the report.")
	assert.Contains(t, text, "taskId: t1")
	assert.Contains(t, text, "2026-10-19T13:00:00")
	assert.NotContains(t, text, "ai_insight")
	assert.Contains(t, text, "Remember the dentist.")

	again, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestNewDocumentSerializes(t *testing.T) {
	d := NewDocument("2026-W43", []string{"Work", "Personal"})
	text, err := Serialize(d)
	require.NoError(t, err)

	parsed, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "2026-W43", parsed.Week)
	require.Len(t, parsed.Goals, 2)
	assert.Equal(t, "Personal", parsed.Goals[1].Role)
	assert.Empty(t, parsed.Events)
}
