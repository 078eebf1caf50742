package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/weekplan/pkg/plan"
	"github.com/stefanpenner/weekplan/pkg/session"
)

const modelWeek = `---
week: 2026-W43
insight: Protect mornings for deep work.
goals:
  - role: Work
    items:
      - {id: t1, title: Write report, estimated_hours: 2}
events:
  - {id: o1, type: outlook, title: Standup, start: "2026-10-19T08:30:00", end: "2026-10-19T08:45:00"}
---

Notes body.
`

type memFile struct {
	text   string
	writes int
	err    error
}

func (f *memFile) Persist(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	f.writes++
	return nil
}

func (f *memFile) Load() (string, error) { return f.text, nil }
func (f *memFile) Path() string          { return "/tmp/weeks/2026-W43.md" }

type staticFetcher struct {
	events []plan.RawEvent
	err    error
}

func (f staticFetcher) Fetch(ctx context.Context) ([]plan.RawEvent, error) {
	return f.events, f.err
}

func newTestModel(t *testing.T) (Model, *session.Session, *memFile) {
	t.Helper()
	file := &memFile{text: modelWeek}
	sess, err := session.New(modelWeek, file)
	require.NoError(t, err)
	m := NewModel(Options{
		Session: sess,
		Source:  file,
		Fetcher: staticFetcher{},
		Week:    "2026-W43",
		Roles:   []string{"Work"},
	})
	return m, sess, file
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModelStartsOnFirstTask(t *testing.T) {
	m, _, _ := newTestModel(t)
	row, ok := m.selectedTask()
	require.True(t, ok)
	assert.Equal(t, "t1", row.ID)
	assert.NotEmpty(t, m.View())
}

func TestModelAddTask(t *testing.T) {
	m, sess, file := newTestModel(t)

	m = press(t, m,
		keyRunes("a"),
		keyRunes("Plan offsite"),
		tea.KeyMsg{Type: tea.KeyEnter},
		keyRunes("3"),
		tea.KeyMsg{Type: tea.KeyEnter},
	)

	assert.Equal(t, promptNone, m.prompt)
	tasks := sess.Document().Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "Plan offsite", tasks[1].Title)
	assert.Equal(t, 3.0, tasks[1].EstimatedHours)
	assert.Equal(t, 1, file.writes)

	row, ok := m.selectedTask()
	require.True(t, ok)
	assert.Equal(t, tasks[1].ID, row.ID)
}

func TestModelAddTaskEmptyTitleWritesNothing(t *testing.T) {
	m, sess, file := newTestModel(t)
	m = press(t, m, keyRunes("a"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, promptNone, m.prompt)
	assert.Equal(t, "Title is required", m.statusMsg)
	assert.Len(t, sess.Document().Tasks(), 1)
	assert.Zero(t, file.writes)
}

func TestModelScheduleMoveAndDelete(t *testing.T) {
	m, sess, file := newTestModel(t)

	m = press(t, m, keyRunes("s"), keyRunes("mon 10:00"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, sess.Document().Events, 2)
	assert.Equal(t, paneAgenda, m.focusedPane)

	ev, ok := m.selectedEvent()
	require.True(t, ok)
	assert.Equal(t, "t1", ev.TaskID)
	assert.Equal(t, plan.At(2026, 10, 19, 10, 0), ev.Start)
	task, _ := sess.Document().FindTask("t1")
	assert.Equal(t, plan.StatusPartial, task.Status())

	m = press(t, m, keyRunes("J"), keyRunes("+"), keyRunes("+"))
	moved, _ := sess.Document().FindEvent(ev.ID)
	assert.Equal(t, plan.At(2026, 10, 19, 10, 30), moved.Start)
	assert.Equal(t, plan.At(2026, 10, 19, 12, 30), moved.End)
	assert.Equal(t, plan.StatusScheduled, task.Status())

	m = press(t, m, keyRunes("d"))
	require.True(t, m.showDeleteConfirm)
	m = press(t, m, keyRunes("y"))
	assert.False(t, m.showDeleteConfirm)
	_, ok = sess.Document().FindEvent(ev.ID)
	assert.False(t, ok)
	assert.Equal(t, 5, file.writes, "one write per gesture")
}

func TestModelFixedEventIsReadOnly(t *testing.T) {
	m, sess, file := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})

	ev, ok := m.selectedEvent()
	require.True(t, ok)
	require.True(t, ev.IsFixed())

	m = press(t, m, keyRunes("J"))
	assert.Equal(t, "Fixed events are read-only", m.statusMsg)

	m = press(t, m, keyRunes("d"))
	assert.False(t, m.showDeleteConfirm)

	after, _ := sess.Document().FindEvent("o1")
	assert.Equal(t, ev, after)
	assert.Zero(t, file.writes)
}

func TestModelRawEditSyntaxErrorStaysInRawMode(t *testing.T) {
	m, sess, file := newTestModel(t)

	m = press(t, m, keyRunes("e"))
	require.True(t, m.isRawEditing)
	assert.Equal(t, modelWeek, m.rawEditor.Value())

	// Structured gestures are not reachable while editing text.
	m = press(t, m, keyRunes("s"))
	assert.Equal(t, promptNone, m.prompt)

	m.rawEditor.SetValue("---\ngoals: [\n---\n")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.isRawEditing)
	assert.Equal(t, session.ModeRaw, sess.Mode())
	assert.Contains(t, m.statusMsg, "parse error")
	assert.Len(t, sess.Document().Tasks(), 1)
	assert.Zero(t, file.writes)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.False(t, m.isRawEditing)
	assert.Equal(t, session.ModeStructured, sess.Mode())
}

func TestModelRawEditApplies(t *testing.T) {
	m, sess, file := newTestModel(t)

	m = press(t, m, keyRunes("e"))
	m.rawEditor.SetValue("week: 2026-W43\ngoals:\n  - role: Home\n    items:\n      - {id: h1, title: Fix sink}\n")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.isRawEditing)
	assert.Equal(t, session.ModeStructured, sess.Mode())
	assert.Equal(t, "Applied", m.statusMsg)
	require.Len(t, m.rows, 2)
	assert.Equal(t, "h1", m.rows[1].ID)
	assert.Contains(t, file.text, "Fix sink")
}

func TestModelSync(t *testing.T) {
	m, sess, _ := newTestModel(t)

	next, cmd := m.Update(keyRunes("S"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, sess.Syncing())

	// A second request while the first is in flight is refused.
	m = press(t, m, keyRunes("S"))
	assert.Equal(t, "Sync already in progress", m.statusMsg)

	m = press(t, m, SyncDoneMsg{Events: []plan.RawEvent{
		{ID: "o2", Title: "Planning", Start: "2026-10-20T09:00:00"},
	}})
	assert.False(t, sess.Syncing())
	_, ok := sess.Document().FindEvent("o1")
	assert.False(t, ok, "stale fixed events are replaced")
	_, ok = sess.Document().FindEvent("o2")
	assert.True(t, ok)
	assert.Equal(t, "Synced 1 fixed events", m.statusMsg)
}

func TestModelSyncFailureKeepsDocument(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = press(t, m, keyRunes("S"))
	m = press(t, m, SyncDoneMsg{Err: &plan.SyncError{Op: "run", Err: errors.New("exit status 1")}})

	assert.False(t, sess.Syncing())
	_, ok := sess.Document().FindEvent("o1")
	assert.True(t, ok)
	assert.Contains(t, m.statusMsg, "Sync failed")
}

func TestModelCycleStatus(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = press(t, m, keyRunes(" "))

	task, _ := sess.Document().FindTask("t1")
	assert.Equal(t, plan.StatusCompleted, task.Status())
	assert.Equal(t, "Write report → completed", m.statusMsg)
}

func TestModelFileChangedIgnoredInRawMode(t *testing.T) {
	m, sess, file := newTestModel(t)
	m = press(t, m, keyRunes("e"))

	file.text = "week: 2026-W43\ngoals: []\n"
	m = press(t, m, FileChangedMsg{})
	assert.Contains(t, m.statusMsg, "finish editing")
	assert.Len(t, sess.Document().Tasks(), 1)
}

func TestModelReloadFromDisk(t *testing.T) {
	m, sess, file := newTestModel(t)

	file.text = "week: 2026-W43\ngoals:\n  - role: Work\n    items: []\n"
	m = press(t, m, FileChangedMsg{})
	assert.Empty(t, sess.Document().Tasks())

	file.text = "---\nbroken"
	m = press(t, m, keyRunes("R"))
	assert.Contains(t, m.statusMsg, "File on disk not loaded")
	assert.Empty(t, sess.Document().Tasks())
}

func TestModelFileChangeKeepsUnsavedChanges(t *testing.T) {
	m, sess, file := newTestModel(t)
	file.err = errors.New("disk full")

	m = press(t, m, keyRunes(" "))
	require.True(t, sess.Dirty())

	file.text = "week: 2026-W43\ngoals: []\n"
	m = press(t, m, FileChangedMsg{})
	assert.Contains(t, m.statusMsg, "Unsaved changes")
	task, _ := sess.Document().FindTask("t1")
	require.NotNil(t, task)
	assert.Equal(t, plan.StatusCompleted, task.Status())
}

func TestModelSearch(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, keyRunes("/"), keyRunes("zzz"))
	assert.Empty(t, m.rows)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.rows, 2)
}
