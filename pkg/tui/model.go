package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/stefanpenner/weekplan/pkg/plan"
	"github.com/stefanpenner/weekplan/pkg/session"
)

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// SyncDoneMsg is sent when the external fetch completes.
type SyncDoneMsg struct {
	Events []plan.RawEvent
	Err    error
}

// EditorFinishedMsg is sent when $EDITOR returns.
type EditorFinishedMsg struct {
	Path string
	Err  error
}

// Source reads the week text back from disk.
type Source interface {
	Load() (string, error)
	Path() string
}

const (
	shiftStep  = 30 * time.Minute
	statusLife = 3 * time.Second
)

type promptKind int

const (
	promptNone promptKind = iota
	promptTaskTitle
	promptTaskEstimate
	promptBlockStart
)

const (
	paneTasks = iota
	paneAgenda
)

// Options wires a Model to its session and host.
type Options struct {
	Session    *session.Session
	Source     Source
	Fetcher    session.Fetcher
	Week       string
	Roles      []string
	BlockColor string
	Context    context.Context
	Logger     *slog.Logger
}

// Model is the Bubble Tea model for the week planner.
type Model struct {
	sess       *session.Session
	source     Source
	fetcher    session.Fetcher
	ctx        context.Context
	logger     *slog.Logger
	week       string
	weekStart  plan.Timestamp
	roles      []string
	blockColor string

	keys   KeyMap
	width  int
	height int

	rows        []TaskRow
	agenda      []AgendaRow
	taskCursor  int
	eventCursor int
	focusedPane int
	showNotes   bool
	notesScroll int

	// Modal state
	showHelpModal     bool
	showDeleteConfirm bool
	deleteTarget      plan.Event

	// Prompt state (add task, schedule block)
	prompt        promptKind
	textInput     textinput.Model
	pendingRole   string
	pendingTitle  string
	pendingTaskID string

	// Raw text editing
	isRawEditing bool
	rawEditor    textarea.Model

	// Search state
	isSearching bool
	searchQuery string

	// Status message
	statusMsg     string
	statusTimeout time.Time

	// Cached glamour renderer (expensive to create)
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
}

// NewModel creates a new TUI model.
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 120

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	color := opts.BlockColor
	if color == "" {
		color = plan.DefaultBlockColor
	}
	start, _ := plan.WeekStart(opts.Week)

	m := Model{
		sess:       opts.Session,
		source:     opts.Source,
		fetcher:    opts.Fetcher,
		ctx:        ctx,
		logger:     logger,
		week:       opts.Week,
		weekStart:  start,
		roles:      opts.Roles,
		blockColor: color,
		keys:       DefaultKeyMap(),
		textInput:  ti,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.getGlamourRenderer(m.rightWidth() - 2)
		if m.isRawEditing {
			m.sizeRawEditor()
		}
		return m, tea.ClearScreen

	case FileChangedMsg:
		m.reloadFromDisk(false)
		return m, nil

	case SyncDoneMsg:
		if err := m.sess.FinishSync(msg.Events, msg.Err); err != nil {
			m.reportError("Sync failed", err)
		} else {
			m.setStatus(fmt.Sprintf("Synced %d fixed events", len(msg.Events)))
		}
		m.refresh()
		return m, nil

	case EditorFinishedMsg:
		return m.finishExternalEdit(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.prompt != promptNone {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	if m.isRawEditing {
		var cmd tea.Cmd
		m.rawEditor, cmd = m.rawEditor.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		return m.handlePrompt(msg)
	}

	if m.isRawEditing {
		return m.handleRawEdit(msg)
	}

	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	// Help modal
	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	// Delete confirmation
	if m.showDeleteConfirm {
		switch msg.String() {
		case "y", "Y":
			target := m.deleteTarget
			if m.dispatch(plan.DeleteBlock{EventID: target.ID}) {
				m.setStatus("Deleted: " + target.Title)
			}
			m.showDeleteConfirm = false
		case "n", "N", "esc":
			m.showDeleteConfirm = false
		}
		return m, nil
	}

	// An active search filter is cleared by Esc/Enter
	if m.searchQuery != "" && (msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter) {
		m.searchQuery = ""
		m.refresh()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)

	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = (m.focusedPane + 1) % 2
		m.notesScroll = 0

	case key.Matches(msg, m.keys.Space):
		if row, ok := m.selectedTask(); ok {
			status, err := m.sess.CycleStatus(row.ID)
			if err != nil {
				m.reportError("Error", err)
			} else {
				m.setStatus(row.Name + " → " + string(status))
			}
			m.refresh()
		}

	case key.Matches(msg, m.keys.Add):
		m.pendingRole = m.currentRole()
		m.startPrompt(promptTaskTitle, "new task in "+m.pendingRole)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Schedule):
		row, ok := m.selectedTask()
		if !ok {
			m.setStatus("Select a task to schedule")
			break
		}
		if !row.Task.Status().Schedulable() {
			m.setStatus(fmt.Sprintf("%s is %s and cannot be scheduled", row.Name, row.Task.Status()))
			break
		}
		m.pendingTaskID = row.ID
		m.startPrompt(promptBlockStart, "start, e.g. tue 09:00")
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Later):
		m.shiftSelected(shiftStep)

	case key.Matches(msg, m.keys.Earlier):
		m.shiftSelected(-shiftStep)

	case key.Matches(msg, m.keys.NextDay):
		m.shiftSelected(24 * time.Hour)

	case key.Matches(msg, m.keys.PrevDay):
		m.shiftSelected(-24 * time.Hour)

	case key.Matches(msg, m.keys.Grow):
		m.resizeSelected(shiftStep)

	case key.Matches(msg, m.keys.Shrink):
		m.resizeSelected(-shiftStep)

	case key.Matches(msg, m.keys.Delete):
		ev, ok := m.selectedEvent()
		if !ok {
			m.setStatus("Select a block in the agenda to delete")
			break
		}
		if ev.IsFixed() {
			m.setStatus("Fixed events are read-only")
			break
		}
		m.deleteTarget = ev
		m.showDeleteConfirm = true

	case key.Matches(msg, m.keys.RawEdit):
		text, err := m.sess.EnterRaw()
		if err != nil {
			m.reportError("Error", err)
			break
		}
		m.startRawEditor(text)
		return m, textarea.Blink

	case key.Matches(msg, m.keys.ExternalEdit):
		return m, m.openEditor()

	case key.Matches(msg, m.keys.Notes):
		m.showNotes = !m.showNotes
		m.notesScroll = 0

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.searchQuery = ""
		m.focusedPane = paneTasks

	case key.Matches(msg, m.keys.Reload):
		m.reloadFromDisk(true)

	case key.Matches(msg, m.keys.Sync):
		if err := m.sess.BeginSync(); err != nil {
			m.reportError("Sync", err)
			break
		}
		m.setStatus("Syncing…")
		return m, m.doSync()

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = !m.showHelpModal
	}

	return m, nil
}

// handlePrompt handles key messages while a one-line prompt is open.
func (m Model) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = promptNone
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.textInput.Value())
		switch m.prompt {
		case promptTaskTitle:
			if value == "" {
				m.setStatus("Title is required")
				m.prompt = promptNone
				return m, nil
			}
			m.pendingTitle = value
			m.startPrompt(promptTaskEstimate, "estimated hours (default 1)")
			return m, textinput.Blink

		case promptTaskEstimate:
			hours := plan.DefaultEstimate
			if value != "" {
				v, err := strconv.ParseFloat(value, 64)
				if err != nil || v <= 0 {
					m.setStatus("Estimate must be a positive number of hours")
					return m, nil
				}
				hours = v
			}
			task, err := m.sess.AddTask(m.pendingRole, m.pendingTitle, hours)
			if err != nil {
				m.reportError("Add failed", err)
			} else {
				m.setStatus("Added: " + task.Title)
			}
			m.prompt = promptNone
			m.refresh()
			if task != nil {
				m.selectTask(task.ID)
			}
			return m, nil

		case promptBlockStart:
			start, err := plan.ParseInWeek(value, m.weekStart)
			if err != nil {
				m.setStatus(err.Error())
				return m, nil
			}
			id := plan.NewID()
			m.prompt = promptNone
			if m.dispatch(plan.CreateBlock{ID: id, TaskID: m.pendingTaskID, Start: start, Color: m.blockColor}) {
				m.setStatus("Scheduled " + start.Format("Mon 15:04"))
				m.focusedPane = paneAgenda
				m.selectEvent(id)
			}
			return m, nil
		}
		m.prompt = promptNone
		return m, nil

	default:
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}
}

// handleRawEdit handles key messages while the week is edited as text.
func (m Model) handleRawEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		err := m.sess.LeaveRaw(m.rawEditor.Value())
		var perr *plan.ParseError
		if errors.As(err, &perr) {
			m.setStatus(perr.Error() + " (ctrl+c discards)")
			return m, nil
		}
		m.stopRawEditor()
		if err != nil {
			m.reportError("Applied but not saved", err)
		} else {
			m.setStatus("Applied")
		}
		m.refresh()
		return m, nil

	case tea.KeyCtrlC:
		m.sess.CancelRaw()
		m.stopRawEditor()
		m.setStatus("Edit discarded")
		return m, nil

	default:
		var cmd tea.Cmd
		m.rawEditor, cmd = m.rawEditor.Update(msg)
		return m, cmd
	}
}

// handleSearchInput handles key messages while typing in the search bar.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.searchQuery = ""
		m.refresh()
		return m, nil

	case tea.KeyEnter, tea.KeyDown, tea.KeyTab:
		// Keep the filter, leave the search bar
		m.isSearching = false
		return m, nil

	case tea.KeyBackspace:
		if len(m.searchQuery) > 0 {
			_, size := utf8.DecodeLastRuneInString(m.searchQuery)
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-size]
		}
		m.refresh()
		return m, nil

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.searchQuery += string(msg.Runes)
			m.refresh()
		}
		return m, nil
	}
}

func (m *Model) startPrompt(kind promptKind, placeholder string) {
	m.prompt = kind
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.Focus()
}

func (m *Model) startRawEditor(text string) {
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetValue(text)
	m.rawEditor = ta
	m.isRawEditing = true
	m.sizeRawEditor()
	m.rawEditor.Focus()
}

func (m *Model) stopRawEditor() {
	m.isRawEditing = false
	m.rawEditor.Blur()
}

func (m *Model) sizeRawEditor() {
	w := m.width
	if w < minWidth {
		w = minWidth
	}
	h := m.height - 5
	if h < 3 {
		h = 3
	}
	m.rawEditor.SetWidth(w)
	m.rawEditor.SetHeight(h)
}

// dispatch applies a command through the session and refreshes the view.
// It reports whether the command was applied.
func (m *Model) dispatch(cmd plan.Command) bool {
	err := m.sess.Dispatch(cmd)
	m.refresh()
	if err == nil {
		return true
	}
	var perr *session.PersistenceError
	if errors.As(err, &perr) {
		m.reportError("Not saved", err)
		return true
	}
	m.reportError("Error", err)
	return false
}

func (m *Model) shiftSelected(d time.Duration) {
	ev, ok := m.selectedEvent()
	if !ok {
		return
	}
	if m.dispatch(plan.MoveBlock{EventID: ev.ID, Start: ev.Start.Add(d)}) {
		m.selectEvent(ev.ID)
	}
}

func (m *Model) resizeSelected(d time.Duration) {
	ev, ok := m.selectedEvent()
	if !ok {
		return
	}
	if m.dispatch(plan.ResizeBlock{EventID: ev.ID, End: ev.End.Add(d)}) {
		m.selectEvent(ev.ID)
	}
}

// reportError turns an operation error into a status notice.
func (m *Model) reportError(prefix string, err error) {
	m.logger.Warn(prefix, "error", err)

	var perr *session.PersistenceError
	switch {
	case errors.Is(err, plan.ErrFixedEvent):
		m.setStatus("Fixed events are read-only")
	case errors.Is(err, session.ErrSyncInFlight):
		m.setStatus("Sync already in progress")
	case errors.Is(err, session.ErrRawMode):
		m.setStatus("Finish editing the text first")
	case errors.Is(err, session.ErrUnsaved):
		m.setStatus("Unsaved changes; file on disk not loaded until the next save")
	case errors.As(err, &perr):
		m.setStatus(prefix + ": " + perr.Err.Error() + " (changes kept in memory)")
	default:
		m.setStatus(prefix + ": " + err.Error())
	}
}

func (m *Model) reloadFromDisk(explicit bool) {
	if m.sess.Mode() == session.ModeRaw {
		m.setStatus("Week file changed on disk; finish editing to reload")
		return
	}
	if m.source == nil {
		return
	}
	text, err := m.source.Load()
	if err != nil {
		m.reportError("Load error", err)
		return
	}
	if err := m.sess.Reload(text); err != nil {
		m.reportError("File on disk not loaded", err)
		return
	}
	m.refresh()
	if explicit {
		m.setStatus("Reloaded")
	}
}

// refresh re-projects the session document, keeping the selection by ID.
func (m *Model) refresh() {
	var taskID, eventID string
	if m.taskCursor < len(m.rows) {
		taskID = m.rows[m.taskCursor].ID
	}
	if m.eventCursor < len(m.agenda) {
		eventID = m.agenda[m.eventCursor].ID
	}

	doc := m.sess.Document()
	m.rows = FilterTaskRows(BuildTaskRows(doc), m.searchQuery)
	m.agenda = BuildAgenda(doc.Events)

	m.selectTask(taskID)
	m.selectEvent(eventID)
}

func (m *Model) selectTask(id string) {
	for i, r := range m.rows {
		if r.ID == id && !r.IsSectionHeader {
			m.taskCursor = i
			return
		}
	}
	m.taskCursor = settle(m.taskCursor, len(m.rows), func(i int) bool { return m.rows[i].IsSectionHeader })
}

func (m *Model) selectEvent(id string) {
	for i, r := range m.agenda {
		if r.ID == id && !r.IsDayHeader {
			m.eventCursor = i
			return
		}
	}
	m.eventCursor = settle(m.eventCursor, len(m.agenda), func(i int) bool { return m.agenda[i].IsDayHeader })
}

func (m *Model) moveCursor(delta int) {
	if m.showNotes && m.focusedPane == paneAgenda {
		m.notesScroll += delta
		if m.notesScroll < 0 {
			m.notesScroll = 0
		}
		return
	}
	if m.focusedPane == paneAgenda {
		m.eventCursor = step(m.eventCursor, delta, len(m.agenda), func(i int) bool { return m.agenda[i].IsDayHeader })
		return
	}
	m.taskCursor = step(m.taskCursor, delta, len(m.rows), func(i int) bool { return m.rows[i].IsSectionHeader })
}

// step moves from cur by delta to the next non-header row, staying put at the ends.
func step(cur, delta, n int, header func(int) bool) int {
	for i := cur + delta; i >= 0 && i < n; i += delta {
		if !header(i) {
			return i
		}
	}
	return cur
}

// settle clamps cur into range and moves it off a header row.
func settle(cur, n int, header func(int) bool) int {
	if n == 0 {
		return 0
	}
	if cur >= n {
		cur = n - 1
	}
	if cur < 0 {
		cur = 0
	}
	if !header(cur) {
		return cur
	}
	if next := step(cur, 1, n, header); next != cur {
		return next
	}
	return step(cur, -1, n, header)
}

func (m Model) selectedTask() (TaskRow, bool) {
	if m.taskCursor < len(m.rows) && !m.rows[m.taskCursor].IsSectionHeader {
		return m.rows[m.taskCursor], true
	}
	return TaskRow{}, false
}

func (m Model) selectedEvent() (plan.Event, bool) {
	if m.focusedPane != paneAgenda {
		return plan.Event{}, false
	}
	if m.eventCursor < len(m.agenda) && !m.agenda[m.eventCursor].IsDayHeader {
		return m.agenda[m.eventCursor].Event, true
	}
	return plan.Event{}, false
}

// currentRole is the role of the selected row, else the first known role.
func (m Model) currentRole() string {
	if m.taskCursor < len(m.rows) {
		return m.rows[m.taskCursor].Role
	}
	if goals := m.sess.Document().Goals; len(goals) > 0 {
		return goals[0].Role
	}
	if len(m.roles) > 0 {
		return m.roles[0]
	}
	return "Personal"
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimeout = time.Now().Add(statusLife)
}

// openEditor hands the week text to $EDITOR through a temp file. The result
// goes back through the raw-mode guard when the editor exits.
func (m *Model) openEditor() tea.Cmd {
	text, err := m.sess.EnterRaw()
	if err != nil {
		m.reportError("Error", err)
		return nil
	}

	f, err := os.CreateTemp("", "weekplan-"+m.week+"-*.md")
	if err == nil {
		_, err = f.WriteString(text)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		m.sess.CancelRaw()
		m.reportError("Editor", err)
		return nil
	}

	editor := strings.Fields(os.Getenv("EDITOR"))
	if len(editor) == 0 {
		editor = []string{"vim"}
	}
	path := f.Name()
	c := exec.Command(editor[0], append(editor[1:], path)...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return EditorFinishedMsg{Path: path, Err: err}
	})
}

func (m Model) finishExternalEdit(msg EditorFinishedMsg) (tea.Model, tea.Cmd) {
	defer os.Remove(msg.Path)

	if msg.Err != nil {
		m.sess.CancelRaw()
		m.reportError("Editor", msg.Err)
		return m, nil
	}
	data, err := os.ReadFile(msg.Path)
	if err != nil {
		m.sess.CancelRaw()
		m.reportError("Editor", err)
		return m, nil
	}

	err = m.sess.LeaveRaw(string(data))
	var perr *plan.ParseError
	if errors.As(err, &perr) {
		// Keep the edit: fix it inline.
		m.startRawEditor(string(data))
		m.setStatus(perr.Error() + " (esc applies, ctrl+c discards)")
		return m, textarea.Blink
	}
	if err != nil {
		m.reportError("Applied but not saved", err)
	} else {
		m.setStatus("Saved")
	}
	m.refresh()
	return m, nil
}

func (m Model) doSync() tea.Cmd {
	fetcher, ctx := m.fetcher, m.ctx
	return func() tea.Msg {
		if fetcher == nil {
			return SyncDoneMsg{Err: &plan.SyncError{Op: "run", Err: errors.New("no sync command configured")}}
		}
		events, err := fetcher.Fetch(ctx)
		return SyncDoneMsg{Events: events, Err: err}
	}
}
