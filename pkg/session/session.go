// Package session owns the Document of one editing session. Every mutation
// goes through it so that statuses are reconciled, the file is written once per
// gesture, and the raw-text and structured views never diverge.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

// Mode is the active editing surface.
type Mode int

const (
	ModeStructured Mode = iota
	ModeRaw
)

func (m Mode) String() string {
	if m == ModeRaw {
		return "raw"
	}
	return "structured"
}

var (
	// ErrRawMode indicates a structured mutation was attempted while raw text is being edited.
	ErrRawMode = errors.New("document is being edited as text")
	// ErrSyncInFlight indicates a sync was requested while another is running.
	ErrSyncInFlight = errors.New("sync already in progress")
	// ErrNotRawMode indicates LeaveRaw was called outside raw mode.
	ErrNotRawMode = errors.New("not in raw edit mode")
	// ErrUnsaved is returned by Reload while the document holds changes that
	// could not be written.
	ErrUnsaved = errors.New("unsaved changes")
)

// PersistenceError reports a failed write. The in-memory document stays the working copy.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return "saving " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *PersistenceError) Unwrap() error { return e.Err }

// Persister writes the document text.
type Persister interface {
	Persist(text string) error
	Path() string
}

// Fetcher produces a batch of external fixed events.
type Fetcher interface {
	Fetch(ctx context.Context) ([]plan.RawEvent, error)
}

// Session is the single owner of a Document.
type Session struct {
	doc       *plan.Document
	text      string // last text successfully parsed or written
	dirty     bool   // doc has changes not reflected in text
	mode      Mode
	persister Persister
	logger    *slog.Logger
	syncing   atomic.Bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New parses text into a session. Invalid text returns a *plan.ParseError.
func New(text string, p Persister, opts ...Option) (*Session, error) {
	doc, err := plan.Parse(text)
	if err != nil {
		return nil, err
	}
	s := &Session{
		doc:       doc,
		text:      text,
		persister: p,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Document returns the current document. Callers must treat it as read-only.
func (s *Session) Document() *plan.Document { return s.doc }

// Mode returns the active editing surface.
func (s *Session) Mode() Mode { return s.mode }

// Dirty reports whether the last write failed and the file is behind the document.
func (s *Session) Dirty() bool { return s.dirty }

// Syncing reports whether an external sync is in flight.
func (s *Session) Syncing() bool { return s.syncing.Load() }

// Dispatch applies one calendar gesture and writes the document once.
func (s *Session) Dispatch(cmd plan.Command) error {
	if s.mode == ModeRaw {
		return ErrRawMode
	}
	snapshot := s.doc.Clone()
	if err := cmd.Apply(s.doc); err != nil {
		s.doc = snapshot
		s.logger.Debug("command rejected", "command", cmd.Name(), "error", err)
		return err
	}
	s.logger.Info("command applied", "command", cmd.Name(), "events", len(s.doc.Events))
	return s.persist()
}

// AddTask appends a pool task to a role and writes the document.
func (s *Session) AddTask(role, title string, hours float64) (*plan.Task, error) {
	if s.mode == ModeRaw {
		return nil, ErrRawMode
	}
	task, err := s.doc.AddTask(role, title, hours)
	if err != nil {
		return nil, err
	}
	s.logger.Info("task added", "role", role, "task", task.ID)
	return task, s.persist()
}

// CycleStatus advances a task's manual status and writes the document.
func (s *Session) CycleStatus(taskID string) (plan.Status, error) {
	if s.mode == ModeRaw {
		return "", ErrRawMode
	}
	status, err := s.doc.CycleStatus(taskID)
	if err != nil {
		return "", err
	}
	s.logger.Info("status cycled", "task", taskID, "status", status)
	return status, s.persist()
}

// EnterRaw switches to raw-text editing and returns the text to edit.
// When the file is in step with the document the stored text is returned
// untouched so user formatting and comments survive.
func (s *Session) EnterRaw() (string, error) {
	text := s.text
	if s.dirty {
		serialized, err := plan.Serialize(s.doc)
		if err != nil {
			return "", err
		}
		text = serialized
	}
	s.mode = ModeRaw
	s.logger.Debug("entered raw mode")
	return text, nil
}

// LeaveRaw validates edited text and, if it parses, rebuilds the document from
// it and writes the text verbatim. On a parse error the session stays in raw
// mode and the document is untouched. A write failure still switches modes.
func (s *Session) LeaveRaw(text string) error {
	if s.mode != ModeRaw {
		return ErrNotRawMode
	}
	doc, err := plan.Parse(text)
	if err != nil {
		s.logger.Warn("raw edit rejected", "error", err)
		return err
	}
	s.doc = doc
	s.mode = ModeStructured
	s.logger.Info("raw edit applied", "goals", len(doc.Goals), "events", len(doc.Events))
	return s.write(text)
}

// CancelRaw discards raw edits and returns to the structured view.
func (s *Session) CancelRaw() {
	s.mode = ModeStructured
}

// Reload replaces the document with text read back from disk. Invalid text
// leaves the document as it was, and so does a document with unsaved changes.
func (s *Session) Reload(text string) error {
	if s.mode == ModeRaw {
		return ErrRawMode
	}
	if s.dirty {
		return ErrUnsaved
	}
	if text == s.text {
		return nil
	}
	doc, err := plan.Parse(text)
	if err != nil {
		return err
	}
	s.doc = doc
	s.text = text
	s.dirty = false
	s.logger.Info("reloaded from disk", "goals", len(doc.Goals), "events", len(doc.Events))
	return nil
}

// BeginSync claims the single sync slot.
func (s *Session) BeginSync() error {
	if !s.syncing.CompareAndSwap(false, true) {
		return ErrSyncInFlight
	}
	s.logger.Info("sync started")
	return nil
}

// FinishSync merges a fetched batch and releases the sync slot. A fetch error
// or a malformed batch leaves the document unchanged.
func (s *Session) FinishSync(events []plan.RawEvent, fetchErr error) error {
	defer s.syncing.Store(false)

	if fetchErr != nil {
		s.logger.Warn("sync failed", "error", fetchErr)
		return fetchErr
	}
	if s.mode == ModeRaw {
		return ErrRawMode
	}
	if err := plan.MergeExternal(s.doc, events); err != nil {
		s.logger.Warn("sync merge rejected", "error", err)
		return err
	}
	s.logger.Info("sync finished", "fixed_events", len(events))
	return s.persist()
}

// Sync fetches and merges in one call.
func (s *Session) Sync(ctx context.Context, f Fetcher) error {
	if err := s.BeginSync(); err != nil {
		return err
	}
	events, err := f.Fetch(ctx)
	return s.FinishSync(events, err)
}

func (s *Session) persist() error {
	text, err := plan.Serialize(s.doc)
	if err != nil {
		s.dirty = true
		return &PersistenceError{Path: s.path(), Err: err}
	}
	return s.write(text)
}

func (s *Session) write(text string) error {
	if err := s.persister.Persist(text); err != nil {
		s.dirty = true
		s.logger.Error("write failed", "path", s.path(), "error", err)
		return &PersistenceError{Path: s.path(), Err: err}
	}
	s.text = text
	s.dirty = false
	return nil
}

func (s *Session) path() string {
	if s.persister == nil {
		return ""
	}
	return s.persister.Path()
}
