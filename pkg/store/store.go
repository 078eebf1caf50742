package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

// ErrWeekExists is returned by CreateWeek when the week file is already present.
var ErrWeekExists = errors.New("week already exists")

const weekExt = ".md"

// Store manages the filesystem-backed week documents.
type Store struct {
	Root string // e.g., ~/.local/share/weekplan
}

// NewStore creates a Store rooted at the given directory.
// It creates the directory structure if it doesn't exist.
func NewStore(root string) (*Store, error) {
	weeksDir := filepath.Join(root, "weeks")
	if err := os.MkdirAll(weeksDir, 0755); err != nil {
		return nil, fmt.Errorf("creating weeks directory: %w", err)
	}
	return &Store{Root: root}, nil
}

// WeeksDir returns the path to the weeks directory.
func (s *Store) WeeksDir() string {
	return filepath.Join(s.Root, "weeks")
}

// WeekPath returns the path of the document for a week label.
func (s *Store) WeekPath(label string) string {
	return filepath.Join(s.WeeksDir(), label+weekExt)
}

// Week returns a handle on one week's document.
func (s *Store) Week(label string) *WeekFile {
	return &WeekFile{path: s.WeekPath(label)}
}

// CreateWeek writes the default skeleton for a week. If the file already
// exists it is left untouched and ErrWeekExists is returned.
func (s *Store) CreateWeek(label string, roles []string) (*WeekFile, error) {
	if strings.TrimSpace(label) == "" {
		return nil, &plan.ValidationError{Field: "week", Err: errors.New("week label is required")}
	}
	w := s.Week(label)
	if _, err := os.Stat(w.path); err == nil {
		return w, fmt.Errorf("%s: %w", label, ErrWeekExists)
	}

	content, err := plan.Serialize(plan.NewDocument(label, roles))
	if err != nil {
		return nil, fmt.Errorf("serializing week %s: %w", label, err)
	}
	if err := w.Persist(content); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWeeks returns the labels of all stored weeks, newest first.
func (s *Store) ListWeeks() ([]string, error) {
	entries, err := os.ReadDir(s.WeeksDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading weeks directory: %w", err)
	}

	var labels []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != weekExt {
			continue
		}
		labels = append(labels, strings.TrimSuffix(entry.Name(), weekExt))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(labels)))
	return labels, nil
}

// WeekFile is the on-disk text of one week.
type WeekFile struct {
	path string
}

// Path returns the file path.
func (w *WeekFile) Path() string { return w.path }

// Exists reports whether the file is present.
func (w *WeekFile) Exists() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

// Load reads the raw text of the week.
func (w *WeekFile) Load() (string, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(w.path), err)
	}
	return string(data), nil
}

// Persist replaces the file contents. The text is written to a sibling temp
// file and renamed so a crash never leaves a half-written week.
func (w *WeekFile) Persist(text string) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating weeks directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(w.path), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(w.path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(w.path), err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(w.path), err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(w.path), err)
	}
	return nil
}
