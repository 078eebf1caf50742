// Package sync imports fixed events from an external calendar source.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

// ErrNoCommand is returned when no sync command is configured.
var ErrNoCommand = errors.New("no sync command configured (set sync.command)")

// Command runs an external executable that prints a JSON array of events.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string // appended to the current environment
}

// Fetch runs the command and decodes its stdout.
func (c *Command) Fetch(ctx context.Context) ([]plan.RawEvent, error) {
	if c.Path == "" {
		return nil, &plan.SyncError{Op: "run", Err: ErrNoCommand}
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &plan.SyncError{
			Op:     "run",
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    fmt.Errorf("%s: %w", c.Path, err),
		}
	}

	events, err := DecodeEvents(stdout.Bytes())
	if err != nil {
		var serr *plan.SyncError
		if errors.As(err, &serr) {
			serr.Stderr = strings.TrimSpace(stderr.String())
		}
		return nil, err
	}
	return events, nil
}

// DecodeEvents parses a JSON array of event records. Anything other than an
// array, including null, is rejected.
func DecodeEvents(data []byte) ([]plan.RawEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &plan.SyncError{Op: "decode", Err: errors.New("expected a JSON array of events")}
	}

	var events []plan.RawEvent
	if err := json.Unmarshal(trimmed, &events); err != nil {
		return nil, &plan.SyncError{Op: "decode", Err: err}
	}
	return events, nil
}
