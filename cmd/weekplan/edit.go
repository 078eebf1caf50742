package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/weekplan/pkg/plan"
	"github.com/stefanpenner/weekplan/pkg/session"
)

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the week file in $EDITOR; the result is saved only if it parses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf := a.store.Week(a.cfg.Week)
			if !wf.Exists() {
				return fmt.Errorf("week %s does not exist (run `weekplan new --week %s`)", a.cfg.Week, a.cfg.Week)
			}
			text, err := wf.Load()
			if err != nil {
				return err
			}

			// A file that no longer parses can still be repaired here; it
			// just has no session to guard the edit.
			var perr *plan.ParseError
			sess, err := session.New(text, wf, session.WithLogger(a.logger))
			if errors.As(err, &perr) {
				a.logger.Warn("week file does not parse; editing raw text", "path", wf.Path(), "error", err)
				sess = nil
			} else if err != nil {
				return err
			}
			if sess != nil {
				if text, err = sess.EnterRaw(); err != nil {
					return err
				}
			}

			tmp, err := writeTemp(a.cfg.Week, text)
			if err != nil {
				return err
			}
			if err := runEditor(cmd, tmp); err != nil {
				os.Remove(tmp)
				return fmt.Errorf("editor: %w", err)
			}
			data, err := os.ReadFile(tmp)
			if err != nil {
				return err
			}

			if sess != nil {
				err = sess.LeaveRaw(string(data))
			} else if _, err = plan.Parse(string(data)); err == nil {
				err = wf.Persist(string(data))
			}
			if errors.As(err, &perr) {
				if sess != nil {
					sess.CancelRaw()
				}
				return fmt.Errorf("%w (your edit is kept in %s)", err, tmp)
			}
			os.Remove(tmp)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, map[string]string{"saved": wf.Path()})
			}
			fmt.Fprintf(out, "Saved: %s\n", wf.Path())
			return nil
		},
	}
}

func writeTemp(week, text string) (string, error) {
	f, err := os.CreateTemp("", "weekplan-"+week+"-*.md")
	if err != nil {
		return "", err
	}
	_, err = f.WriteString(text)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func runEditor(cmd *cobra.Command, path string) error {
	editor := strings.Fields(os.Getenv("EDITOR"))
	if len(editor) == 0 {
		editor = []string{"vim"}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c := exec.CommandContext(ctx, editor[0], append(editor[1:], path)...)
	c.Stdin = os.Stdin
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	return c.Run()
}
