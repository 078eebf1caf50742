package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/weekplan/pkg/plan"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the week's fixed events with the output of sync.command",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession()
			if err != nil {
				return err
			}
			if err := sess.Sync(cmd.Context(), a.fetcher()); err != nil {
				var se *plan.SyncError
				if errors.As(err, &se) && se.Stderr != "" {
					a.logger.Warn("sync command stderr", "stderr", se.Stderr)
				}
				return err
			}

			var fixed []eventJSON
			for _, e := range sess.Document().Events {
				if e.IsFixed() {
					fixed = append(fixed, eventToJSON(e))
				}
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				if fixed == nil {
					fixed = []eventJSON{}
				}
				return outputJSON(out, map[string]any{"week": a.cfg.Week, "fixed_events": fixed})
			}
			fmt.Fprintf(out, "Synced %d fixed events into %s\n", len(fixed), a.cfg.Week)
			return nil
		},
	}
}
