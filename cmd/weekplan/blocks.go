package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/weekplan/pkg/plan"
	"github.com/stefanpenner/weekplan/pkg/session"
)

const timeHelp = `Times are "<day> HH:MM" within the selected week (e.g. "tue 09:30") or a full timestamp (2026-10-20T09:30:00).`

func newScheduleCmd(a *app) *cobra.Command {
	var start, end, title string
	cmd := &cobra.Command{
		Use:   "schedule [task-id]",
		Short: "Schedule a block for a task, or a free-standing block with --title",
		Long:  "Schedule a block for a task, or a free-standing block with --title. Without --end the block lasts one hour.\n\n" + timeHelp,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession()
			if err != nil {
				return err
			}
			monday, _ := plan.WeekStart(a.cfg.Week)
			s, err := parseTimeFlag("start", start, monday)
			if err != nil {
				return err
			}
			e, err := parseTimeFlag("end", end, monday)
			if err != nil {
				return err
			}

			c := plan.CreateBlock{
				ID:    plan.NewID(),
				Title: title,
				Start: s,
				End:   e,
				Color: a.cfg.BlockColor,
			}
			if len(args) == 1 {
				c.TaskID = args[0]
			} else if title == "" {
				return &plan.ValidationError{Field: "title", Err: fmt.Errorf("%w: give a task id or --title", plan.ErrEmptyTitle)}
			}
			return a.applyBlock(cmd, sess, c, c.ID)
		},
	}
	cmd.Flags().StringVarP(&start, "start", "s", "", "block start (required)")
	cmd.Flags().StringVarP(&end, "end", "e", "", "block end (default start + 1h)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "block title (default task title)")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "move <event-id>",
		Short: "Move a scheduled block, keeping its length unless --end is given",
		Long:  "Move a scheduled block, keeping its length unless --end is given.\n\n" + timeHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession()
			if err != nil {
				return err
			}
			monday, _ := plan.WeekStart(a.cfg.Week)
			s, err := parseTimeFlag("start", start, monday)
			if err != nil {
				return err
			}
			e, err := parseTimeFlag("end", end, monday)
			if err != nil {
				return err
			}
			return a.applyBlock(cmd, sess, plan.MoveBlock{EventID: args[0], Start: s, End: e}, args[0])
		},
	}
	cmd.Flags().StringVarP(&start, "start", "s", "", "new start (required)")
	cmd.Flags().StringVarP(&end, "end", "e", "", "new end")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newResizeCmd(a *app) *cobra.Command {
	var end string
	cmd := &cobra.Command{
		Use:   "resize <event-id>",
		Short: "Change the end of a scheduled block",
		Long:  "Change the end of a scheduled block.\n\n" + timeHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession()
			if err != nil {
				return err
			}
			monday, _ := plan.WeekStart(a.cfg.Week)
			e, err := parseTimeFlag("end", end, monday)
			if err != nil {
				return err
			}
			return a.applyBlock(cmd, sess, plan.ResizeBlock{EventID: args[0], End: e}, args[0])
		},
	}
	cmd.Flags().StringVarP(&end, "end", "e", "", "new end (required)")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete a scheduled block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", args[0])
			}
			_, sess, err := a.openSession()
			if err != nil {
				return err
			}
			ev, ok := sess.Document().FindEvent(args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], plan.ErrEventNotFound)
			}
			if err := sess.Dispatch(plan.DeleteBlock{EventID: ev.ID}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, map[string]string{"deleted": ev.ID})
			}
			fmt.Fprintf(out, "Deleted: %s (%s)\n", ev.Title, ev.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

// applyBlock dispatches c and reports the resulting block.
func (a *app) applyBlock(cmd *cobra.Command, sess *session.Session, c plan.Command, eventID string) error {
	if err := sess.Dispatch(c); err != nil {
		return err
	}
	ev, ok := sess.Document().FindEvent(eventID)
	if !ok {
		return fmt.Errorf("%s: %w", eventID, plan.ErrEventNotFound)
	}

	out := cmd.OutOrStdout()
	if a.jsonOut {
		return outputJSON(out, eventToJSON(ev))
	}
	fmt.Fprintf(out, "%s: %s %s–%s (%s)\n", ev.Title, ev.Start.Format("Mon"), ev.Start.Format("15:04"), ev.End.Format("15:04"), ev.ID)
	if ev.TaskID != "" {
		if task, _ := sess.Document().FindTask(ev.TaskID); task != nil {
			fmt.Fprintf(out, "%s → %s\n", task.Title, colorStatus(task.Status()))
		}
	}
	return nil
}

func parseTimeFlag(name, value string, monday plan.Timestamp) (plan.Timestamp, error) {
	if value == "" {
		return plan.Timestamp{}, nil
	}
	ts, err := plan.ParseInWeek(value, monday)
	if err != nil {
		return plan.Timestamp{}, &plan.ValidationError{Field: name, Err: err}
	}
	return ts, nil
}
