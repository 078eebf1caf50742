package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stefanpenner/weekplan/pkg/plan"
	"github.com/stefanpenner/weekplan/pkg/store"
)

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create the week document with the configured roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := a.store.CreateWeek(a.cfg.Week, a.cfg.Roles)
			created := true
			if errors.Is(err, store.ErrWeekExists) {
				created = false
			} else if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, map[string]any{
					"week":    a.cfg.Week,
					"path":    wf.Path(),
					"created": created,
				})
			}
			if !created {
				fmt.Fprintf(out, "Week %s already exists: %s\n", a.cfg.Week, wf.Path())
				return nil
			}
			fmt.Fprintf(out, "Created: %s\n", wf.Path())
			return nil
		},
	}
}

func newWeeksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "weeks",
		Short: "List stored weeks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels, err := a.store.ListWeeks()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				if labels == nil {
					labels = []string{}
				}
				return outputJSON(out, labels)
			}
			if len(labels) == 0 {
				fmt.Fprintln(out, "No weeks yet. Run `weekplan new` to start one.")
				return nil
			}
			current := color.New(color.Bold)
			for _, l := range labels {
				if l == a.cfg.Week {
					_, _ = current.Fprintf(out, "* %s\n", l)
					continue
				}
				fmt.Fprintf(out, "  %s\n", l)
			}
			return nil
		},
	}
}

func newPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path of the week file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.store.WeekPath(a.cfg.Week)
			if a.jsonOut {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"week": a.cfg.Week, "path": path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var (
		role  string
		hours float64
	)
	cmd := &cobra.Command{
		Use:   "add [title...]",
		Short: "Add a task to a role",
		Long:  "Add a task to a role. Missing title or estimate is prompted for interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, sess, err := a.openSession()
			if err != nil {
				return err
			}
			doc := sess.Document()

			title := strings.Join(args, " ")
			if role == "" {
				role = defaultRole(doc, a.cfg.Roles)
			}
			if title == "" || !cmd.Flags().Changed("hours") {
				if err := promptTask(roleChoices(doc, a.cfg.Roles), &role, &title, &hours); err != nil {
					return err
				}
			}

			task, err := sess.AddTask(role, title, hours)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, taskToJSON(role, task, 0))
			}
			fmt.Fprintf(out, "Added %q to %s (%s) in %s\n", task.Title, role, task.ID, wf.Path())
			return nil
		},
	}
	cmd.Flags().StringVarP(&role, "role", "r", "", "role the task belongs to (default first role)")
	cmd.Flags().Float64VarP(&hours, "hours", "H", plan.DefaultEstimate, "estimated hours")
	return cmd
}

// promptTask asks for whatever add was not given on the command line.
func promptTask(roles []string, role, title *string, hours *float64) error {
	estimate := strconv.FormatFloat(*hours, 'g', -1, 64)

	var fields []huh.Field
	if len(roles) > 1 {
		fields = append(fields, huh.NewSelect[string]().
			Title("Role").
			Options(huh.NewOptions(roles...)...).
			Value(role))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Task").
			Placeholder("What needs doing?").
			Value(title).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return plan.ErrEmptyTitle
				}
				return nil
			}),
		huh.NewInput().
			Title("Estimated hours").
			Value(&estimate).
			Validate(func(s string) error {
				if v, err := strconv.ParseFloat(s, 64); err != nil || v <= 0 {
					return fmt.Errorf("enter a positive number of hours")
				}
				return nil
			}),
	)

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	v, err := strconv.ParseFloat(estimate, 64)
	if err != nil {
		return &plan.ValidationError{Field: "estimated_hours", Err: err}
	}
	*hours = v
	return nil
}

func defaultRole(d *plan.Document, configured []string) string {
	if len(d.Goals) > 0 {
		return d.Goals[0].Role
	}
	if len(configured) > 0 {
		return configured[0]
	}
	return ""
}

func roleChoices(d *plan.Document, configured []string) []string {
	seen := make(map[string]bool)
	var roles []string
	for _, g := range d.Goals {
		if !seen[g.Role] {
			seen[g.Role] = true
			roles = append(roles, g.Role)
		}
	}
	for _, r := range configured {
		if !seen[r] {
			seen[r] = true
			roles = append(roles, r)
		}
	}
	return roles
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the week's tasks and agenda",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, sess, err := a.openSession()
			if err != nil {
				return err
			}
			doc := sess.Document()

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, weekToJSON(doc, wf.Path()))
			}

			_, _ = color.New(color.Bold).Fprintf(out, "Week %s\n", doc.Week)
			if doc.Insight != "" {
				_, _ = color.New(color.Italic).Fprintln(out, doc.Insight)
			}
			fmt.Fprintln(out)
			printTasks(out, doc)
			printAgenda(out, doc)
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status [task-id]",
		Short: "Report scheduled hours and status per task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession()
			if err != nil {
				return err
			}
			tasks := tasksToJSON(sess.Document())
			if len(args) == 1 {
				tasks = filterTask(tasks, args[0])
				if len(tasks) == 0 {
					return fmt.Errorf("%s: %w", args[0], plan.ErrTaskNotFound)
				}
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return outputJSON(out, tasks)
			}
			for _, t := range tasks {
				fmt.Fprintf(out, "%s: %s (%s)\n", t.Title, colorStatus(plan.Status(t.Status)), formatHours(t.Scheduled, t.Estimated))
			}
			return nil
		},
	}
}

func filterTask(tasks []taskJSON, id string) []taskJSON {
	for _, t := range tasks {
		if t.ID == id {
			return []taskJSON{t}
		}
	}
	return nil
}

func newCycleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle <task-id>",
		Short: "Advance a task's manual status: completed, dropped, then back to derived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := a.openSession()
			if err != nil {
				return err
			}
			status, err := sess.CycleStatus(args[0])
			if err != nil {
				return err
			}
			task, goal := sess.Document().FindTask(args[0])

			out := cmd.OutOrStdout()
			if a.jsonOut {
				scheduled := plan.ScheduledHours(sess.Document().Events)[task.ID]
				return outputJSON(out, taskToJSON(goal.Role, task, scheduled))
			}
			fmt.Fprintf(out, "%s → %s\n", task.Title, status)
			return nil
		},
	}
}
