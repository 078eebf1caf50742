package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stefanpenner/weekplan/internal/config"
	"github.com/stefanpenner/weekplan/internal/logging"
	"github.com/stefanpenner/weekplan/pkg/session"
	"github.com/stefanpenner/weekplan/pkg/store"
	weeksync "github.com/stefanpenner/weekplan/pkg/sync"
	"github.com/stefanpenner/weekplan/pkg/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg     config.Config
	store   *store.Store
	logger  *slog.Logger
	jsonOut bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "weekplan",
		Short:         "Plan the week: goals, tasks and calendar blocks",
		Long:          "weekplan keeps a week of role-based goals and scheduled blocks in a Markdown file and opens an interactive planner when run without a subcommand.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default .weekplan.yaml)")
	flags.String("data-dir", "", "directory holding week files")
	flags.String("week", "", "week label, e.g. 2026-W43 (default current week)")
	flags.Bool("json", false, "output as JSON")
	flags.BoolP("verbose", "v", false, "verbose logging")
	_ = viper.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("week", flags.Lookup("week"))

	root.AddCommand(
		newNewCmd(a),
		newWeeksCmd(a),
		newPathCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newStatusCmd(a),
		newCycleCmd(a),
		newScheduleCmd(a),
		newMoveCmd(a),
		newResizeCmd(a),
		newDeleteCmd(a),
		newSyncCmd(a),
		newEditCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if err := config.Init(cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.jsonOut, _ = cmd.Flags().GetBool("json")

	level := "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level, cfg.Log.Format)

	a.store, err = store.NewStore(cfg.DataDir)
	return err
}

func (a *app) fetcher() *weeksync.Command {
	return &weeksync.Command{Path: a.cfg.Sync.Command, Args: a.cfg.Sync.Args}
}

// openSession loads the configured week. CLI commands never create a week
// implicitly; that is what `weekplan new` is for.
func (a *app) openSession() (*store.WeekFile, *session.Session, error) {
	wf := a.store.Week(a.cfg.Week)
	if !wf.Exists() {
		return nil, nil, fmt.Errorf("week %s does not exist (run `weekplan new --week %s`)", a.cfg.Week, a.cfg.Week)
	}
	text, err := wf.Load()
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.New(text, wf, session.WithLogger(a.logger))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", wf.Path(), err)
	}
	return wf, sess, nil
}

func (a *app) runTUI(ctx context.Context) error {
	wf, err := a.store.CreateWeek(a.cfg.Week, a.cfg.Roles)
	if err != nil && !errors.Is(err, store.ErrWeekExists) {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logger, closer, err := logging.OpenFile(a.cfg.Log.File, a.cfg.Log.Level, a.cfg.Log.Format)
	if err != nil {
		a.logger.Warn("log file unavailable", "path", a.cfg.Log.File, "error", err)
		logger, closer = logging.Discard(), io.NopCloser(nil)
	}
	defer closer.Close()

	text, err := wf.Load()
	if err != nil {
		return err
	}
	sess, err := session.New(text, wf, session.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("%s: %w (fix it with `weekplan edit`)", wf.Path(), err)
	}

	m := tui.NewModel(tui.Options{
		Session:    sess,
		Source:     wf,
		Fetcher:    a.fetcher(),
		Week:       a.cfg.Week,
		Roles:      a.cfg.Roles,
		BlockColor: a.cfg.BlockColor,
		Context:    ctx,
		Logger:     logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	cleanup, err := tui.StartWatcher(wf.Path(), p)
	if err != nil {
		logger.Warn("file watcher failed", "error", err)
	} else {
		defer cleanup()
	}

	_, err = p.Run()
	return err
}
