package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// version is set via ldflags.
var version = "dev"

type runFlags struct {
	configPath  string
	noConfirm   bool
	listTargets bool
	listOnly    bool
	yes         bool
}

type session struct {
	root      string
	scanOpts  ScanOptions
	removeOpt RemoveOptions
	confirm   bool
	dryRun    bool
	logger    *slog.Logger
	closeLog  func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:   "nmsweep [ROOT]",
		Short: "Find and delete node_modules directories",
		Long: `nmsweep walks ROOT (default: current directory) for node_modules
directories without descending into them, lets you queue any subset
and deletes it, reporting the disk space freed.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return run(cmd, root, rf)
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("include", nil, "Additional target directory names to scan for (comma-separated)")
	flags.StringSlice("exclude", nil, "Target directory names to drop (comma-separated)")
	flags.Int("depth", 0, "Maximum directory depth to scan (0 = unlimited)")
	flags.StringSlice("skip", nil, "Extra directory names never descended into")
	flags.String("ignore-file", "", "gitignore-style file of directories to leave out of the scan")
	flags.Bool("dry-run", false, "Measure targets but do not delete them")
	flags.String("log-file", "", "Write logs to this file")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&rf.configPath, "config", "", "Path to a config file (json, yaml or toml)")
	flags.BoolVar(&rf.noConfirm, "no-confirm", false, "Delete without confirmation prompts")
	flags.BoolVar(&rf.listTargets, "list-targets", false, "Print target directory names and exit")
	flags.BoolVar(&rf.listOnly, "list", false, "Print discovered directories and exit without the UI")
	flags.BoolVarP(&rf.yes, "yes", "y", false, "Delete every discovered directory without the UI")

	return cmd
}

func run(cmd *cobra.Command, root string, rf runFlags) error {
	ctx := cmd.Context()
	headless := rf.listOnly || rf.yes || rf.listTargets

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	s, err := newSession(cmd, absRoot, rf, headless)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.closeLog(); closeErr != nil {
			fmt.Fprintln(os.Stderr, "Error closing log:", closeErr)
		}
	}()

	s.logger.Debug("session start", "root", s.root, "targets", sortedTargetNames(s.scanOpts.Targets), "dry_run", s.dryRun)

	out := cmd.OutOrStdout()
	switch {
	case rf.listTargets:
		for _, name := range sortedTargetNames(s.scanOpts.Targets) {
			fmt.Fprintln(out, name)
		}
		return nil
	case rf.listOnly:
		return runList(ctx, out, s)
	case rf.yes:
		return runSweep(ctx, out, s)
	}

	if _, err := validateRoot(absRoot); err != nil {
		return err
	}
	m := NewModel(ctx, s.scanOpts, s.removeOpt, s.confirm)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func newSession(cmd *cobra.Command, absRoot string, rf runFlags, headless bool) (*session, error) {
	v, err := newViper(cmd.Flags())
	if err != nil {
		return nil, err
	}
	path, _, err := resolveConfigPath(absRoot, rf.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}
	cfg, err := loadConfig(v, path)
	if err != nil {
		return nil, err
	}

	level, _ := parseLogLevel(cfg.LogLevel)
	var fallback io.Writer
	if headless {
		fallback = cmd.ErrOrStderr()
		if !cmd.Flags().Changed("log-level") && cfg.LogLevel == "info" {
			level = slog.LevelWarn
		}
	}
	logger, closeLog, err := newLogger(cfg.LogFile, level, fallback)
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}

	ignore, err := loadIgnoreFile(cfg.IgnoreFile, absRoot)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("load ignore file: %w", err)
	}

	confirm := cfg.Confirm
	if rf.noConfirm {
		confirm = false
	}

	return &session{
		root: absRoot,
		scanOpts: ScanOptions{
			Root:     absRoot,
			Targets:  buildTargetMapWithList(cfg.Include, cfg.Exclude),
			MaxDepth: cfg.Depth,
			SkipDirs: mergeSkipDirs(defaultSkipDirs(), cfg.Skip),
			Ignore:   ignore,
			Logger:   logger,
		},
		removeOpt: RemoveOptions{
			DryRun: cfg.DryRun,
			Logger: logger,
		},
		confirm:  confirm,
		dryRun:   cfg.DryRun,
		logger:   logger,
		closeLog: closeLog,
	}, nil
}

func runList(ctx context.Context, out io.Writer, s *session) error {
	seq, err := Scan(ctx, s.scanOpts)
	if err != nil {
		return err
	}
	for c := range seq {
		fmt.Fprintln(out, c.Path)
	}
	return nil
}

func runSweep(ctx context.Context, out io.Writer, s *session) error {
	found, err := ScanAll(ctx, s.scanOpts)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(out, "Nothing to delete.")
		return nil
	}

	paths := make([]string, 0, len(found))
	for _, c := range found {
		paths = append(paths, c.Path)
	}

	freeBefore, freeErr := volumeFree(s.root)
	opts := s.removeOpt
	opts.OnProgress = func(p RemoveProgress) {
		status := "removed"
		if p.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(out, "[%d/%d] %s %s\n", p.Index, p.Total, status, p.Path)
	}
	result := Remove(ctx, paths, opts)

	fmt.Fprintln(out, summarizeRemoval(result, s.dryRun))
	if freeErr == nil && !s.dryRun {
		if freeAfter, err := volumeFree(s.root); err == nil {
			fmt.Fprintf(out, "Volume free: %s -> %s\n", formatBytes(freeBefore), formatBytes(freeAfter))
		}
	}
	for _, f := range result.Failures {
		fmt.Fprintln(out, "  error:", f.Error())
	}
	if len(result.Failures) > 0 {
		return fmt.Errorf("%d director%s could not be deleted", len(result.Failures), plural(len(result.Failures), "y", "ies"))
	}
	return nil
}
