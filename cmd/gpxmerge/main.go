// Package main provides the CLI entrypoint for gpxmerge.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/gpxmerge/internal/config"
	"github.com/verte-zerg/gpxmerge/internal/gpx"
	"github.com/verte-zerg/gpxmerge/internal/historyui"
	"github.com/verte-zerg/gpxmerge/internal/merge"
	"github.com/verte-zerg/gpxmerge/internal/model"
	"github.com/verte-zerg/gpxmerge/internal/report"
	"github.com/verte-zerg/gpxmerge/internal/store"
	"github.com/verte-zerg/gpxmerge/internal/window"
)

const (
	defaultInput        = "./gpx_files"
	defaultOutput       = "./consolidated.gpx"
	defaultHistoryLimit = 50
)

var (
	mergeInput      string
	mergeOutput     string
	mergePattern    string
	mergeFilterDate string
	mergeStartTime  string
	mergeEndTime    string
	mergeWorkers    int
	mergeName       string
	mergeCreator    string
	mergeLinkHref   string
	mergeLinkText   string
	mergeForce      bool
	mergeNoHistory  bool
	mergeVerbose    bool

	historyPlain bool
	historyLimit int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	meta := gpx.DefaultMetadata()
	rootCmd := &cobra.Command{
		Use:           "gpxmerge",
		Short:         "Consolidate GPX files into one GPX 1.1 document",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runMergeCmd,
	}

	rootCmd.Flags().StringVar(&mergeInput, "input", defaultInput, "directory containing GPX files")
	rootCmd.Flags().StringVar(&mergeOutput, "output", defaultOutput, "consolidated output file")
	rootCmd.Flags().StringVar(&mergeFilterDate, "filter-date", "", "keep only points on this date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&mergeStartTime, "start-time", "", "keep only points at or after this time of day (HH:MM)")
	rootCmd.Flags().StringVar(&mergeEndTime, "end-time", "", "keep only points at or before this time of day (HH:MM)")
	rootCmd.Flags().StringVar(&mergePattern, "pattern", merge.DefaultPattern, "glob for input file names")
	rootCmd.Flags().IntVar(&mergeWorkers, "workers", 0, "parallel parsers (default: number of CPUs)")
	rootCmd.Flags().StringVar(&mergeName, "name", meta.Name, "metadata name of the consolidated document")
	rootCmd.Flags().StringVar(&mergeCreator, "creator", meta.Creator, "creator attribute of the consolidated document")
	rootCmd.Flags().StringVar(&mergeLinkHref, "link-href", meta.LinkHref, "metadata link")
	rootCmd.Flags().StringVar(&mergeLinkText, "link-text", meta.LinkText, "metadata link text")
	rootCmd.Flags().BoolVar(&mergeForce, "force", false, "overwrite an existing output file")
	rootCmd.Flags().BoolVar(&mergeNoHistory, "no-history", false, "do not record this run in the history database")
	rootCmd.Flags().BoolVarP(&mergeVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runMergeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "input", &mergeInput, fileCfg.Merge.Input)
	applyStringConfig(cmd, "output", &mergeOutput, fileCfg.Merge.Output)
	applyStringConfig(cmd, "pattern", &mergePattern, fileCfg.Merge.Pattern)
	applyIntConfig(cmd, "workers", &mergeWorkers, fileCfg.Merge.Workers)
	applyStringConfig(cmd, "name", &mergeName, fileCfg.Merge.Name)
	applyStringConfig(cmd, "creator", &mergeCreator, fileCfg.Merge.Creator)
	applyStringConfig(cmd, "link-href", &mergeLinkHref, fileCfg.Merge.LinkHref)
	applyStringConfig(cmd, "link-text", &mergeLinkText, fileCfg.Merge.LinkText)
	applyBoolConfig(cmd, "force", &mergeForce, fileCfg.Merge.Force)

	history := true
	if fileCfg.History.Enabled != nil {
		history = *fileCfg.History.Enabled
	}

	cfg := model.MergeConfig{
		InputDir:   mergeInput,
		OutputPath: mergeOutput,
		Pattern:    mergePattern,
		FilterDate: mergeFilterDate,
		StartTime:  mergeStartTime,
		EndTime:    mergeEndTime,
		Workers:    mergeWorkers,
		Name:       mergeName,
		Creator:    mergeCreator,
		LinkHref:   mergeLinkHref,
		LinkText:   mergeLinkText,
		Force:      mergeForce,
		History:    history && !mergeNoHistory,
		Verbose:    mergeVerbose,
	}

	win, err := buildWindow(cfg)
	if err != nil {
		return err
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	printer := report.NewPrinter(os.Stderr)
	paths, err := merge.Discover(cfg.InputDir, cfg.Pattern)
	if err != nil {
		return fmt.Errorf("failed to list input directory: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matching %q found in %s", cfg.Pattern, cfg.InputDir)
	}
	printer.Infof("Found %d GPX files to process", len(paths))
	if win.Active() {
		printer.Infof("Filtering points %s", win)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := merge.Options{
		Window:  win,
		Workers: cfg.Workers,
		Metadata: gpx.Metadata{
			Name:     cfg.Name,
			Creator:  cfg.Creator,
			LinkHref: cfg.LinkHref,
			LinkText: cfg.LinkText,
		},
		Logger: newLogger(cfg.Verbose),
	}
	result, runErr := merge.Consolidate(ctx, merge.FileSources(paths), opts, cfg.OutputPath)
	for _, f := range result.Failures {
		printer.Warnf("%s: %s", f.SourceID, f.Reason)
	}
	printer.Summary(result)

	if cfg.History {
		recordRun(fileCfg, result, printer)
	}
	if runErr != nil {
		return fmt.Errorf("failed to consolidate: %w", runErr)
	}
	return nil
}

func buildWindow(cfg model.MergeConfig) (window.Window, error) {
	var date *window.Date
	if cfg.FilterDate != "" {
		d, err := window.ParseDate(cfg.FilterDate)
		if err != nil {
			return window.Window{}, fmt.Errorf("invalid --filter-date value: %w", err)
		}
		date = &d
	}
	start, err := parseClockFlag("start-time", cfg.StartTime)
	if err != nil {
		return window.Window{}, err
	}
	end, err := parseClockFlag("end-time", cfg.EndTime)
	if err != nil {
		return window.Window{}, err
	}
	return window.New(date, start, end, nil)
}

func parseClockFlag(name, value string) (*window.Clock, error) {
	if value == "" {
		return nil, nil
	}
	c, err := window.ParseClock(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value: %w", name, err)
	}
	return &c, nil
}

func validateConfig(cfg model.MergeConfig) error {
	if cfg.Workers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return fmt.Errorf("--output must not be empty")
	}
	info, err := os.Stat(cfg.InputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input directory does not exist: %s", cfg.InputDir)
		}
		return fmt.Errorf("failed to stat input directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", cfg.InputDir)
	}
	if !cfg.Force {
		if _, err := os.Stat(cfg.OutputPath); err == nil {
			return fmt.Errorf("output file already exists: %s (use --force to overwrite)", cfg.OutputPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat output file: %w", err)
		}
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func recordRun(fileCfg config.FileConfig, result model.Report, printer *report.Printer) {
	st, err := store.Open(fileCfg.DBPath())
	if err != nil {
		printer.Warnf("failed to open history db: %v", err)
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			printer.Warnf("failed to close history db: %v", cerr)
		}
	}()
	if _, err := st.InsertRun(context.Background(), result); err != nil {
		printer.Warnf("failed to record run: %v", err)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded merge runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a plain table instead of the browser")
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "show at most N runs (0: all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(fileCfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if historyPlain {
		runs, err := st.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			logErrln("No runs recorded yet.")
			return nil
		}
		for _, line := range report.RunTable(runs) {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	}

	program := tea.NewProgram(historyui.NewModel(st, historyLimit), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	meta := gpx.DefaultMetadata()
	return fmt.Sprintf(`# gpxmerge configuration
# Uncomment a value to enable it. CLI flags override config values.

[merge]
# input = %q        # Directory containing GPX files
# output = %q       # Consolidated output file
# pattern = %q      # Glob for input file names
# workers = 0       # Parallel parsers (0: number of CPUs)
# name = %q
# creator = %q
# link-href = %q
# link-text = %q
# force = false     # Overwrite an existing output file

[history]
# enabled = true    # Record runs for 'gpxmerge history'
# db = %q
`,
		defaultInput,
		defaultOutput,
		merge.DefaultPattern,
		meta.Name,
		meta.Creator,
		meta.LinkHref,
		meta.LinkText,
		config.DefaultDBPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
