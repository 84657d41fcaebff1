package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odysseus0/feedline/internal/config"
	"github.com/odysseus0/feedline/internal/store"
)

// Execute loads configuration and runs the command line.
func Execute() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(cfg).ExecuteContext(ctx)
}

func NewRootCmd(cfg config.Config) *cobra.Command {
	var overrides config.Overrides
	var statePath string
	var output string
	var verbose bool
	var outFmt OutputFormat
	var app *App

	statePath = cfg.StatePath
	output = string(OutputTable)

	getApp := func() *App { return app }
	getOutput := func() OutputFormat { return outFmt }

	readOpts := &readOptions{}

	cmd := &cobra.Command{
		Use:           "feedline",
		Short:         "Rapidly work through fresh headlines on a Tiny Tiny RSS server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			parsedFmt, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			outFmt = parsedFmt
			if !requiresApp(cmd) {
				return nil
			}
			if app != nil {
				return nil
			}
			creds, err := cfg.Credentials(overrides)
			if err != nil {
				return err
			}
			c := cfg
			c.StatePath = statePath
			a, err := NewApp(c, creds, newLogger(cmd.ErrOrStderr(), verbose))
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		// Bare "feedline" behaves like "feedline read".
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, getApp, getOutput, readOpts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&overrides.URL, "url", "U", "", "Server URL (overrides FEEDLINE_URL and config)")
	flags.StringVarP(&overrides.User, "user", "u", "", "Username (overrides FEEDLINE_USER and config)")
	flags.StringVarP(&overrides.Password, "password", "p", "", "Password (overrides FEEDLINE_PASSWORD and config)")
	flags.StringVar(&statePath, "state", statePath, "SQLite state database path")
	flags.StringVarP(&output, "output", "o", output, "Output format: table, json, wide")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")

	readOpts.bind(cmd.Flags())

	cmd.AddCommand(newReadCmd(getApp, getOutput, readOpts))
	cmd.AddCommand(newWatchCmd(getApp, getOutput))
	cmd.AddCommand(newUnreadCmd(getApp, getOutput))
	cmd.AddCommand(newHeadlinesCmd(getApp, getOutput))
	cmd.AddCommand(newMarkCmd(getApp, getOutput))
	cmd.AddCommand(newFlushCmd(getApp, getOutput))
	cmd.AddCommand(newStatusCmd(getApp, getOutput))

	// Cobra skips post-run hooks when RunE fails, so the app is closed here.
	closeApp := func() {
		if app != nil {
			_ = app.Close()
			app = nil
		}
	}
	closeAfterRun(cmd, closeApp)

	return cmd
}

func closeAfterRun(cmd *cobra.Command, closeFn func()) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			defer closeFn()
			return run(cmd, args)
		}
	}
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, closeFn)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseOutputFormat(raw string) (OutputFormat, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch OutputFormat(s) {
	case OutputTable, OutputJSON, OutputWide:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("%w: invalid output format %q (expected table|json|wide)", store.ErrInvalidInput, raw)
	}
}

func requiresApp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		name := c.Name()
		if name == "help" || name == "completion" {
			return false
		}
	}
	return true
}
