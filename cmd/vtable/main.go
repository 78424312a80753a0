package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seasr/vtable/pkg/config"
	"github.com/seasr/vtable/pkg/logger"
	"github.com/seasr/vtable/pkg/observability"
)

var version = "0.1.0"

// app carries the state shared by every subcommand
type app struct {
	configFile string
	logLevel   string
	cfg        *config.Config
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "vtable",
		Short: "vtable - sparse column tables",
		Long: `vtable loads delimited data into sparse, typed column tables that store only
non-default cells, and sorts, inspects, exports and snapshots them.`,
		SilenceUsage:       true,
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return a.teardown() },
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	root.AddCommand(
		newVersionCmd(),
		a.newInspectCmd(),
		a.newSortCmd(),
		a.newSnapshotCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vtable v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// setup loads configuration and starts logging and tracing
func (a *app) setup() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}
	if err := logger.Init(cfg.Logging); err != nil {
		return err
	}
	if err := observability.Initialize(cfg.Tracing); err != nil {
		return err
	}
	a.cfg = cfg

	logger.Debug("configuration loaded",
		zap.String("config_file", a.configFile),
		zap.String("snapshot_algorithm", string(cfg.Snapshot.Algorithm)),
		zap.Bool("tracing", cfg.Tracing.Enabled))
	return nil
}

func (a *app) teardown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := observability.Shutdown(ctx); err != nil {
		logger.Warn("failed to shutdown tracing", zap.Error(err))
	}
	// Sync errors on stdout and stderr are expected
	_ = logger.Sync()
	return nil
}

// nopCloser lets stdout stand in for an output file
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns the named file, or the command's stdout when path is
// empty or "-".
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}
