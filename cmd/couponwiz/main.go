// Couponwiz is a terminal wizard for authoring loyalty coupons.
//
// A coupon is captured in five ordered sections (essentials, lifecycle,
// guardrails, inventory and distribution). The wizard only moves forward once
// the open section is valid, autosaves a local draft while editing and
// publishes the finished coupon to the coupon store.
//
// Usage:
//
//	couponwiz [command] [flags]
//
// Running without arguments resumes the saved draft, or starts a new coupon
// when there is none. See 'couponwiz --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/couponwiz/internal/config"
	"github.com/muurk/couponwiz/internal/logging"
	"github.com/muurk/couponwiz/internal/storage"
	"github.com/muurk/couponwiz/internal/storage/memory"
	"github.com/muurk/couponwiz/internal/storage/sqlite"
	"github.com/muurk/couponwiz/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	logLevel     string
	logFile      string
	storeBackend string
	dbPath       string
)

var rootCmd = &cobra.Command{
	Use:   "couponwiz",
	Short: "Loyalty Coupon Wizard",
	Long: `An interactive wizard for authoring loyalty coupons.

Coupons are built section by section: essentials, lifecycle, guardrails,
inventory and distribution. Each section must be valid before the next one
opens, and completed sections can be reopened at any time.

While you edit, a draft is autosaved locally so an interrupted session can be
resumed. If no command is specified, the saved draft is resumed or a new
coupon is started.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: resume a draft, otherwise start fresh
		return runWizard(cmd, startAuto, "")
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); logging is off by default")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "Coupon store backend (sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite coupon database")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "couponwiz %s (commit: %s, %s, %s)\n", info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}

// loadConfig reads the configuration, applies the global flags and starts
// logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if storeBackend != "" {
		cfg.Storage.Backend = storeBackend
	}
	if dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, file := logLevel, logFile
	if level == "" {
		level = cfg.Logging.Level
	}
	if file == "" {
		file = cfg.Logging.File
	}
	if err := logging.InitializeWithOutput(level, file); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured coupon store.
func openStore(ctx context.Context, cfg *config.Config) (storage.CouponStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logging.Warn("Using the in-memory coupon store, coupons are lost on exit")
		return memory.New(), nil
	default:
		store, err := sqlite.Open(ctx, cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open coupon database: %w", err)
		}
		logging.Debug("Coupon database opened", zap.String("path", cfg.Storage.DatabasePath))
		return store, nil
	}
}
