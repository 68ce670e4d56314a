// Package main implements the readerview CLI: a development tool for
// personal Reader View extension settings. It validates the maintained
// settings files and pushes them into a dedicated Chrome instance over the
// DevTools protocol.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"readerview/cmd/readerview/config"
	"readerview/internal/browser"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	settingsDir string
	timeout     time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "readerview",
	Short: "Develop and push personal Reader View extension settings",
	Long: `readerview manages a personal customization layer for the Reader View
browser extension: two stylesheets and a toolbar action registry
(user-action.json), kept under my-settings/.

It validates the registry, lints the stylesheets, and pushes everything
into a live extension through a dedicated Chrome instance driven over the
DevTools protocol. The extension itself stays untouched: settings land in
its chrome.storage, exactly as if pasted into its options page.

Typical loop:
  readerview start          launch the dedicated Chrome (once: readerview setup)
  readerview push           validate and push my-settings/
  readerview watch          re-push automatically on every save`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&settingsDir, "settings-dir", "s", "", "Settings directory (default: config, then ./my-settings)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	screenshotCmd.Flags().StringVarP(&screenshotFile, "out", "o", "screenshot.png", "Output file")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before a re-push")

	actionsCmd.AddCommand(actionsValidateCmd)
	actionsCmd.AddCommand(actionsFmtCmd)
	actionsCmd.AddCommand(actionsLintCmd)
	cssCmd.AddCommand(cssLintCmd)

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(jsCmd)
	rootCmd.AddCommand(clickCmd)
	rootCmd.AddCommand(screenshotCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(cssCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newManager builds a browser manager from the tool config, with state kept
// alongside the config file.
func newManager() (*browser.Manager, error) {
	toolCfg, err := config.Load()
	if err != nil {
		logger.Debug("Config load failed, using defaults", zap.Error(err))
	}
	stateDir, err := config.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve state dir: %w", err)
	}

	cfg := browser.DefaultConfig()
	cfg.Bin = toolCfg.ChromeBin
	cfg.Headless = toolCfg.Headless
	if toolCfg.DebugPort != 0 {
		cfg.DebugPort = toolCfg.DebugPort
	}
	if toolCfg.NavigationTimeoutMs != 0 {
		cfg.NavigationTimeoutMs = toolCfg.NavigationTimeoutMs
	}
	cfg.UserDataDir = filepath.Join(stateDir, "chrome-data")
	cfg.StateFile = filepath.Join(stateDir, "state.json")

	return browser.NewManager(cfg, logger), nil
}

// resolveSettingsDir picks the settings directory: flag, then tool config,
// then ./my-settings.
func resolveSettingsDir() string {
	if settingsDir != "" {
		return settingsDir
	}
	if cfg, err := config.Load(); err == nil && cfg.SettingsDir != "" {
		return cfg.SettingsDir
	}
	return "my-settings"
}
