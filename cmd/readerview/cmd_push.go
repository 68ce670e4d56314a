// Settings deployment: push, import, and the watch loop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"readerview/internal/settings"
	"readerview/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDebounce time.Duration

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Validate the settings files and push them into the extension",
	Long: `Reads reader-view.css, frame-sidebar.css, and user-action.json from the
settings directory, validates the action registry, and writes everything
into the extension's storage. Each push fully replaces the stored values.`,
	RunE: runPush,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the full preferences export into the extension",
	Long: `Pushes reader-view-preferences.json wholesale into the extension's
storage. The file is the extension's own preferences export format.`,
	RunE: runImport,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-push settings automatically whenever they change",
	RunE:  runWatch,
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return pushOnce(ctx)
}

func pushOnce(ctx context.Context) error {
	dir := resolveSettingsDir()
	bundle, err := settings.Load(dir)
	if err != nil {
		return err
	}

	mgr, err := newManager()
	if err != nil {
		return err
	}
	if err := mgr.PushSettings(ctx, bundle.StoragePayload()); err != nil {
		return err
	}

	fmt.Printf("  user-css    <- %s\n", settings.ReaderCSSFile)
	fmt.Printf("  top-css     <- %s\n", settings.SidebarCSSFile)
	fmt.Printf("  user-action <- %s (%d actions)\n", settings.ActionsFile, len(bundle.Actions))
	fmt.Println("Settings pushed.")
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	dir := resolveSettingsDir()
	prefs, err := settings.LoadPreferences(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d preferences from %s\n", len(prefs), settings.PreferencesFile)

	mgr, err := newManager()
	if err != nil {
		return err
	}
	if err := mgr.ImportPreferences(ctx, prefs); err != nil {
		return err
	}
	fmt.Println("All preferences imported.")
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := resolveSettingsDir()

	// One eager push so the loop starts from a known-good state.
	if err := pushOnce(cmd.Context()); err != nil {
		return err
	}

	watched := []string{
		settings.ReaderCSSFile,
		settings.SidebarCSSFile,
		settings.ActionsFile,
	}
	w, err := watch.New(dir, watched, watchDebounce, logger, func(ctx context.Context) error {
		pushCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := pushOnce(pushCtx); err != nil {
			// Reported by the watcher; editing continues.
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("Watching %s — save a settings file to push. Ctrl+C to stop.\n", dir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stats := w.Stats()
	logger.Info("Watch loop stopped",
		zap.Int("events", stats.Events),
		zap.Int("pushes", stats.Triggers),
		zap.Int("errors", stats.Errors))
	return nil
}
