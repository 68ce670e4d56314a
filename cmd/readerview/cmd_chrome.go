// Chrome lifecycle commands: the dedicated instance the settings are
// developed against.
package main

import (
	"context"
	"errors"
	"fmt"

	"readerview/internal/browser"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Launch the dedicated Chrome instance (or reattach to a running one)",
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the dedicated Chrome instance",
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show browser and extension status",
	RunE:  runStatus,
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Open the Chrome Web Store page for one-time Reader View install",
	Long: `Managed Chrome refuses --load-extension, so Reader View has to be
installed from the Chrome Web Store once. It then persists in the dedicated
profile. After installing, run 'readerview status' to confirm discovery.`,
	RunE: runSetup,
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	if err := mgr.Start(ctx); err != nil {
		return err
	}

	st := mgr.State()
	fmt.Printf("Chrome running. Control URL: %s\n", st.ControlURL)

	if extID, err := mgr.DiscoverExtension(ctx); err == nil {
		fmt.Printf("Extension ID: %s\n", extID)
	} else {
		fmt.Println("Reader View not installed. Run: readerview setup")
	}
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	if err := mgr.Stop(ctx); err != nil {
		if errors.Is(err, browser.ErrNotRunning) {
			fmt.Println("Chrome is not running.")
			return nil
		}
		return err
	}
	fmt.Println("Chrome stopped.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	info, err := mgr.Status(ctx)
	if err != nil {
		return err
	}

	if !info.Running {
		fmt.Println("Chrome is not running.")
		if info.ExtensionID != "" {
			fmt.Printf("  Cached extension ID: %s\n", info.ExtensionID)
		}
		return nil
	}

	fmt.Printf("Chrome is running (%s)\n", info.Version)
	fmt.Printf("  Control URL: %s\n", info.ControlURL)
	if !info.StartedAt.IsZero() {
		fmt.Printf("  Started: %s\n", info.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if info.ExtensionID != "" {
		fmt.Printf("  Extension ID: %s\n", info.ExtensionID)
		fmt.Printf("  Options URL: chrome-extension://%s/data/options/index.html\n", info.ExtensionID)
	} else {
		fmt.Println("  Reader View: NOT INSTALLED (run: readerview setup)")
	}
	if !info.LastPushAt.IsZero() {
		fmt.Printf("  Last push: %s\n", info.LastPushAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("  Open pages: %d\n", len(info.Pages))
	for i, p := range info.Pages {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		title := p.Title
		if title == "" {
			title = "(no title)"
		}
		fmt.Printf("    %s %s\n      %s\n", marker, title, p.URL)
	}
	return nil
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	if err := mgr.OpenWebStore(ctx); err != nil {
		return err
	}
	fmt.Println("Opened Chrome Web Store: Reader View")
	fmt.Println("Click 'Add to Chrome' to install, then run: readerview status")
	return nil
}
