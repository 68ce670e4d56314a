// Page commands: poke at whatever page the dedicated Chrome is showing.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var screenshotFile string

var openCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Navigate the active page to a URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var jsCmd = &cobra.Command{
	Use:   "js [expression]",
	Short: "Evaluate a JavaScript expression on the active page and print the result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runJS,
}

var clickCmd = &cobra.Command{
	Use:   "click [selector]",
	Short: "Click an element by CSS selector",
	Args:  cobra.ExactArgs(1),
	RunE:  runClick,
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a screenshot of the active page",
	RunE:  runScreenshot,
}

var waitCmd = &cobra.Command{
	Use:   "wait [seconds]",
	Short: "Wait for a page to load (default: 2s)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWait,
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	if err := mgr.Navigate(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Navigated to %s\n", args[0])
	return nil
}

func runJS(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	expr := joinArgs(args)
	out, err := mgr.Eval(ctx, expr)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}

func runClick(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	if err := mgr.Click(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Clicked: %s\n", args[0])
	return nil
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mgr, err := newManager()
	if err != nil {
		return err
	}
	data, err := mgr.Screenshot(ctx)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(screenshotFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Screenshot saved: %s\n", path)
	return nil
}

func runWait(cmd *cobra.Command, args []string) error {
	seconds := 2.0
	if len(args) > 0 {
		var err error
		seconds, err = strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid duration %q", args[0])
		}
	}
	time.Sleep(time.Duration(seconds * float64(time.Second)))
	fmt.Printf("Waited %gs\n", seconds)
	return nil
}

func joinArgs(args []string) string {
	result := ""
	for i, arg := range args {
		if i > 0 {
			result += " "
		}
		result += arg
	}
	return result
}
