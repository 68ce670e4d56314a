// Action registry commands: validate, canonicalize, and lint
// user-action.json without touching the browser.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"readerview/internal/action"
	"readerview/internal/settings"

	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Work with the toolbar action registry (user-action.json)",
}

var actionsValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check that the registry is a valid host document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runActionsValidate,
}

var actionsFmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Rewrite the registry in canonical form",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runActionsFmt,
}

var actionsLintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Syntax-check each action's script with an embedded JS engine",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runActionsLint,
}

func actionsPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return filepath.Join(resolveSettingsDir(), settings.ActionsFile)
}

func runActionsValidate(cmd *cobra.Command, args []string) error {
	path := actionsPath(args)
	reg, err := action.ValidateFile(path)
	if err != nil {
		var ve *action.ValidationError
		if errors.As(err, &ve) {
			fmt.Printf("%s is not a valid action registry:\n", path)
			for _, issue := range ve.Issues {
				fmt.Printf("  %s\n", issue)
			}
			return fmt.Errorf("%d validation issue(s)", len(ve.Issues))
		}
		return err
	}
	fmt.Printf("%s: valid (%d actions)\n", path, len(reg))
	return nil
}

func runActionsFmt(cmd *cobra.Command, args []string) error {
	path := actionsPath(args)
	reg, err := action.ValidateFile(path)
	if err != nil {
		return err
	}

	before, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	after, err := action.Serialize(reg)
	if err != nil {
		return err
	}
	if string(before) == string(after) {
		fmt.Printf("%s: already canonical\n", path)
		return nil
	}
	if err := action.WriteFile(path, reg); err != nil {
		return err
	}
	fmt.Printf("%s: rewritten (%d actions)\n", path, len(reg))
	return nil
}

func runActionsLint(cmd *cobra.Command, args []string) error {
	path := actionsPath(args)
	reg, err := action.ValidateFile(path)
	if err != nil {
		return err
	}

	issues := action.LintCode(reg)
	if len(issues) == 0 {
		fmt.Printf("%s: all %d scripts parse\n", path, len(reg))
		return nil
	}
	for _, issue := range issues {
		label := ""
		if issue.Entry >= 0 && issue.Entry < len(reg) {
			label = fmt.Sprintf(" (%q)", reg[issue.Entry].Label)
		}
		fmt.Printf("  entry %d%s: %s\n", issue.Entry, label, issue.Message)
	}
	return fmt.Errorf("%d script(s) with syntax errors", len(issues))
}
