// Stylesheet lint commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"readerview/internal/settings"

	"github.com/spf13/cobra"
)

var cssCmd = &cobra.Command{
	Use:   "css",
	Short: "Work with the maintained stylesheets",
}

var cssLintCmd = &cobra.Command{
	Use:   "lint [file...]",
	Short: "Lint stylesheets for scan errors, brace balance, and theme variable use",
	Long: `Checks each stylesheet for tokenizer errors, unbalanced braces, and
var() references to custom properties the extension does not define
(--fg, --bg, --bd, --lk, --lkv, --hg) and the sheet does not declare.
Findings are advisory: the host injects the CSS verbatim either way.`,
	RunE: runCSSLint,
}

func runCSSLint(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		dir := resolveSettingsDir()
		files = []string{
			filepath.Join(dir, settings.ReaderCSSFile),
			filepath.Join(dir, settings.SidebarCSSFile),
		}
	}

	total := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		issues := settings.LintCSS(filepath.Base(file), string(data))
		for _, issue := range issues {
			fmt.Printf("  %s\n", issue)
		}
		total += len(issues)
	}
	if total > 0 {
		return fmt.Errorf("%d lint finding(s)", total)
	}
	fmt.Println("Stylesheets are clean.")
	return nil
}
