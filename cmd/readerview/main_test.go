package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func TestJoinArgs(t *testing.T) {
	got := joinArgs([]string{"document.title", "+", "'!'"})
	if got != "document.title + '!'" {
		t.Fatalf("joinArgs = %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"start", "stop", "status", "setup",
		"open", "js", "click", "screenshot", "wait",
		"push", "import", "watch",
		"actions", "css",
	}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestResolveSettingsDirFlagWins(t *testing.T) {
	t.Setenv("READERVIEW_CONFIG_DIR", t.TempDir())

	settingsDir = "/tmp/custom"
	defer func() { settingsDir = "" }()
	if got := resolveSettingsDir(); got != "/tmp/custom" {
		t.Errorf("resolveSettingsDir = %q", got)
	}

	settingsDir = ""
	if got := resolveSettingsDir(); got != "my-settings" {
		t.Errorf("resolveSettingsDir default = %q", got)
	}
}

func TestActionsValidateCommand(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	if err := os.WriteFile(good, []byte(`[{"label":"Top","icon":"i.svg","code":"document.scrollTo(0,0)"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	output := captureOutput(t, func() {
		if err := runActionsValidate(&cobra.Command{}, []string{good}); err != nil {
			t.Errorf("valid registry rejected: %v", err)
		}
	})
	if !strings.Contains(output, "valid (1 actions)") {
		t.Errorf("unexpected output: %s", output)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"label":"Top","icon":"i.svg","code":"alert(\"x\")"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	output = captureOutput(t, func() {
		if err := runActionsValidate(&cobra.Command{}, []string{bad}); err == nil {
			t.Error("invalid registry accepted")
		}
	})
	if !strings.Contains(output, "code") {
		t.Errorf("output does not name the offending field: %s", output)
	}
}

func TestActionsFmtCommand(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	path := filepath.Join(dir, "user-action.json")
	compact := `[{"label":"Top","icon":"i.svg","code":"document.scrollTo(0,0)"}]`
	if err := os.WriteFile(path, []byte(compact), 0o644); err != nil {
		t.Fatal(err)
	}

	captureOutput(t, func() {
		if err := runActionsFmt(&cobra.Command{}, []string{path}); err != nil {
			t.Fatalf("fmt failed: %v", err)
		}
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  {") {
		t.Errorf("file not rewritten in canonical form:\n%s", data)
	}

	// Second run is a no-op.
	output := captureOutput(t, func() {
		if err := runActionsFmt(&cobra.Command{}, []string{path}); err != nil {
			t.Fatalf("second fmt failed: %v", err)
		}
	})
	if !strings.Contains(output, "already canonical") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestActionsLintCommand(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	path := filepath.Join(dir, "user-action.json")
	if err := os.WriteFile(path, []byte(`[{"label":"Broken","icon":"i.svg","code":"document.scrollTo(0,0"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	output := captureOutput(t, func() {
		if err := runActionsLint(&cobra.Command{}, []string{path}); err == nil {
			t.Error("syntax error not reported")
		}
	})
	if !strings.Contains(output, "Broken") {
		t.Errorf("output does not name the action: %s", output)
	}
}

func TestCSSLintCommand(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()

	path := filepath.Join(dir, "reader-view.css")
	if err := os.WriteFile(path, []byte("body { color: var(--fg); }"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := captureOutput(t, func() {
		if err := runCSSLint(&cobra.Command{}, []string{path}); err != nil {
			t.Errorf("clean stylesheet flagged: %v", err)
		}
	})
	if !strings.Contains(output, "clean") {
		t.Errorf("unexpected output: %s", output)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
