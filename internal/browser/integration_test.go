//go:build integration

package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"readerview/internal/browser"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Requires a local Chrome. Run with: go test -tags integration ./internal/browser
func TestManagerLifecycle_Integration(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "<html><head><title>probe</title></head><body><h1 id=\"h\">Hello</h1></body></html>")
	}))
	defer ts.Close()

	dir := t.TempDir()
	cfg := browser.DefaultConfig()
	cfg.Headless = true
	cfg.UserDataDir = filepath.Join(dir, "chrome-data")
	cfg.StateFile = filepath.Join(dir, "state.json")
	cfg.NavigationTimeoutMs = 10000
	cfg.SettleDelayMs = 100

	m := browser.NewManager(cfg, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	require.NoError(t, m.Start(ctx))
	defer func() { _ = m.Stop(context.Background()) }()

	require.NoError(t, m.Navigate(ctx, ts.URL))

	out, err := m.Eval(ctx, "document.title")
	require.NoError(t, err)
	require.Equal(t, "probe", out)

	_, err = m.Eval(ctx, "nope.such.thing")
	require.Error(t, err, "JS exception should surface as an error")

	png, err := m.Screenshot(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, png)

	st, err := m.Status(ctx)
	require.NoError(t, err)
	require.True(t, st.Running)
	require.NotEmpty(t, st.Pages)

	// A second manager reattaches through the state file.
	m2 := browser.NewManager(cfg, zap.NewNop())
	require.NoError(t, m2.Connect(ctx))
}
