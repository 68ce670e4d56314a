package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Navigate points the active page at url.
func (m *Manager) Navigate(ctx context.Context, url string) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	page, err := m.ActivePage(ctx)
	if err != nil {
		return err
	}
	url = NormalizeTargetURL(url)
	if err := page.Timeout(m.cfg.NavigationTimeout()).Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	m.log.Debug("Navigated", zap.String("url", url))
	return nil
}

// Eval runs an arbitrary JavaScript expression on the active page and
// returns its value rendered as text. Promises are awaited; a thrown
// exception comes back as an error carrying the sandbox's description.
func (m *Manager) Eval(ctx context.Context, expr string) (string, error) {
	if err := m.Connect(ctx); err != nil {
		return "", err
	}
	page, err := m.ActivePage(ctx)
	if err != nil {
		return "", err
	}

	res, err := proto.RuntimeEvaluate{
		Expression:    expr,
		ReturnByValue: true,
		AwaitPromise:  true,
	}.Call(page)
	if err != nil {
		return "", fmt.Errorf("evaluate: %w", err)
	}
	if res.ExceptionDetails != nil {
		return "", fmt.Errorf("js error: %s", exceptionText(res.ExceptionDetails))
	}
	if res.Result == nil || res.Result.Type == proto.RuntimeRemoteObjectTypeUndefined {
		return "", nil
	}
	if !res.Result.Value.Nil() {
		return res.Result.Value.String(), nil
	}
	return res.Result.Description, nil
}

// Click clicks the first element matching the CSS selector.
func (m *Manager) Click(ctx context.Context, selector string) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	page, err := m.ActivePage(ctx)
	if err != nil {
		return err
	}
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("element not found: %s", selector)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	m.log.Debug("Clicked", zap.String("selector", selector))
	return nil
}

// Screenshot captures the active page as PNG bytes.
func (m *Manager) Screenshot(ctx context.Context) ([]byte, error) {
	if err := m.Connect(ctx); err != nil {
		return nil, err
	}
	page, err := m.ActivePage(ctx)
	if err != nil {
		return nil, err
	}
	data, err := page.Screenshot(false, nil)
	if err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return data, nil
}

func exceptionText(details *proto.RuntimeExceptionDetails) string {
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}
