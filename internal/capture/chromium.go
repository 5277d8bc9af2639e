// Package capture renders the /report page to a PNG via headless
// Chromium, for posting the analysis where a browser is not available.
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultWidth      = 1200
	DefaultHeight     = 1600
	DefaultTimeoutSec = 30
)

// Options defines parameters for a report screenshot.
type Options struct {
	// URL of the report page, e.g. "http://127.0.0.1:8080/report".
	URL string

	// OutputPath is where the PNG will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels; zero
	// selects the defaults.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// ReportPNG navigates a headless Chromium instance to opts.URL, waits
// for the report root to signal readiness via data-ready="true", and
// writes a full-page PNG screenshot.
func ReportPNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeoutSec * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
