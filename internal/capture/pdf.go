// Package capture renders a URL to a PDF with headless Chrome for
// visual-evidence purposes.
package capture

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Renderer turns a URL into a byte blob suitable for upload. Target pages may
// take several seconds to become interactive; WaitHints carries the settle
// time the caller is willing to spend.
type Renderer interface {
	RenderPDF(ctx context.Context, url string, hints WaitHints) ([]byte, error)
}

// WaitHints tunes how long the renderer lets the page settle before printing.
type WaitHints struct {
	Settle time.Duration
}

// ChromeRenderer runs a fresh headless-Chrome context per capture under a
// bounded timeout.
type ChromeRenderer struct {
	timeout time.Duration
}

// NewChromeRenderer creates a renderer with the given per-capture timeout.
func NewChromeRenderer(timeout time.Duration) *ChromeRenderer {
	return &ChromeRenderer{timeout: timeout}
}

// RenderPDF navigates to the URL, waits for the page to settle, and prints a
// landscape A4 PDF. Slow single-page apps are accommodated by the settle
// delay rather than load-event heuristics.
func (r *ChromeRenderer) RenderPDF(ctx context.Context, url string, hints WaitHints) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	settle := hints.Settle
	if settle <= 0 {
		settle = 2 * time.Second
	}

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(url),
		chromedp.Sleep(settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithLandscape(true).
				WithPrintBackground(true).
				WithPaperWidth(11.69).
				WithPaperHeight(8.27).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}
