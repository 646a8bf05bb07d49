package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer rasterizes the card in a headless Chrome reached over its
// remote debugging URL. It is the primary strategy: real CSS layout at
// device-pixel-ratio resolution.
type ChromeRenderer struct {
	allocatorURL string
	timeout      time.Duration
}

// NewChromeRenderer builds a renderer against a remote Chrome instance.
func NewChromeRenderer(allocatorURL string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{allocatorURL: allocatorURL, timeout: timeout}
}

// Name identifies the strategy in logs and error messages.
func (r *ChromeRenderer) Name() string { return "chromedp" }

// Render loads the composed page in a fresh tab, screenshots the card node
// and tears the tab down regardless of outcome. The document carries every
// image inline, so the page load needs no network access.
func (r *ChromeRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	page, err := doc.HTML()
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, r.allocatorURL)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(page))

	var shot []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(
			int64(doc.Options.Width),
			int64(doc.Options.Height),
			chromedp.EmulateScale(doc.Options.Scale),
		),
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("#trophy-card", chromedp.ByID),
		chromedp.Screenshot("#trophy-card", &shot, chromedp.NodeVisible, chromedp.ByID),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome capture failed: %w", err)
	}
	if len(shot) == 0 {
		return nil, fmt.Errorf("chrome capture produced no pixels")
	}
	return shot, nil
}
