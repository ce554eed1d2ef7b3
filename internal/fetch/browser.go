package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// WithBrowser renders a page in headless Chrome and returns the rendered HTML
// once waitSelector is ready. Requires Chrome/Chromium to be installed.
func WithBrowser(ctx context.Context, urlStr string, waitSelector string, timeout time.Duration) (string, error) {
	if err := validateURL(urlStr); err != nil {
		return "", err
	}
	if waitSelector == "" {
		waitSelector = "body"
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &Error{
			URL:     urlStr,
			Message: "browser rendering failed",
			Cause:   err,
		}
	}

	return html, nil
}
