package fetch

import (
	"context"
	"time"

	"github.com/jonathan/loi-watcher/internal/logger"
)

// browserFunc matches WithBrowser; swapped out in tests.
type browserFunc func(ctx context.Context, urlStr, waitSelector string, timeout time.Duration) (string, error)

// Fetcher retrieves the locations page. It uses plain HTTP first and falls
// back to browser rendering when the main selector is missing from the HTTP
// body, or always renders when UseBrowser is set.
type Fetcher struct {
	Options      *Options
	MainSelector string
	UseBrowser   bool
	Logger       logger.Logger

	browser browserFunc
}

// NewFetcher creates a Fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, mainSelector string, useBrowser bool, log logger.Logger) *Fetcher {
	opts := DefaultOptions()
	if timeout > 0 {
		opts.Timeout = timeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{
		Options:      opts,
		MainSelector: mainSelector,
		UseBrowser:   useBrowser,
		Logger:       log,
		browser:      WithBrowser,
	}
}

// Fetch returns the page HTML.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (string, error) {
	if f.UseBrowser {
		return f.render(ctx, urlStr)
	}

	result, err := URL(ctx, urlStr, f.Options)
	if err != nil {
		return "", err
	}
	f.Logger.Debug("page fetched",
		logger.String("url", urlStr),
		logger.Int("status", result.StatusCode),
		logger.Int("bytes", len(result.HTML)))

	if f.MainSelector == "" || HasSelector(result.HTML, f.MainSelector) {
		return result.HTML, nil
	}

	f.Logger.Info("main selector missing from HTTP body, rendering in browser",
		logger.String("url", urlStr),
		logger.String("selector", f.MainSelector))
	html, err := f.render(ctx, urlStr)
	if err != nil {
		// The parser reports the missing region; the HTTP body is still the best evidence.
		f.Logger.Warn("browser rendering failed, using HTTP body", logger.Error(err))
		return result.HTML, nil
	}
	return html, nil
}

func (f *Fetcher) render(ctx context.Context, urlStr string) (string, error) {
	browser := f.browser
	if browser == nil {
		browser = WithBrowser
	}
	return browser(ctx, urlStr, f.MainSelector, f.Options.Timeout)
}
