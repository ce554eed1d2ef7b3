package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`<html><body><div id="block-system-main"></div></body></html>`))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"X-Test": "yes"}

	result, err := URL(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "block-system-main")
	assert.Equal(t, "text/html", result.ContentType)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestURL_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := URL(ctx, server.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHasSelector(t *testing.T) {
	assert.True(t, HasSelector(`<div id="block-system-main"></div>`, "#block-system-main"))
	assert.False(t, HasSelector(`<div id="app"></div>`, "#block-system-main"))
}

func TestFetcher_HTTPBodyWithSelector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<div id="block-system-main">static</div>`))
	}))
	defer server.Close()

	f := NewFetcher(time.Second, "#block-system-main", false, nil)
	f.browser = func(context.Context, string, string, time.Duration) (string, error) {
		t.Fatal("browser must not be used when the selector is present")
		return "", nil
	}

	html, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "static")
}

func TestFetcher_FallsBackToBrowser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<div id="app"></div>`))
	}))
	defer server.Close()

	f := NewFetcher(time.Second, "#block-system-main", false, nil)
	f.browser = func(_ context.Context, urlStr, selector string, _ time.Duration) (string, error) {
		assert.Equal(t, server.URL, urlStr)
		assert.Equal(t, "#block-system-main", selector)
		return `<div id="block-system-main">rendered</div>`, nil
	}

	html, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "rendered")
}

func TestFetcher_BrowserFailureKeepsHTTPBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<div id="app">shell</div>`))
	}))
	defer server.Close()

	f := NewFetcher(time.Second, "#block-system-main", false, nil)
	f.browser = func(context.Context, string, string, time.Duration) (string, error) {
		return "", errors.New("chrome not installed")
	}

	html, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "shell")
}

func TestFetcher_AlwaysBrowser(t *testing.T) {
	f := NewFetcher(time.Second, "#block-system-main", true, nil)
	f.browser = func(context.Context, string, string, time.Duration) (string, error) {
		return "<html>browser</html>", nil
	}

	html, err := f.Fetch(context.Background(), "https://example.com/loi")
	require.NoError(t, err)
	assert.Equal(t, "<html>browser</html>", html)
}

func TestFetcher_HTTPErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(time.Second, "#block-system-main", false, nil)
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
}
