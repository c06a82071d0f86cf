package scraping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zatekoja/amalaspotdiscovery/internal/domain/providers"
)

const defaultFetchTimeout = 15 * time.Second

// HTTPFetcher implements the PageFetcher interface over plain HTTP GET
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// NewHTTPFetcher creates a new page fetcher with the declared user agent
func NewHTTPFetcher(userAgent string, httpClient *http.Client) providers.PageFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &HTTPFetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Fetch retrieves the raw HTML at url
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch of %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return string(body), nil
}
