package providers

import (
	"context"
)

// PageFetcher defines the interface for fetching raw web pages
type PageFetcher interface {
	// Fetch retrieves the raw HTML at url
	Fetch(ctx context.Context, url string) (string, error)
}
