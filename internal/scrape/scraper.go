package scrape

import (
	"context"
	"fmt"

	"github.com/sells-group/scout-cli/internal/model"
)

// PageFetcher retrieves a single page. Implementations never retry.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL, referer string) (*model.FetchedPage, error)
}

// FetchError reports a transport, timeout, or parse failure for one URL.
// An HTTP error status is not a FetchError.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("scrape: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
