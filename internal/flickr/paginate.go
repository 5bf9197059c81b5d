package flickr

import (
	"context"
	"fmt"
	"log/slog"
)

// Pager is a listing page that knows its position
type Pager interface {
	PageInfo() (page, pages int)
}

// PageFetcher fetches a single page, numbered from 1
type PageFetcher[T Pager] func(ctx context.Context, page int) (T, error)

// Paginate drives fetch from page 1 while page < pages and returns every page
// in order. Pages are fetched one at a time. Both numbers come from each
// response: a listing reporting pages=0 stops after page 1, and the next
// request follows the page the response says it served. A response that
// omits its page number, or reports one behind the request, counts as the
// page that was requested.
func Paginate[T Pager](ctx context.Context, fetch PageFetcher[T]) ([]T, error) {
	var results []T

	page := 1
	for {
		resp, err := fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		results = append(results, resp)

		served, pages := resp.PageInfo()
		if served < page {
			served = page
		}
		slog.Debug("Fetched listing page", "page", served, "pages", pages)
		if served >= pages {
			break
		}
		page = served + 1
	}

	return results, nil
}

// Collect concatenates the items of every page in page order
func Collect[T Pager, I any](pages []T, items func(T) []I) []I {
	total := 0
	for _, p := range pages {
		total += len(items(p))
	}

	out := make([]I, 0, total)
	for _, p := range pages {
		out = append(out, items(p)...)
	}
	return out
}

// Flatten concatenates the photos of every listing page
func Flatten(pages []*Listing) []RawPhoto {
	return Collect(pages, func(l *Listing) []RawPhoto { return l.Items })
}
