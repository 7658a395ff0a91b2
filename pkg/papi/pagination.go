package papi

import (
	"context"
	"errors"
)

// ErrNoMoreItems is returned by PageIterator.Next when the cursor is
// exhausted.
var ErrNoMoreItems = errors.New("no more items")

// Page is one batch of a cursor-paginated collection. Next holds the
// absolute URL of the following page; absent and empty both mean the
// collection is exhausted.
type Page[T any] struct {
	Items []T
	Next  string
}

// PageFetcher fetches and decodes one page at the given URL.
type PageFetcher[T any] func(ctx context.Context, url string) (*Page[T], error)

// FetchAllPages walks a cursor-paginated collection from startURL until no
// next-page URL remains, accumulating items in arrival order. The walk is a
// plain loop so arbitrarily long collections cannot exhaust the stack, and
// each page's fetch depends on the previous page's cursor, so there is no
// speculative prefetch. An empty first page yields an empty result, not an
// error.
func FetchAllPages[T any](ctx context.Context, startURL string, fetch PageFetcher[T]) ([]T, error) {
	items := []T{}

	for url := startURL; url != ""; {
		page, err := fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Items...)
		url = page.Next
	}

	return items, nil
}

// PageIterator lazily walks a cursor-paginated collection item by item.
type PageIterator[T any] struct {
	ctx     context.Context
	fetch   PageFetcher[T]
	nextURL string
	current []T
	index   int
	err     error
}

// NewPageIterator creates an iterator over the collection at startURL.
func NewPageIterator[T any](ctx context.Context, startURL string, fetch PageFetcher[T]) *PageIterator[T] {
	return &PageIterator[T]{
		ctx:     ctx,
		fetch:   fetch,
		nextURL: startURL,
	}
}

// HasNext reports whether another item (or a pending fetch error) is
// available. It fetches pages as the current batch is exhausted.
func (it *PageIterator[T]) HasNext() bool {
	if it.err != nil {
		return true
	}

	for it.index >= len(it.current) {
		if it.nextURL == "" {
			return false
		}

		page, err := it.fetch(it.ctx, it.nextURL)
		if err != nil {
			it.err = err

			return true
		}

		it.current = page.Items
		it.index = 0
		it.nextURL = page.Next
	}

	return true
}

// Next returns the next item. Callers must check HasNext first.
func (it *PageIterator[T]) Next() (T, error) {
	var zero T

	if it.err != nil {
		err := it.err
		it.err = nil

		return zero, err
	}

	if it.index >= len(it.current) && !it.HasNext() {
		return zero, ErrNoMoreItems
	}

	if it.err != nil {
		err := it.err
		it.err = nil

		return zero, err
	}

	item := it.current[it.index]
	it.index++

	return item, nil
}

// All drains the iterator, returning every remaining item in order.
func (it *PageIterator[T]) All() ([]T, error) {
	items := []T{}

	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}

// ForEach applies fn to every remaining item, stopping on the first error.
func (it *PageIterator[T]) ForEach(fn func(item T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// PageResult is one page delivered by StreamPages.
type PageResult[T any] struct {
	Items []T
	Err   error
}

// StreamPages walks the collection in a goroutine, delivering one PageResult
// per page on the returned channel. The channel is closed when the cursor is
// exhausted, an error occurs, or ctx is cancelled.
func StreamPages[T any](ctx context.Context, startURL string, fetch PageFetcher[T]) <-chan PageResult[T] {
	results := make(chan PageResult[T])

	go func() {
		defer close(results)

		for url := startURL; url != ""; {
			page, err := fetch(ctx, url)
			if err != nil {
				select {
				case results <- PageResult[T]{Err: err}:
				case <-ctx.Done():
				}

				return
			}

			select {
			case results <- PageResult[T]{Items: page.Items}:
			case <-ctx.Done():
				return
			}

			url = page.Next
		}
	}()

	return results
}
