package papi_test

import (
	"context"
	"errors"
	"testing"

	"github.com/preservio/papi/pkg/papi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPages builds a fetcher over a fixed set of pages keyed by URL,
// counting calls.
func stubPages(pages map[string]*papi.Page[string], calls *int) papi.PageFetcher[string] {
	return func(ctx context.Context, url string) (*papi.Page[string], error) {
		*calls++

		page, ok := pages[url]
		if !ok {
			return nil, errors.New("unknown page: " + url)
		}

		return page, nil
	}
}

func threePages() map[string]*papi.Page[string] {
	return map[string]*papi.Page[string]{
		"https://api.example.com/items":        {Items: []string{"a", "b"}, Next: "https://api.example.com/items?page=2"},
		"https://api.example.com/items?page=2": {Items: []string{"c"}, Next: "https://api.example.com/items?page=3"},
		"https://api.example.com/items?page=3": {Items: []string{"d", "e"}},
	}
}

func TestFetchAllPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("walks every page in order", func(t *testing.T) {
		t.Parallel()

		var calls int

		items, err := papi.FetchAllPages(ctx, "https://api.example.com/items", stubPages(threePages(), &calls))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
		assert.Equal(t, 3, calls)
	})

	t.Run("empty first page yields empty result", func(t *testing.T) {
		t.Parallel()

		pages := map[string]*papi.Page[string]{
			"https://api.example.com/items": {Items: []string{}},
		}

		var calls int

		items, err := papi.FetchAllPages(ctx, "https://api.example.com/items", stubPages(pages, &calls))
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
		assert.Equal(t, 1, calls)
	})

	t.Run("fetch error aborts the walk", func(t *testing.T) {
		t.Parallel()

		pages := map[string]*papi.Page[string]{
			"https://api.example.com/items": {Items: []string{"a"}, Next: "https://api.example.com/missing"},
		}

		var calls int

		_, err := papi.FetchAllPages(ctx, "https://api.example.com/items", stubPages(pages, &calls))
		require.Error(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestPageIterator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("iterates item by item", func(t *testing.T) {
		t.Parallel()

		var calls int

		it := papi.NewPageIterator(ctx, "https://api.example.com/items", stubPages(threePages(), &calls))

		var items []string

		for it.HasNext() {
			item, err := it.Next()
			require.NoError(t, err)

			items = append(items, item)
		}

		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
		assert.Equal(t, 3, calls)
	})

	t.Run("next after exhaustion", func(t *testing.T) {
		t.Parallel()

		var calls int

		it := papi.NewPageIterator(ctx, "", stubPages(threePages(), &calls))
		assert.False(t, it.HasNext())

		_, err := it.Next()
		assert.ErrorIs(t, err, papi.ErrNoMoreItems)
	})

	t.Run("all drains remaining items", func(t *testing.T) {
		t.Parallel()

		var calls int

		it := papi.NewPageIterator(ctx, "https://api.example.com/items", stubPages(threePages(), &calls))

		items, err := it.All()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
	})

	t.Run("foreach stops on callback error", func(t *testing.T) {
		t.Parallel()

		var calls int

		it := papi.NewPageIterator(ctx, "https://api.example.com/items", stubPages(threePages(), &calls))
		stop := errors.New("stop")

		var seen int

		err := it.ForEach(func(item string) error {
			seen++
			if item == "c" {
				return stop
			}

			return nil
		})
		require.ErrorIs(t, err, stop)
		assert.Equal(t, 3, seen)
	})

	t.Run("fetch error surfaces through next", func(t *testing.T) {
		t.Parallel()

		pages := map[string]*papi.Page[string]{
			"https://api.example.com/items": {Items: []string{"a"}, Next: "https://api.example.com/missing"},
		}

		var calls int

		it := papi.NewPageIterator(ctx, "https://api.example.com/items", stubPages(pages, &calls))

		require.True(t, it.HasNext())
		item, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, "a", item)

		require.True(t, it.HasNext())
		_, err = it.Next()
		require.Error(t, err)
	})
}

func TestStreamPages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("delivers one result per page then closes", func(t *testing.T) {
		t.Parallel()

		var calls int

		results := papi.StreamPages(ctx, "https://api.example.com/items", stubPages(threePages(), &calls))

		var items []string

		for result := range results {
			require.NoError(t, result.Err)

			items = append(items, result.Items...)
		}

		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, items)
	})

	t.Run("delivers the error then closes", func(t *testing.T) {
		t.Parallel()

		pages := map[string]*papi.Page[string]{
			"https://api.example.com/items": {Items: []string{"a"}, Next: "https://api.example.com/missing"},
		}

		var calls int

		results := papi.StreamPages(ctx, "https://api.example.com/items", stubPages(pages, &calls))

		var sawError bool

		for result := range results {
			if result.Err != nil {
				sawError = true
			}
		}

		assert.True(t, sawError)
	})
}
