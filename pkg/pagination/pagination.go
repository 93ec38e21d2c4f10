// Package pagination provides helpers for draining cursor-paginated list
// operations in the Model Context Protocol. Cursors are opaque tokens; a
// page with an empty nextCursor is the final one.
package pagination

import (
	"context"
	"errors"
)

// ErrTooManyPages is returned by Drain when a server keeps handing out
// cursors past the page guard, which indicates a cursor loop.
var ErrTooManyPages = errors.New("pagination: page guard exceeded, cursor may be looping")

// maxPages bounds a single drain so a misbehaving server cannot spin the
// client forever.
const maxPages = 1000

// Page is one fetched page: the items it carried and the cursor for the
// next one. An empty NextCursor ends the drain.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// FetchFunc fetches the page addressed by cursor; an empty cursor addresses
// the first page.
type FetchFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// Drain fetches pages until the server stops returning a cursor and
// concatenates the items in arrival order.
func Drain[T any](ctx context.Context, fetch FetchFunc[T]) ([]T, error) {
	var (
		items  []T
		cursor string
	)
	for page := 0; ; page++ {
		if page == maxPages {
			return items, ErrTooManyPages
		}
		p, err := fetch(ctx, cursor)
		if err != nil {
			return items, err
		}
		items = append(items, p.Items...)
		if p.NextCursor == "" {
			return items, nil
		}
		cursor = p.NextCursor
	}
}
