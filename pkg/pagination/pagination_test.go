package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainConcatenatesPages(t *testing.T) {
	pages := map[string]Page[string]{
		"":   {Items: []string{"a", "b"}, NextCursor: "p2"},
		"p2": {Items: []string{"c"}, NextCursor: "p3"},
		"p3": {Items: []string{"d"}},
	}

	var cursorsSeen []string
	items, err := Drain(context.Background(), func(ctx context.Context, cursor string) (Page[string], error) {
		cursorsSeen = append(cursorsSeen, cursor)
		return pages[cursor], nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, items)
	assert.Equal(t, []string{"", "p2", "p3"}, cursorsSeen)
}

func TestDrainSinglePage(t *testing.T) {
	items, err := Drain(context.Background(), func(ctx context.Context, cursor string) (Page[int], error) {
		return Page[int]{Items: []int{1, 2, 3}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, items)
}

func TestDrainPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("server unavailable")
	calls := 0
	items, err := Drain(context.Background(), func(ctx context.Context, cursor string) (Page[string], error) {
		calls++
		if calls == 2 {
			return Page[string]{}, fetchErr
		}
		return Page[string]{Items: []string{"x"}, NextCursor: "next"}, nil
	})

	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, []string{"x"}, items, "items fetched before the failure are returned")
}

func TestDrainGuardsAgainstCursorLoops(t *testing.T) {
	_, err := Drain(context.Background(), func(ctx context.Context, cursor string) (Page[string], error) {
		return Page[string]{NextCursor: "same"}, nil
	})
	assert.ErrorIs(t, err, ErrTooManyPages)
}
