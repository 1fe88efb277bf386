package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/lnrelease/lnc/pkg/publications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	filter         publications.Filter
	skipPagination bool
	results        []*publications.HydratedPublication
}

func (f *fakeSearcher) Search(_ context.Context, filter publications.Filter, skipPagination bool) (*publications.SearchResult, error) {
	f.filter = filter
	f.skipPagination = skipPagination
	return &publications.SearchResult{Pages: 1, Total: len(f.results), Results: f.results}, nil
}

func hydrated(date time.Time) *publications.HydratedPublication {
	return models.Hydrate(&models.Publication{ID: uuid.New(), ReleaseDate: date})
}

func TestCalendarizeWeek(t *testing.T) {
	t.Parallel()

	p := hydrated(time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC))
	searcher := &fakeSearcher{results: []*publications.HydratedPublication{p}}
	svc := NewService(searcher)

	result, err := svc.CalendarizeWeek(context.Background(), publications.Filter{Page: 4, Size: 2}, day(2024, 5, 15))
	require.NoError(t, err)

	assert.True(t, searcher.skipPagination)
	require.NotNil(t, searcher.filter.Start)
	require.NotNil(t, searcher.filter.End)
	assert.Equal(t, day(2024, 5, 12).Time, *searcher.filter.Start)
	assert.Equal(t, day(2024, 5, 18).Time, *searcher.filter.End)

	require.Len(t, result.Chunks, 1)
	assert.Len(t, result.Chunks[0].Entries, 7)
	assert.Equal(t, []uuid.UUID{p.Entity.ID}, result.Chunks[0].Entries[4].Entities)
	assert.Same(t, p, result.Entities[p.Entity.ID])
}

func TestCalendarizeMonth(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{}
	svc := NewService(searcher)

	result, err := svc.CalendarizeMonth(context.Background(), publications.Filter{}, day(2024, 5, 15))
	require.NoError(t, err)

	// May 2024 starts on a Wednesday and ends on a Friday.
	assert.Equal(t, day(2024, 4, 28), result.Start)
	assert.Equal(t, day(2024, 6, 1), result.End)
	assert.Len(t, result.Chunks, 5)
	for _, chunk := range result.Chunks {
		assert.Len(t, chunk.Entries, 7)
	}
}
