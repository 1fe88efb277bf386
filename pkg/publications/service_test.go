package publications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/lnrelease/lnc/pkg/testutils"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type catalog struct {
	yen, jnc             *models.Publisher
	overlord, apoth      *models.Series
	overlord1, overlord2 *models.Volume
	apoth1               *models.Volume
	// release order: o1 physical, o1 digital, o2 physical, a1 digital
	o1p, o1d, o2p, a1d *models.Publication
}

func seedCatalog(t *testing.T, db *bun.DB) *catalog {
	t.Helper()
	c := &catalog{}
	c.yen = testutils.CreatePublisher(t, db, "Yen Press")
	c.jnc = testutils.CreatePublisher(t, db, "J-Novel Club")
	c.overlord = testutils.CreateSeries(t, db, "Overlord")
	c.apoth = testutils.CreateSeries(t, db, "The Apothecary Diaries")
	c.overlord1 = testutils.CreateVolume(t, db, c.overlord, "1")
	c.overlord2 = testutils.CreateVolume(t, db, c.overlord, "2")
	c.apoth1 = testutils.CreateVolume(t, db, c.apoth, "1")

	c.o1p = testutils.CreatePublication(t, db, c.overlord1, c.yen, testutils.Date(2016, 5, 24), testutils.PublicationOptions{
		Format: models.FormatPhysical,
		ISBN:   pointerutil.String("9780316272247"),
	})
	c.o1d = testutils.CreatePublication(t, db, c.overlord1, c.yen, testutils.Date(2016, 5, 25), testutils.PublicationOptions{
		Format: models.FormatDigital,
	})
	c.o2p = testutils.CreatePublication(t, db, c.overlord2, c.yen, testutils.Date(2016, 10, 25), testutils.PublicationOptions{
		Format: models.FormatPhysical,
		ISBN:   pointerutil.String("9780316363914"),
	})
	c.a1d = testutils.CreatePublication(t, db, c.apoth1, c.jnc, testutils.Date(2020, 12, 1), testutils.PublicationOptions{
		Format: models.FormatDigital,
	})
	return c
}

func resultIDs(result *SearchResult) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(result.Results))
	for _, r := range result.Results {
		ids = append(ids, r.Entity.ID)
	}
	return ids
}

func TestFilterPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		page, size   int
		skip         bool
		expectedPage int
		expectedSize int
	}{
		{"defaults", 0, 0, false, 1, DefaultPageSize},
		{"size clamps to max", 1, 500, false, 1, MaxPageSize},
		{"page zero clamps to one", 0, 10, false, 1, 10},
		{"negative page clamps to one", -4, 10, false, 1, 10},
		{"negative size clamps to one", 2, -1, false, 2, 1},
		{"passes through in range values", 3, 50, false, 3, 50},
		{"skip forces first page and no limit", 5, 10, true, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := Filter{Page: tt.page, Size: tt.size}.Pagination(tt.skip)
			assert.Equal(t, tt.expectedPage, page)
			assert.Equal(t, tt.expectedSize, size)
		})
	}
}

func TestSearch_DefaultOrderIsNewestFirst(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	c := seedCatalog(t, db)
	svc := NewService(db)

	result, err := svc.Search(context.Background(), Filter{}, false)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, []uuid.UUID{c.a1d.ID, c.o2p.ID, c.o1d.ID, c.o1p.ID}, resultIDs(result))
}

func TestSearch_AscendingPaged(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	c := seedCatalog(t, db)
	svc := NewService(db)
	ctx := context.Background()

	first, err := svc.Search(ctx, Filter{Asc: true, Page: 1, Size: 3}, false)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Total)
	assert.Equal(t, 2, first.Pages)
	assert.Equal(t, []uuid.UUID{c.o1p.ID, c.o1d.ID, c.o2p.ID}, resultIDs(first))

	second, err := svc.Search(ctx, Filter{Asc: true, Page: 2, Size: 3}, false)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.a1d.ID}, resultIDs(second))

	beyond, err := svc.Search(ctx, Filter{Asc: true, Page: 9, Size: 3}, false)
	require.NoError(t, err)
	assert.Equal(t, 4, beyond.Total)
	assert.Empty(t, beyond.Results)
}

func TestSearch_SkipPagination(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	result, err := svc.Search(context.Background(), Filter{Page: 3, Size: 1}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
	assert.Len(t, result.Results, 4)
}

func TestSearch_Filters(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	c := seedCatalog(t, db)
	svc := NewService(db)
	svc.now = func() time.Time { return testutils.Date(2018, 1, 1) }

	tests := []struct {
		name     string
		filter   Filter
		expected []uuid.UUID
	}{
		{
			name: "inclusive date range",
			filter: Filter{
				Start: pointerutil.Time(testutils.Date(2016, 5, 25)),
				End:   pointerutil.Time(testutils.Date(2016, 10, 25)),
			},
			expected: []uuid.UUID{c.o2p.ID, c.o1d.ID},
		},
		{
			name:     "publisher",
			filter:   Filter{PublisherIDs: []uuid.UUID{c.jnc.ID}},
			expected: []uuid.UUID{c.a1d.ID},
		},
		{
			name:     "format",
			filter:   Filter{Formats: []models.Format{models.FormatPhysical}},
			expected: []uuid.UUID{c.o2p.ID, c.o1p.ID},
		},
		{
			name:     "isbn with hyphens",
			filter:   Filter{ISBNs: []string{"978-0-316-27224-7"}},
			expected: []uuid.UUID{c.o1p.ID},
		},
		{
			name:     "released",
			filter:   Filter{Released: boolPtr(true)},
			expected: []uuid.UUID{c.o2p.ID, c.o1d.ID, c.o1p.ID},
		},
		{
			name:     "unreleased",
			filter:   Filter{Released: boolPtr(false)},
			expected: []uuid.UUID{c.a1d.ID},
		},
		{
			name:     "series title search",
			filter:   Filter{Search: "apothecary"},
			expected: []uuid.UUID{c.a1d.ID},
		},
		{
			name:     "volume title search",
			filter:   Filter{Search: "Overlord, Vol. 2"},
			expected: []uuid.UUID{c.o2p.ID},
		},
		{
			name: "combined",
			filter: Filter{
				PublisherIDs: []uuid.UUID{c.yen.ID},
				Formats:      []models.Format{models.FormatDigital},
				Search:       "overlord",
			},
			expected: []uuid.UUID{c.o1d.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Search(context.Background(), tt.filter, false)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resultIDs(result))
			assert.Equal(t, len(tt.expected), result.Total)
		})
	}
}

func TestSearch_ExcludesSoftDeleted(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	c := seedCatalog(t, db)
	svc := NewService(db)
	ctx := context.Background()

	_, err := db.NewDelete().Model(c.overlord2).WherePK().Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewDelete().Model(c.o1d).WherePK().Exec(ctx)
	require.NoError(t, err)

	result, err := svc.Search(ctx, Filter{}, false)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{c.a1d.ID, c.o1p.ID}, resultIDs(result))
}

func TestSearch_NoMatchesSkipsHydration(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	seedCatalog(t, db)
	svc := NewService(db)

	called := false
	svc.hydrate = func(ctx context.Context, db bun.IDB, ids []string) ([]*HydratedPublication, error) {
		called = true
		return hydratePublications(ctx, db, ids)
	}

	result, err := svc.Search(context.Background(), Filter{ISBNs: []string{"0000000000"}}, false)
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, 0, result.Pages)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
}

func TestSearch_HydratesRelationships(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	c := seedCatalog(t, db)
	svc := NewService(db)

	result, err := svc.Search(context.Background(), Filter{Search: "apothecary"}, false)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)

	hydrated := result.Results[0]
	require.Len(t, hydrated.Related, 3)

	publisher, ok := hydrated.Find(models.RelationPublisher).(*models.Publisher)
	require.True(t, ok)
	assert.Equal(t, c.jnc.ID, publisher.ID)

	volume, ok := hydrated.Find(models.RelationVolume).(*models.Volume)
	require.True(t, ok)
	assert.Equal(t, c.apoth1.ID, volume.ID)

	series, ok := hydrated.Find(models.RelationSeries).(*models.Series)
	require.True(t, ok)
	assert.Equal(t, c.apoth.ID, series.ID)
}

func TestRetrieveWithRelationships(t *testing.T) {
	t.Parallel()
	db := testutils.NewDB(t)
	c := seedCatalog(t, db)
	svc := NewService(db)
	ctx := context.Background()

	hydrated, err := svc.RetrieveWithRelationships(ctx, c.o2p.ID)
	require.NoError(t, err)
	assert.Equal(t, c.o2p.ID, hydrated.Entity.ID)
	assert.Len(t, hydrated.Related, 3)

	_, err = svc.RetrieveWithRelationships(ctx, uuid.New())
	assert.ErrorIs(t, err, errcodes.NotFound("Publication"))
}

func boolPtr(b bool) *bool {
	return &b
}
