package staging

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lnrelease/lnc/pkg/models"
	"github.com/lnrelease/lnc/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func tableCount(t *testing.T, db *bun.DB, model interface{}) int {
	t.Helper()
	count, err := db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return count
}

func TestMerge(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Load(ctx, feedRows(t, testFeed))
	require.NoError(t, err)

	result, err := svc.Merge(ctx)
	require.NoError(t, err)

	assert.Len(t, result.Publishers, 2)
	assert.Len(t, result.Series, 2)
	assert.Len(t, result.Volumes, 3)
	// the apothecary row is physical and digital
	assert.Len(t, result.Publications, 4)
	assert.Equal(t, 0, result.Updated)

	slugs := []string{}
	for _, p := range result.Publishers {
		assert.NotEqual(t, [16]byte{}, [16]byte(p.ID))
		slugs = append(slugs, p.Slug)
	}
	assert.ElementsMatch(t, []string{"yen-press", "j-novel-club"}, slugs)

	var overlord *models.Series
	for _, s := range result.Series {
		if s.Slug == "overlord" {
			overlord = s
		}
	}
	require.NotNil(t, overlord)
	assert.Equal(t, "Overlord", overlord.Title)

	for _, v := range result.Volumes {
		if strings.HasPrefix(v.Title, "Overlord") {
			assert.Equal(t, overlord.ID, v.SeriesID)
		}
	}

	var vol1 *models.Publication
	for _, p := range result.Publications {
		if p.ISBN != nil {
			vol1 = p
		}
	}
	require.NotNil(t, vol1)
	assert.Equal(t, "9780316272247", *vol1.ISBN)
	assert.Equal(t, models.FormatPhysical, vol1.Format)
	assert.True(t, vol1.ReleaseDate.Equal(time.Date(2016, 5, 24, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, vol1.URL)
	assert.Equal(t, "https://yenpress.com/overlord-1", *vol1.URL)
}

func TestMerge_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Load(ctx, feedRows(t, testFeed))
	require.NoError(t, err)

	_, err = svc.Merge(ctx)
	require.NoError(t, err)

	counts := []int{
		tableCount(t, db, (*models.Publisher)(nil)),
		tableCount(t, db, (*models.Series)(nil)),
		tableCount(t, db, (*models.Volume)(nil)),
		tableCount(t, db, (*models.Publication)(nil)),
	}

	result, err := svc.Merge(ctx)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Empty(t, result.Publishers)
	assert.Empty(t, result.Series)
	assert.Empty(t, result.Volumes)
	assert.Empty(t, result.Publications)

	assert.Equal(t, counts, []int{
		tableCount(t, db, (*models.Publisher)(nil)),
		tableCount(t, db, (*models.Series)(nil)),
		tableCount(t, db, (*models.Volume)(nil)),
		tableCount(t, db, (*models.Publication)(nil)),
	})
}

func TestMerge_UpdatesExistingPublications(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Load(ctx, feedRows(t, testFeed))
	require.NoError(t, err)
	_, err = svc.Merge(ctx)
	require.NoError(t, err)

	// Overlord 2 gains an ISBN and moves its release date.
	changed := strings.Replace(testFeed,
		`"Overlord, Vol. 2", "2", 1, null, "2016-10-25"`,
		`"Overlord, Vol. 2", "2", 1, "979-8-85540-715-0", "2016-11-01"`, 1)

	_, err = svc.Load(ctx, feedRows(t, changed))
	require.NoError(t, err)
	result, err := svc.Merge(ctx)
	require.NoError(t, err)

	assert.Empty(t, result.Publications)
	assert.Equal(t, 1, result.Updated)

	publication := &models.Publication{}
	err = db.NewSelect().Model(publication).Where("p.isbn = ?", "9798855407150").Scan(ctx)
	require.NoError(t, err)
	assert.True(t, publication.ReleaseDate.Equal(time.Date(2016, 11, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, tableCount(t, db, (*models.Publication)(nil)))
}

func TestMerge_KeepsStoredValuesMissingFromStaging(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Load(ctx, feedRows(t, testFeed))
	require.NoError(t, err)
	_, err = svc.Merge(ctx)
	require.NoError(t, err)

	// Overlord 1 loses its ISBN and URL in the next feed.
	changed := strings.Replace(testFeed,
		`[0, "https://yenpress.com/overlord-1", 0, "Overlord, Vol. 1", "1", 1, "978-0-316-27224-7", "2016-05-24"]`,
		`[0, "", 0, "Overlord, Vol. 1", "1", 1, null, "2016-05-24"]`, 1)

	_, err = svc.Load(ctx, feedRows(t, changed))
	require.NoError(t, err)
	result, err := svc.Merge(ctx)
	require.NoError(t, err)
	assert.True(t, result.Empty())

	publication := &models.Publication{}
	err = db.NewSelect().Model(publication).Where("p.isbn = ?", "9780316272247").Scan(ctx)
	require.NoError(t, err)
	require.NotNil(t, publication.URL)
	assert.Equal(t, "https://yenpress.com/overlord-1", *publication.URL)
}

func TestMerge_MatchesExistingFixtures(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	overlord := testutils.CreateSeries(t, db, "Overlord")
	yen := testutils.CreatePublisher(t, db, "Yen Press")
	vol1 := testutils.CreateVolume(t, db, overlord, "1")
	existing := testutils.CreatePublication(t, db, vol1, yen, testutils.Date(2016, 5, 24), testutils.PublicationOptions{
		Format: models.FormatPhysical,
	})

	_, err := svc.Load(ctx, feedRows(t, testFeed))
	require.NoError(t, err)
	result, err := svc.Merge(ctx)
	require.NoError(t, err)

	assert.Len(t, result.Publishers, 1)
	assert.Len(t, result.Series, 1)
	assert.Len(t, result.Volumes, 2)
	assert.Len(t, result.Publications, 3)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 4, tableCount(t, db, (*models.Publication)(nil)))

	publication := &models.Publication{}
	err = db.NewSelect().Model(publication).Where("p.id = ?", existing.ID).Scan(ctx)
	require.NoError(t, err)
	require.NotNil(t, publication.ISBN)
	assert.Equal(t, "9780316272247", *publication.ISBN)
}

func TestMerge_EmptyStaging(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	result, err := svc.Merge(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Empty())
}
