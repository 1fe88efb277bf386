// Package testutils holds fixtures shared by package tests that need a
// migrated database and a small catalog.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/migrations"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewDB returns a migrated in-memory database that is closed when the test
// ends. It holds a single connection so temp tables stay visible.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// Date is midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func insert(t *testing.T, db bun.IDB, model interface{}) {
	t.Helper()
	_, err := db.NewInsert().Model(model).Exec(context.Background())
	require.NoError(t, err)
}

func CreatePublisher(t *testing.T, db bun.IDB, name string) *models.Publisher {
	t.Helper()
	now := time.Now()
	publisher := &models.Publisher{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
	}
	publisher.Normalize()
	insert(t, db, publisher)
	return publisher
}

func CreateSeries(t *testing.T, db bun.IDB, title string) *models.Series {
	t.Helper()
	now := time.Now()
	series := &models.Series{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Slug:      models.GenerateSlug(title),
		Title:     title,
	}
	insert(t, db, series)
	return series
}

func CreateVolume(t *testing.T, db bun.IDB, series *models.Series, volume string) *models.Volume {
	t.Helper()
	now := time.Now()
	v := &models.Volume{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		SeriesID:  series.ID,
		Volume:    volume,
		Title:     fmt.Sprintf("%s, Vol. %s", series.Title, volume),
	}
	insert(t, db, v)
	return v
}

type PublicationOptions struct {
	Format models.Format
	ISBN   *string
	URL    *string
}

// CreatePublication hashes the same identity fields a merge does, so merging
// staged rows for the fixture updates it instead of inserting a copy.
func CreatePublication(t *testing.T, db bun.IDB, volume *models.Volume, publisher *models.Publisher, releaseDate time.Time, opts PublicationOptions) *models.Publication {
	t.Helper()
	var seriesSlug string
	err := db.NewSelect().
		Model((*models.Series)(nil)).
		Column("slug").
		Where("id = ?", volume.SeriesID).
		Scan(context.Background(), &seriesSlug)
	require.NoError(t, err)

	now := time.Now()
	publication := &models.Publication{
		ID:          uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
		VolumeID:    volume.ID,
		PublisherID: publisher.ID,
		Format:      opts.Format,
		ISBN:        opts.ISBN,
		URL:         opts.URL,
		ReleaseDate: releaseDate,
		Hash:        models.PublicationHash(seriesSlug, volume.Volume, volume.Title, publisher.Slug, opts.Format),
	}
	insert(t, db, publication)
	return publication
}
