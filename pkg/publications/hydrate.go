package publications

import (
	"context"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type HydratedPublication = models.Hydrated[*models.Publication]

type hydrateFunc func(ctx context.Context, db bun.IDB, ids []string) ([]*HydratedPublication, error)

// hydratePublications loads the publications for ids along with their
// publisher, volume and series. Each table is read once for the whole set.
// Results keep the order of ids; ids that no longer resolve are dropped.
func hydratePublications(ctx context.Context, db bun.IDB, ids []string) ([]*HydratedPublication, error) {
	if len(ids) == 0 {
		return []*HydratedPublication{}, nil
	}

	var publications []*models.Publication
	err := db.NewSelect().
		Model(&publications).
		Where("p.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	publisherIDs := make([]uuid.UUID, 0, len(publications))
	volumeIDs := make([]uuid.UUID, 0, len(publications))
	for _, p := range publications {
		publisherIDs = append(publisherIDs, p.PublisherID)
		volumeIDs = append(volumeIDs, p.VolumeID)
	}

	publishers := map[uuid.UUID]*models.Publisher{}
	if len(publisherIDs) > 0 {
		var rows []*models.Publisher
		err = db.NewSelect().
			Model(&rows).
			Where("pub.id IN (?)", bun.In(publisherIDs)).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, r := range rows {
			publishers[r.ID] = r
		}
	}

	volumes := map[uuid.UUID]*models.Volume{}
	seriesIDs := []uuid.UUID{}
	if len(volumeIDs) > 0 {
		var rows []*models.Volume
		err = db.NewSelect().
			Model(&rows).
			Where("v.id IN (?)", bun.In(volumeIDs)).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, r := range rows {
			volumes[r.ID] = r
			seriesIDs = append(seriesIDs, r.SeriesID)
		}
	}

	series := map[uuid.UUID]*models.Series{}
	if len(seriesIDs) > 0 {
		var rows []*models.Series
		err = db.NewSelect().
			Model(&rows).
			Where("s.id IN (?)", bun.In(seriesIDs)).
			Scan(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, r := range rows {
			series[r.ID] = r
		}
	}

	byID := make(map[string]*models.Publication, len(publications))
	for _, p := range publications {
		byID[p.ID.String()] = p
	}

	hydrated := make([]*HydratedPublication, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		volume := volumes[p.VolumeID]
		var s *models.Series
		if volume != nil {
			s = series[volume.SeriesID]
		}
		hydrated = append(hydrated, models.Hydrate(p, publishers[p.PublisherID], volume, s))
	}

	return hydrated, nil
}
