package series

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/lnrelease/lnc/pkg/search"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveSeriesOptions struct {
	ID   *uuid.UUID
	Slug *string
}

type ListSeriesOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

// HydratedVolume is a volume with its series attached.
type HydratedVolume = models.Hydrated[*models.Volume]

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := svc.db.
		NewSelect().
		Model(series)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.Slug != nil {
		q = q.Where("s.slug = ?", models.GenerateSlug(*opts.Slug))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}

	return series, nil
}

// RetrieveSeriesByIDOrSlug treats idOrSlug as an id when it parses as one.
func (svc *Service) RetrieveSeriesByIDOrSlug(ctx context.Context, idOrSlug string) (*models.Series, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &id})
	}
	return svc.RetrieveSeries(ctx, RetrieveSeriesOptions{Slug: &idOrSlug})
}

func (svc *Service) ListSeries(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, error) {
	s, _, err := svc.listSeriesWithTotal(ctx, opts)
	return s, errors.WithStack(err)
}

func (svc *Service) ListSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	opts.includeTotal = true
	return svc.listSeriesWithTotal(ctx, opts)
}

func (svc *Service) listSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	series := []*models.Series{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&series).
		Order("s.title ASC")

	if opts.Search != nil {
		if ftsQuery := search.PrefixQuery(*opts.Search); ftsQuery != "" {
			q = q.Where("s.rowid IN (SELECT rowid FROM series_fts WHERE series_fts MATCH ?)", ftsQuery)
		}
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return series, total, nil
}

// ListVolumes returns the live volumes of a series in volume number order.
// Labels that aren't numbers sort after the numbered ones.
func (svc *Service) ListVolumes(ctx context.Context, seriesID uuid.UUID) ([]*models.Volume, error) {
	volumes := []*models.Volume{}

	err := svc.db.
		NewSelect().
		Model(&volumes).
		Where("v.series_id = ?", seriesID).
		OrderExpr("CAST(v.volume AS REAL) = 0 AND v.volume NOT GLOB '0*' ASC").
		OrderExpr("CAST(v.volume AS REAL) ASC").
		Order("v.volume ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return volumes, nil
}

func (svc *Service) RetrieveVolumeWithRelationships(ctx context.Context, id uuid.UUID) (*HydratedVolume, error) {
	volume := &models.Volume{}

	err := svc.db.
		NewSelect().
		Model(volume).
		Where("v.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Volume")
		}
		return nil, errors.WithStack(err)
	}

	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &volume.SeriesID})
	if err != nil {
		if errors.Is(err, errcodes.NotFound("Series")) {
			return nil, errcodes.NotFound("Volume")
		}
		return nil, err
	}

	return models.Hydrate(volume, series), nil
}
