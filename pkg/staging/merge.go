package staging

import (
	"context"
	"database/sql"

	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// MergeResult holds the rows created by a merge. Rows that already existed
// are never included, even when they were updated.
type MergeResult struct {
	Publishers   []*models.Publisher   `json:"publishers"`
	Series       []*models.Series      `json:"series"`
	Volumes      []*models.Volume      `json:"volumes"`
	Publications []*models.Publication `json:"publications"`
	Updated      int                   `json:"updated"`
}

// Empty reports whether the merge created nothing and updated nothing.
func (r *MergeResult) Empty() bool {
	return len(r.Publishers) == 0 &&
		len(r.Series) == 0 &&
		len(r.Volumes) == 0 &&
		len(r.Publications) == 0 &&
		r.Updated == 0
}

const mergePublishersQuery = `
INSERT INTO publishers (slug, name, created_at, updated_at)
SELECT ns.publisher_slug, MIN(ns.publisher), ?0, ?0
FROM novel_staging AS ns
WHERE NOT EXISTS (SELECT 1 FROM publishers AS pub WHERE pub.slug = ns.publisher_slug)
GROUP BY ns.publisher_slug
RETURNING *`

const mergeSeriesQuery = `
INSERT INTO series (slug, title, created_at, updated_at)
SELECT ns.series_slug, MIN(ns.series), ?0, ?0
FROM novel_staging AS ns
WHERE NOT EXISTS (SELECT 1 FROM series AS s WHERE s.slug = ns.series_slug)
GROUP BY ns.series_slug
RETURNING *`

const mergeVolumesQuery = `
INSERT INTO volumes (series_id, volume, title, created_at, updated_at)
SELECT s.id, ns.volume, ns.title, ?0, ?0
FROM novel_staging AS ns
JOIN series AS s ON s.slug = ns.series_slug
WHERE NOT EXISTS (
	SELECT 1 FROM volumes AS v
	WHERE v.series_id = s.id AND v.volume = ns.volume AND v.title = ns.title
)
GROUP BY s.id, ns.volume, ns.title
RETURNING *`

const mergePublicationsQuery = `
INSERT INTO publications (volume_id, publisher_id, format, isbn, url, release_date, hash, created_at, updated_at)
SELECT v.id, pub.id, ns.format, MAX(ns.isbn), NULLIF(MAX(ns.url), ''), MAX(ns.release_date), ns.hash, ?0, ?0
FROM novel_staging AS ns
JOIN series AS s ON s.slug = ns.series_slug
JOIN volumes AS v ON v.series_id = s.id AND v.volume = ns.volume AND v.title = ns.title
JOIN publishers AS pub ON pub.slug = ns.publisher_slug
WHERE NOT EXISTS (SELECT 1 FROM publications AS p WHERE p.hash = ns.hash)
GROUP BY ns.hash
RETURNING *`

const refreshPublicationsQuery = `
UPDATE publications
SET isbn = COALESCE(agg.isbn, publications.isbn),
	url = COALESCE(agg.url, publications.url),
	release_date = agg.release_date,
	updated_at = ?0
FROM (
	SELECT ns.hash, NULLIF(MAX(ns.isbn), '') AS isbn, NULLIF(MAX(ns.url), '') AS url, MAX(ns.release_date) AS release_date
	FROM novel_staging AS ns
	GROUP BY ns.hash
) AS agg
WHERE publications.hash = agg.hash
AND (
	publications.isbn IS NOT COALESCE(agg.isbn, publications.isbn) OR
	publications.url IS NOT COALESCE(agg.url, publications.url) OR
	publications.release_date IS NOT agg.release_date
)`

// Merge folds the staged rows into publishers, series, volumes and
// publications, in that order, inside one transaction. Existing publications
// get their ISBN, URL and release date refreshed from staging. A missing ISBN
// or URL in staging keeps the stored one.
func (svc *Service) Merge(ctx context.Context) (*MergeResult, error) {
	result := &MergeResult{
		Publishers:   []*models.Publisher{},
		Series:       []*models.Series{},
		Volumes:      []*models.Volume{},
		Publications: []*models.Publication{},
	}
	now := svc.now().UTC()

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		steps := []struct {
			query string
			dest  interface{}
		}{
			{mergePublishersQuery, &result.Publishers},
			{mergeSeriesQuery, &result.Series},
			{mergeVolumesQuery, &result.Volumes},
			{mergePublicationsQuery, &result.Publications},
		}
		for _, step := range steps {
			if err := tx.NewRaw(step.query, now).Scan(ctx, step.dest); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return errors.WithStack(err)
			}
		}

		res, err := tx.NewRaw(refreshPublicationsQuery, now).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		updated, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		result.Updated = int(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
