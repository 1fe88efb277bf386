package publications

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/search"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type SearchResult struct {
	Pages   int                    `json:"pages"`
	Total   int                    `json:"total"`
	Results []*HydratedPublication `json:"results"`
}

var candidateTableSeq atomic.Int64

type Service struct {
	db      *bun.DB
	now     func() time.Time
	hydrate hydrateFunc
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db:      db,
		now:     time.Now,
		hydrate: hydratePublications,
	}
}

// Search collects the ids of every live publication matching filter into a
// temp table, counts them, slices the requested page ordered by release date
// and hydrates only that page.
func (svc *Service) Search(ctx context.Context, filter Filter, skipPagination bool) (*SearchResult, error) {
	log := logger.FromContext(ctx)
	page, size := filter.Pagination(skipPagination)

	result := &SearchResult{Results: []*HydratedPublication{}}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		table := fmt.Sprintf("search_candidates_%d", candidateTableSeq.Add(1))

		_, err := tx.NewRaw("CREATE TEMP TABLE ? AS ?", bun.Ident(table), svc.candidates(tx, filter)).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		err = tx.NewRaw("SELECT COUNT(*) FROM ?", bun.Ident(table)).Scan(ctx, &result.Total)
		if err != nil {
			return errors.WithStack(err)
		}

		if result.Total > 0 {
			direction := "DESC"
			if filter.Asc {
				direction = "ASC"
			}
			limit, offset := -1, 0
			if !skipPagination {
				limit, offset = size, (page-1)*size
			}

			var ids []string
			err = tx.NewRaw(
				"SELECT id FROM ? ORDER BY release_date "+direction+", id "+direction+" LIMIT ? OFFSET ?",
				bun.Ident(table), limit, offset,
			).Scan(ctx, &ids)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return errors.WithStack(err)
			}

			if len(ids) > 0 {
				result.Results, err = svc.hydrate(ctx, tx, ids)
				if err != nil {
					return err
				}
			}
		}

		_, err = tx.NewRaw("DROP TABLE ?", bun.Ident(table)).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	switch {
	case result.Total == 0:
		result.Pages = 0
	case skipPagination:
		result.Pages = 1
	default:
		result.Pages = (result.Total + size - 1) / size
	}

	log.Debug("publication search", logger.Data{"total": result.Total, "page": page, "returned": len(result.Results)})

	return result, nil
}

// candidates selects (id, release_date) for every non-deleted publication
// whose volume, series and publisher are also live and which passes every
// predicate in filter.
func (svc *Service) candidates(db bun.IDB, filter Filter) *bun.SelectQuery {
	q := db.NewSelect().
		TableExpr("publications AS p").
		ColumnExpr("p.id, p.release_date").
		Join("JOIN volumes AS v ON v.id = p.volume_id AND v.deleted_at IS NULL").
		Join("JOIN series AS s ON s.id = v.series_id AND s.deleted_at IS NULL").
		Join("JOIN publishers AS pub ON pub.id = p.publisher_id AND pub.deleted_at IS NULL").
		Where("p.deleted_at IS NULL")

	if filter.Start != nil {
		q = q.Where("p.release_date >= ?", startOfDay(*filter.Start))
	}
	if filter.End != nil {
		q = q.Where("p.release_date < ?", startOfDay(*filter.End).AddDate(0, 0, 1))
	}
	if len(filter.PublisherIDs) > 0 {
		q = q.Where("p.publisher_id IN (?)", bun.In(filter.PublisherIDs))
	}
	if filter.Released != nil {
		now := svc.now().UTC()
		if *filter.Released {
			q = q.Where("p.release_date <= ?", now)
		} else {
			q = q.Where("p.release_date > ?", now)
		}
	}
	if len(filter.Formats) > 0 {
		q = q.Where("p.format IN (?)", bun.In(filter.Formats))
	}
	if isbns := filter.normalizedISBNs(); len(isbns) > 0 {
		q = q.Where("p.isbn IN (?)", bun.In(isbns))
	}
	if phrase := search.PhraseQuery(filter.search()); phrase != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("s.rowid IN (SELECT rowid FROM series_fts WHERE series_fts MATCH ?)", phrase).
				WhereOr("v.rowid IN (SELECT rowid FROM volumes_fts WHERE volumes_fts MATCH ?)", phrase)
		})
	}

	return q
}

// RetrieveWithRelationships returns a single publication with its publisher,
// volume and series attached.
func (svc *Service) RetrieveWithRelationships(ctx context.Context, id uuid.UUID) (*HydratedPublication, error) {
	hydrated, err := svc.hydrate(ctx, svc.db, []string{id.String()})
	if err != nil {
		return nil, err
	}
	if len(hydrated) == 0 {
		return nil, errcodes.NotFound("Publication")
	}
	return hydrated[0], nil
}
