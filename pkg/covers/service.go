package covers

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveCoverOptions struct {
	ID   *uuid.UUID
	ISBN *string
}

type UpdateCoverOptions struct {
	Columns []string
}

// Service is the covers table.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) RetrieveCover(ctx context.Context, opts RetrieveCoverOptions) (*models.Cover, error) {
	cover := &models.Cover{}

	q := svc.db.
		NewSelect().
		Model(cover)

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}
	if opts.ISBN != nil {
		q = q.Where("c.isbn = ?", *opts.ISBN)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Cover")
		}
		return nil, errors.WithStack(err)
	}

	return cover, nil
}

// UpsertCover inserts cover, or overwrites the lookup fields of the row that
// already holds its ISBN. cover is refreshed from the stored row.
func (svc *Service) UpsertCover(ctx context.Context, cover *models.Cover) error {
	now := time.Now()
	if cover.ID == uuid.Nil {
		cover.ID = uuid.New()
	}
	if cover.CreatedAt.IsZero() {
		cover.CreatedAt = now
	}
	cover.UpdatedAt = now

	_, err := svc.db.
		NewInsert().
		Model(cover).
		On("CONFLICT (isbn) DO UPDATE").
		Set("cover_url = EXCLUDED.cover_url").
		Set("failed_reason = EXCLUDED.failed_reason").
		Set("last_failed_at = EXCLUDED.last_failed_at").
		Set("failed_count = EXCLUDED.failed_count").
		Set("url_hash = EXCLUDED.url_hash").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) UpdateCover(ctx context.Context, cover *models.Cover, opts UpdateCoverOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	cover.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(cover).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Cover")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteCover removes the row entirely so the ISBN shows up as missing again.
func (svc *Service) DeleteCover(ctx context.Context, id uuid.UUID) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.Cover)(nil)).
		Where("id = ?", id).
		ForceDelete().
		Exec(ctx)
	return errors.WithStack(err)
}

// MissingISBNs lists every distinct ISBN on a live publication that has no
// cover row.
func (svc *Service) MissingISBNs(ctx context.Context) ([]string, error) {
	var isbns []string

	err := svc.db.
		NewSelect().
		TableExpr("publications AS p").
		ColumnExpr("DISTINCT p.isbn").
		Join("LEFT JOIN covers AS c ON c.isbn = p.isbn").
		Where("p.isbn IS NOT NULL").
		Where("p.isbn != ''").
		Where("p.deleted_at IS NULL").
		Where("c.id IS NULL").
		OrderExpr("p.isbn ASC").
		Scan(ctx, &isbns)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return isbns, nil
}
