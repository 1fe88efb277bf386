package publishers

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrievePublisherOptions struct {
	ID   *uuid.UUID
	Slug *string
}

type ListPublishersOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdatePublisherOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) RetrievePublisher(ctx context.Context, opts RetrievePublisherOptions) (*models.Publisher, error) {
	publisher := &models.Publisher{}

	q := svc.db.
		NewSelect().
		Model(publisher)

	if opts.ID != nil {
		q = q.Where("pub.id = ?", *opts.ID)
	}
	if opts.Slug != nil {
		q = q.Where("pub.slug = ?", models.GenerateSlug(*opts.Slug))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Publisher")
		}
		return nil, errors.WithStack(err)
	}

	return publisher, nil
}

// RetrievePublisherByIDOrSlug treats idOrSlug as an id when it parses as one.
func (svc *Service) RetrievePublisherByIDOrSlug(ctx context.Context, idOrSlug string) (*models.Publisher, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return svc.RetrievePublisher(ctx, RetrievePublisherOptions{ID: &id})
	}
	return svc.RetrievePublisher(ctx, RetrievePublisherOptions{Slug: &idOrSlug})
}

func (svc *Service) ListPublishers(ctx context.Context, opts ListPublishersOptions) ([]*models.Publisher, error) {
	p, _, err := svc.listPublishersWithTotal(ctx, opts)
	return p, errors.WithStack(err)
}

func (svc *Service) ListPublishersWithTotal(ctx context.Context, opts ListPublishersOptions) ([]*models.Publisher, int, error) {
	opts.includeTotal = true
	return svc.listPublishersWithTotal(ctx, opts)
}

func (svc *Service) listPublishersWithTotal(ctx context.Context, opts ListPublishersOptions) ([]*models.Publisher, int, error) {
	publishers := []*models.Publisher{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&publishers).
		Order("pub.name ASC")

	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		q = q.Where("LOWER(pub.name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(*opts.Search))+"%")
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

	return publishers, total, nil
}

func (svc *Service) UpdatePublisher(ctx context.Context, publisher *models.Publisher, opts UpdatePublisherOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	publisher.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(publisher).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Publisher")
		}
		return errors.WithStack(err)
	}

	return nil
}
