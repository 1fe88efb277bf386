package search

import (
	"context"
	"strings"

	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const defaultGlobalSearchLimit = 5

type GlobalSearchOptions struct {
	Query string
	// Limit caps each entity list. Zero uses the default.
	Limit int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// GlobalSearch prefix-matches series and volume titles through FTS5 and
// publisher names through LIKE.
func (svc *Service) GlobalSearch(ctx context.Context, opts GlobalSearchOptions) (*GlobalSearchResponse, error) {
	resp := &GlobalSearchResponse{
		Series:     []*models.Series{},
		Volumes:    []*models.Volume{},
		Publishers: []*models.Publisher{},
	}

	ftsQuery := PrefixQuery(opts.Query)
	if ftsQuery == "" {
		return resp, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultGlobalSearchLimit
	}

	err := svc.db.NewSelect().
		Model(&resp.Series).
		Where("s.rowid IN (SELECT rowid FROM series_fts WHERE series_fts MATCH ?)", ftsQuery).
		Order("s.title ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	err = svc.db.NewSelect().
		Model(&resp.Volumes).
		Where("v.rowid IN (SELECT rowid FROM volumes_fts WHERE volumes_fts MATCH ?)", ftsQuery).
		Order("v.title ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	like := "%" + strings.ToLower(strings.TrimSpace(opts.Query)) + "%"
	err = svc.db.NewSelect().
		Model(&resp.Publishers).
		Where("LOWER(pub.name) LIKE ?", like).
		Order("pub.name ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return resp, nil
}
