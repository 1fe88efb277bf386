// Package refresh pulls the upstream feed into the catalog: fetch, decode,
// expand, stage and merge.
package refresh

import (
	"context"

	"github.com/lnrelease/lnc/pkg/feed"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/lnrelease/lnc/pkg/staging"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const (
	descFetchFailed   = "Failed to fetch feed"
	descDecodeFailed  = "Failed to decode feed"
	descNoNovels      = "No novels found"
	descStagingFailed = "Failed to load staging table"
	descMergeFailed   = "Failed to merge staging table"
	descCancelled     = "Refresh cancelled"
)

// FeedSource produces the upstream feed document.
type FeedSource interface {
	Get(ctx context.Context) (*feed.Document, error)
}

// Data is the payload of a successful refresh.
type Data struct {
	Novels int `json:"novels"`
	Staged int `json:"staged"`
	*staging.MergeResult
}

type Result struct {
	Success     bool   `json:"success"`
	Cancelled   bool   `json:"cancelled,omitempty"`
	Description string `json:"description,omitempty"`
	Data        *Data  `json:"data,omitempty"`
}

// JobData summarizes the result for the job record.
func (r *Result) JobData() *models.JobRefreshData {
	data := &models.JobRefreshData{
		Success:     r.Success,
		Cancelled:   r.Cancelled,
		Description: r.Description,
	}
	if r.Data == nil {
		return data
	}
	data.Novels = r.Data.Novels
	data.Staged = r.Data.Staged
	if m := r.Data.MergeResult; m != nil {
		data.Publishers = len(m.Publishers)
		data.Series = len(m.Series)
		data.Volumes = len(m.Volumes)
		data.Publications = len(m.Publications)
		data.Updated = m.Updated
	}
	return data
}

type Service struct {
	source  FeedSource
	staging *staging.Service
}

func NewService(source FeedSource, db *bun.DB) *Service {
	return &Service{
		source:  source,
		staging: staging.NewService(db),
	}
}

// Load runs the whole pipeline. It never returns an error: failures and
// cancellation are reported through the result.
func (svc *Service) Load(ctx context.Context) *Result {
	log := logger.FromContext(ctx)

	doc, err := svc.source.Get(ctx)
	if err != nil {
		return failure(ctx, err, descFetchFailed)
	}

	if doc.Len() == 0 {
		log.Warn(descNoNovels)
		return &Result{Description: descNoNovels}
	}
	log.Info("feed fetched", logger.Data{"novels": doc.Len()})

	staged, err := svc.staging.Load(ctx, feed.ExpandAll(doc.Novels()))
	if err != nil {
		var serr *feed.StructuralError
		if errors.As(err, &serr) {
			return failure(ctx, err, descDecodeFailed)
		}
		return failure(ctx, err, descStagingFailed)
	}

	merged, err := svc.staging.Merge(ctx)
	if err != nil {
		return failure(ctx, err, descMergeFailed)
	}

	log.Info("feed merged", logger.Data{
		"publishers":   len(merged.Publishers),
		"series":       len(merged.Series),
		"volumes":      len(merged.Volumes),
		"publications": len(merged.Publications),
		"updated":      merged.Updated,
	})

	return &Result{
		Success: true,
		Data: &Data{
			Novels:      doc.Len(),
			Staged:      staged,
			MergeResult: merged,
		},
	}
}

func failure(ctx context.Context, err error, desc string) *Result {
	if isCancelled(ctx, err) {
		logger.FromContext(ctx).Info(descCancelled)
		return &Result{Cancelled: true, Description: descCancelled}
	}
	logger.FromContext(ctx).Err(err).Error(desc)
	return &Result{Description: desc}
}

func isCancelled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		ctx.Err() != nil
}
