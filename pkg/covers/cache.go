package covers

import (
	"context"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/config"
	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const (
	cacheExtension = "dat"
	maxWorkers     = 10
	progressEvery  = 100
)

const (
	msgNoCoverURL      = "No cover URL"
	msgNotFound        = "Image not found"
	msgCancelled       = "Request cancelled"
	msgEmptyStream     = "Stream came back empty!"
	msgCooldownPattern = "Image is in cooldown period. Retry after %d seconds"
)

// ImageResult is the outcome of a cover fetch. Error is set when there is no
// image to serve; otherwise Stream is open and the caller must close it.
type ImageResult struct {
	Error     string
	Cover     *models.Cover
	Stream    io.ReadCloser
	FromCache bool
	Cooldown  bool
	NotFound  bool
}

func (r *ImageResult) MimeType() string {
	if r.Cover == nil || r.Cover.MimeType == nil {
		return ""
	}
	return *r.Cover.MimeType
}

func (r *ImageResult) Width() *int {
	if r.Cover == nil {
		return nil
	}
	return r.Cover.ImageWidth
}

func (r *ImageResult) Height() *int {
	if r.Cover == nil {
		return nil
	}
	return r.Cover.ImageHeight
}

// Summary counts the outcome of a ProcessMissing pass.
type Summary struct {
	Total     int  `json:"total"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled"`
}

func (s *Summary) JobData() *models.JobCoversData {
	return &models.JobCoversData{
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Cancelled: s.Cancelled,
	}
}

type Options struct {
	Dir                  string
	ErrorWaitPeriod      time.Duration
	FailuresBeforeDelete int
	Workers              int
}

// OptionsFromConfig reads the cover settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Dir:                  cfg.CacheDir,
		ErrorWaitPeriod:      cfg.CoverErrorWaitPeriod,
		FailuresBeforeDelete: cfg.CoverFailuresBeforeDelete,
		Workers:              cfg.CoverWorkers,
	}
}

// Cache keeps cover images on local disk, looking up and downloading them on
// demand. Failed downloads put a cover into a cooldown; too many failures
// delete the row.
type Cache struct {
	covers     *Service
	lookup     Lookup
	downloader Downloader
	limiter    *Limiter
	opts       Options
	now        func() time.Time
}

func NewCache(covers *Service, lookup Lookup, downloader Downloader, limiter *Limiter, opts Options) *Cache {
	if opts.Dir == "" {
		opts.Dir = "file-cache"
	}
	return &Cache{
		covers:     covers,
		lookup:     lookup,
		downloader: downloader,
		limiter:    limiter,
		opts:       opts,
		now:        time.Now,
	}
}

// NewCacheFromConfig wires a Cache to the cover API and HTTP downloads using
// cfg.
func NewCacheFromConfig(cfg *config.Config, db *bun.DB) *Cache {
	return NewCache(
		NewService(db),
		NewLookupClient(cfg.CoversURL, cfg.HTTPTimeout),
		NewHTTPDownloader(cfg.HTTPTimeout),
		NewLimiter("covers", cfg.CoverRateTokens, cfg.CoverRatePeriod),
		OptionsFromConfig(cfg),
	)
}

// CachePath returns where the image for url lives and the hash naming it.
func (cc *Cache) CachePath(url string) (string, string) {
	sum := md5.Sum([]byte(url)) //nolint:gosec
	hash := hex.EncodeToString(sum[:])
	return filepath.Join(cc.opts.Dir, hash+"."+cacheExtension), hash
}

// Get serves cover from the file cache when it's there and its metadata is
// known, and otherwise downloads it, unless it is cooling down from a recent
// failure.
func (cc *Cache) Get(ctx context.Context, cover *models.Cover) *ImageResult {
	if cover.CoverURL == nil || *cover.CoverURL == "" {
		return &ImageResult{Error: msgNoCoverURL, Cover: cover}
	}

	url := *cover.CoverURL
	p, hash := cc.CachePath(url)

	if cover.FileName != nil && *cover.FileName != "" && cover.MimeType != nil && *cover.MimeType != "" {
		if f, err := os.Open(p); err == nil {
			return &ImageResult{Cover: cover, Stream: f, FromCache: true}
		}
	}

	now := cc.now()
	if cover.LastFailedAt != nil {
		retryAt := cover.LastFailedAt.Add(cc.opts.ErrorWaitPeriod)
		if retryAt.After(now) {
			wait := int(math.Round(retryAt.Sub(now).Seconds()))
			return &ImageResult{Error: fmt.Sprintf(msgCooldownPattern, wait), Cover: cover, Cooldown: true}
		}
	}

	result, err := cc.download(ctx, cover, url, p, hash)
	if err != nil {
		if ctx.Err() != nil {
			return &ImageResult{Error: msgCancelled, Cover: cover}
		}
		logger.FromContext(ctx).Err(err).Error("failed to fetch image", logger.Data{"url": url})
		return cc.handleError(ctx, cover, err.Error())
	}
	return result
}

func (cc *Cache) download(ctx context.Context, cover *models.Cover, url, p, hash string) (*ImageResult, error) {
	dl, err := cc.downloader.Download(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, msgNotFound)
	}
	if dl == nil || dl.Body == nil {
		return nil, errors.New(msgEmptyStream)
	}
	defer dl.Body.Close()

	if err := os.MkdirAll(cc.opts.Dir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}

	f, err := os.Create(p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	written, err := io.Copy(f, dl.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(p)
		return nil, errors.Wrap(err, msgNotFound)
	}
	if written == 0 {
		os.Remove(p)
		return nil, errors.New(msgEmptyStream)
	}

	if cover.MimeType == nil {
		cover.MimeType = dl.MimeType
	}
	if cover.MimeType == nil {
		if mt, err := detectMimeType(p); err == nil {
			cover.MimeType = &mt
		}
	}
	if cover.ImageSize == nil {
		cover.ImageSize = dl.Length
		if cover.ImageSize == nil || *cover.ImageSize <= 0 {
			cover.ImageSize = &written
		}
	}
	if cover.FileName == nil {
		cover.FileName = dl.FileName
		if cover.FileName == nil {
			name := filepath.Base(p)
			cover.FileName = &name
		}
	}
	cover.URLHash = &hash

	if cover.ImageWidth == nil || cover.ImageHeight == nil {
		width, height, err := cc.downloader.Measure(p)
		if err == nil {
			cover.ImageWidth = &width
			cover.ImageHeight = &height
		} else {
			logger.FromContext(ctx).Warn("failed to measure image", logger.Data{"path": p, "error": err.Error()})
		}
	}

	err = cc.covers.UpdateCover(ctx, cover, UpdateCoverOptions{
		Columns: []string{"mime_type", "image_size", "file_name", "url_hash", "image_width", "image_height"},
	})
	if err != nil {
		return nil, err
	}

	stream, err := os.Open(p)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &ImageResult{Cover: cover, Stream: stream, FromCache: false}, nil
}

// handleError records a failed fetch on cover and deletes it once it has
// failed more than the configured number of times.
func (cc *Cache) handleError(ctx context.Context, cover *models.Cover, reason string) *ImageResult {
	log := logger.FromContext(ctx)

	now := cc.now().UTC()
	cover.LastFailedAt = &now
	if cover.FailedReason != nil && *cover.FailedReason != "" {
		combined := *cover.FailedReason + "\n" + reason
		cover.FailedReason = &combined
	} else {
		cover.FailedReason = &reason
	}
	cover.FailedCount++

	err := cc.covers.UpdateCover(ctx, cover, UpdateCoverOptions{
		Columns: []string{"last_failed_at", "failed_reason", "failed_count"},
	})
	if err != nil {
		log.Err(err).Error("failed to record cover failure")
	}

	if cover.FailedCount > cc.opts.FailuresBeforeDelete {
		if err := cc.covers.DeleteCover(ctx, cover.ID); err != nil {
			log.Err(err).Error("failed to delete cover")
		}
	}

	log.Warn("image failed to load", logger.Data{
		"id":     cover.ID,
		"count":  cover.FailedCount,
		"url":    cover.CoverURL,
		"reason": reason,
	})
	return &ImageResult{Error: reason, Cover: cover}
}

// GetImage resolves isbnOrID to a cover row, by id when it parses as one and
// by ISBN otherwise, then behaves like Get.
func (cc *Cache) GetImage(ctx context.Context, isbnOrID string) *ImageResult {
	opts := RetrieveCoverOptions{}
	if id, err := uuid.Parse(isbnOrID); err == nil {
		opts.ID = &id
	} else {
		isbn := models.NormalizeISBN(isbnOrID)
		if isbn == nil {
			return &ImageResult{Error: msgNotFound, NotFound: true}
		}
		opts.ISBN = isbn
	}

	cover, err := cc.covers.RetrieveCover(ctx, opts)
	if err != nil {
		if !errors.Is(err, errcodes.NotFound("Cover")) {
			logger.FromContext(ctx).Err(err).Error("failed to retrieve cover")
		}
		return &ImageResult{Error: msgNotFound, NotFound: true}
	}

	return cc.Get(ctx, cover)
}

// CacheCoverImage asks the cover API for isbn and stores the answer, good or
// bad. It reports whether a URL was found.
func (cc *Cache) CacheCoverImage(ctx context.Context, isbn string) bool {
	log := logger.FromContext(ctx)

	if isbn == "" {
		return false
	}

	if err := cc.limiter.Wait(ctx); err != nil {
		log.Warn("failed to acquire cover lookup token", logger.Data{"isbn": isbn, "error": err.Error()})
		return false
	}

	resp, err := cc.lookup.Get(ctx, isbn)
	if err != nil {
		log.Err(err).Error("error occurred while loading cover", logger.Data{"isbn": isbn})
		return false
	}

	cover := &models.Cover{
		ISBN:         isbn,
		CoverURL:     resp.URL,
		FailedReason: resp.Error,
	}
	if resp.Error != nil {
		now := cc.now().UTC()
		cover.LastFailedAt = &now
		cover.FailedCount = 1
	}
	if resp.URL != nil {
		_, hash := cc.CachePath(*resp.URL)
		cover.URLHash = &hash
	}

	if err := cc.covers.UpsertCover(ctx, cover); err != nil {
		log.Err(err).Error("error occurred while saving cover", logger.Data{"isbn": isbn})
		return false
	}

	return resp.URL != nil && *resp.URL != ""
}

func (cc *Cache) workers() int {
	if cc.opts.Workers > 0 {
		return cc.opts.Workers
	}
	return min(max(runtime.NumCPU(), 1), maxWorkers)
}

// ProcessMissing looks up every ISBN that has no cover row yet. Individual
// failures are counted and never stop the pass. Cancelling ctx stops handing
// out new ISBNs and lets in-flight ones finish.
func (cc *Cache) ProcessMissing(ctx context.Context) (*Summary, error) {
	log := logger.FromContext(ctx)

	missing, err := cc.covers.MissingISBNs(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(missing)}
	if len(missing) == 0 {
		log.Info("no missing cover images to process")
		return summary, nil
	}

	var processed, failed atomic.Int64
	isbns := make(chan string)
	var wg sync.WaitGroup

	for range cc.workers() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for isbn := range isbns {
				if !cc.CacheCoverImage(ctx, isbn) {
					failed.Add(1)
				}
				n := processed.Add(1)
				if n%progressEvery == 0 {
					log.Info("processing missing cover images", logger.Data{
						"processed": n,
						"total":     len(missing),
						"failed":    failed.Load(),
					})
				}
			}
		}()
	}

feed:
	for _, isbn := range missing {
		select {
		case <-ctx.Done():
			break feed
		case isbns <- isbn:
		}
	}
	close(isbns)
	wg.Wait()

	summary.Failed = int(failed.Load())
	summary.Succeeded = int(processed.Load()) - summary.Failed
	summary.Cancelled = ctx.Err() != nil

	log.Info("finished processing missing cover images", logger.Data{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"cancelled": summary.Cancelled,
	})

	return summary, nil
}
