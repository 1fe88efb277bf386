// Package worker runs the periodic refresh and cover tasks. Every run is
// recorded as a job so that runs of the same type never overlap, whether they
// come from the schedule or from an API request.
package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lnrelease/lnc/pkg/config"
	"github.com/lnrelease/lnc/pkg/covers"
	"github.com/lnrelease/lnc/pkg/feed"
	"github.com/lnrelease/lnc/pkg/jobs"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/lnrelease/lnc/pkg/refresh"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

var ErrCoversDisabled = errors.New("cover processing is disabled: covers_url is not set")

type Refresher interface {
	Load(ctx context.Context) *refresh.Result
}

type CoverProcessor interface {
	ProcessMissing(ctx context.Context) (*covers.Summary, error)
}

type task struct {
	jobType  string
	interval time.Duration
}

type Worker struct {
	log logger.Logger

	jobService *jobs.Service
	refresher  Refresher
	covers     CoverProcessor
	tasks      []task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg *config.Config, db *bun.DB) *Worker {
	source := feed.NewClient(cfg.FeedURL, cfg.HTTPTimeout)

	var coverProcessor CoverProcessor
	if cfg.CoversURL != "" {
		coverProcessor = covers.NewCacheFromConfig(cfg, db)
	}

	return newWorker(jobs.NewService(db), refresh.NewService(source, db), coverProcessor, cfg.RefreshInterval, cfg.CoverInterval)
}

func newWorker(jobService *jobs.Service, refresher Refresher, coverProcessor CoverProcessor, refreshInterval, coverInterval time.Duration) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		log:        logger.New(),
		jobService: jobService,
		refresher:  refresher,
		covers:     coverProcessor,
		ctx:        ctx,
		cancel:     cancel,
	}

	if refreshInterval > 0 {
		w.tasks = append(w.tasks, task{models.JobTypeRefresh, refreshInterval})
	}
	if coverProcessor != nil && coverInterval > 0 {
		w.tasks = append(w.tasks, task{models.JobTypeCovers, coverInterval})
	}

	return w
}

// Start fails jobs left active by earlier processes and starts one goroutine
// per scheduled task. Each task runs immediately and then on its interval.
func (w *Worker) Start() {
	n, err := w.jobService.FailStaleJobs(w.ctx, processID)
	if err != nil {
		w.log.Err(err).Error("fail stale jobs error")
	} else if n > 0 {
		w.log.Warn("failed stale jobs", logger.Data{"count": n})
	}

	for _, t := range w.tasks {
		w.wg.Add(1)
		go w.schedule(t)
	}
}

func (w *Worker) schedule(t task) {
	defer w.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	w.runScheduled(t.jobType)
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.runScheduled(t.jobType)
		}
	}
}

func (w *Worker) runScheduled(jobType string) {
	log := w.log.ID(uuid.New().String()).Root(logger.Data{"type": jobType, "process_id": processID})
	ctx := log.WithContext(w.ctx)

	_, err := w.Run(ctx, jobType)
	if errors.Is(err, jobs.ErrAlreadyRunning) {
		log.Info("job already running, skipping")
		return
	}
	if err != nil {
		log.Err(err).Error("scheduled job error")
	}
}

// Run runs a single job of jobType and returns its finished record.
func (w *Worker) Run(ctx context.Context, jobType string) (*models.Job, error) {
	switch jobType {
	case models.JobTypeRefresh:
		return w.run(ctx, jobType, func(ctx context.Context) (bool, interface{}, error) {
			result := w.refresher.Load(ctx)
			return result.Success, result.JobData(), nil
		})
	case models.JobTypeCovers:
		if w.covers == nil {
			return nil, ErrCoversDisabled
		}
		return w.run(ctx, jobType, func(ctx context.Context) (bool, interface{}, error) {
			summary, err := w.covers.ProcessMissing(ctx)
			if err != nil {
				return false, &models.JobCoversData{}, err
			}
			return true, summary.JobData(), nil
		})
	default:
		return nil, errors.Errorf("unknown job type %q", jobType)
	}
}

// RunRefresh runs a refresh job and returns the pipeline result.
func (w *Worker) RunRefresh(ctx context.Context) (*refresh.Result, error) {
	var result *refresh.Result
	_, err := w.run(ctx, models.JobTypeRefresh, func(ctx context.Context) (bool, interface{}, error) {
		result = w.refresher.Load(ctx)
		return result.Success, result.JobData(), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Worker) run(ctx context.Context, jobType string, fn func(ctx context.Context) (bool, interface{}, error)) (*models.Job, error) {
	job, err := w.jobService.StartJob(ctx, jobType, processID)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).Root(logger.Data{"job_id": job.ID, "type": jobType})
	ctx = log.WithContext(ctx)
	log.Info("job started")

	success, data, runErr := fn(ctx)

	// The job record is written even when ctx was cancelled mid-run.
	err = w.jobService.FinishJob(context.WithoutCancel(ctx), job, success && runErr == nil, data)
	if err != nil {
		log.Err(err).Error("finish job error")
		if runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return job, runErr
	}

	log.Info("job finished", logger.Data{"status": job.Status})
	return job, nil
}

// Shutdown cancels in-flight runs and waits for every task to return.
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
