package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/lnrelease/lnc/pkg/errcodes"
	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// ErrAlreadyRunning is returned when a job of the same type is still pending
// or in progress.
var ErrAlreadyRunning = errors.New("a job of this type is already running")

type RetrieveJobOptions struct {
	ID *int
}

type ListJobsOptions struct {
	Limit    *int
	Offset   *int
	Statuses []string
	Type     *string

	includeTotal bool
}

type UpdateJobOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateJob(ctx context.Context, job *models.Job) error {
	return svc.createJob(ctx, svc.db, job)
}

func (svc *Service) createJob(ctx context.Context, db bun.IDB, job *models.Job) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = job.CreatedAt

	if job.Data == "" && job.DataParsed != nil {
		if err := job.MarshalData(); err != nil {
			return err
		}
	}

	_, err := db.
		NewInsert().
		Model(job).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// StartJob creates an in-progress job of jobType owned by processID unless
// one is already active, in which case it returns ErrAlreadyRunning.
func (svc *Service) StartJob(ctx context.Context, jobType, processID string) (*models.Job, error) {
	job := &models.Job{
		Type:      jobType,
		Status:    models.JobStatusInProgress,
		ProcessID: &processID,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		active, err := hasActiveJobByType(ctx, tx, jobType)
		if err != nil {
			return err
		}
		if active {
			return ErrAlreadyRunning
		}
		return svc.createJob(ctx, tx, job)
	})
	if err != nil {
		return nil, err
	}

	return job, nil
}

// FinishJob stores data on job and marks it completed or failed.
func (svc *Service) FinishJob(ctx context.Context, job *models.Job, success bool, data interface{}) error {
	now := time.Now()
	job.FinishedAt = &now
	job.Status = models.JobStatusCompleted
	if !success {
		job.Status = models.JobStatusFailed
	}
	job.DataParsed = data
	if err := job.MarshalData(); err != nil {
		return err
	}

	return svc.UpdateJob(ctx, job, UpdateJobOptions{
		Columns: []string{"status", "data", "finished_at"},
	})
}

func (svc *Service) RetrieveJob(ctx context.Context, opts RetrieveJobOptions) (*models.Job, error) {
	job := &models.Job{}

	q := svc.db.
		NewSelect().
		Model(job)

	if opts.ID != nil {
		q = q.Where("j.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Job")
		}
		return nil, errors.WithStack(err)
	}

	if err := job.UnmarshalData(); err != nil {
		return nil, err
	}

	return job, nil
}

func (svc *Service) ListJobs(ctx context.Context, opts ListJobsOptions) ([]*models.Job, error) {
	j, _, err := svc.listJobsWithTotal(ctx, opts)
	return j, errors.WithStack(err)
}

func (svc *Service) ListJobsWithTotal(ctx context.Context, opts ListJobsOptions) ([]*models.Job, int, error) {
	opts.includeTotal = true
	return svc.listJobsWithTotal(ctx, opts)
}

func (svc *Service) listJobsWithTotal(ctx context.Context, opts ListJobsOptions) ([]*models.Job, int, error) {
	jobs := []*models.Job{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&jobs).
		Order("j.created_at DESC", "j.id DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if len(opts.Statuses) > 0 {
		q = q.Where("j.status IN (?)", bun.In(opts.Statuses))
	}
	if opts.Type != nil {
		q = q.Where("j.type = ?", *opts.Type)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, job := range jobs {
		if err := job.UnmarshalData(); err != nil {
			return nil, 0, err
		}
	}

	return jobs, total, nil
}

// HasActiveJobByType checks if there's a pending or in-progress job of the given type.
func (svc *Service) HasActiveJobByType(ctx context.Context, jobType string) (bool, error) {
	return hasActiveJobByType(ctx, svc.db, jobType)
}

func hasActiveJobByType(ctx context.Context, db bun.IDB, jobType string) (bool, error) {
	count, err := db.NewSelect().
		Model((*models.Job)(nil)).
		Where("type = ?", jobType).
		Where("status IN (?)", bun.In([]string{models.JobStatusPending, models.JobStatusInProgress})).
		Count(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return count > 0, nil
}

// FailStaleJobs fails every active job that doesn't belong to processID.
// Those were left behind by a process that stopped without finishing them.
func (svc *Service) FailStaleJobs(ctx context.Context, processID string) (int, error) {
	now := time.Now()
	res, err := svc.db.NewUpdate().
		Model((*models.Job)(nil)).
		Set("status = ?", models.JobStatusFailed).
		Set("finished_at = ?", now).
		Set("updated_at = ?", now).
		Where("status IN (?)", bun.In([]string{models.JobStatusPending, models.JobStatusInProgress})).
		WhereGroup(" AND ", func(sq *bun.UpdateQuery) *bun.UpdateQuery {
			return sq.
				Where("process_id IS NULL").
				WhereOr("process_id != ?", processID)
		}).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	return int(n), errors.WithStack(err)
}

func (svc *Service) UpdateJob(ctx context.Context, job *models.Job, opts UpdateJobOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	job.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(job).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Job")
		}
		return errors.WithStack(err)
	}

	return nil
}
