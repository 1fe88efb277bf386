package staging

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"github.com/lnrelease/lnc/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

const defaultBatchSize = 500

type Service struct {
	db        *bun.DB
	batchSize int
	now       func() time.Time
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db:        db,
		batchSize: defaultBatchSize,
		now:       time.Now,
	}
}

// Truncate empties the staging table.
func (svc *Service) Truncate(ctx context.Context) error {
	_, err := svc.db.NewTruncateTable().
		Model((*models.NovelStaging)(nil)).
		Exec(ctx)
	return errors.WithStack(err)
}

// Load replaces the staging table contents with rows. The table is emptied
// first and stays empty if rows yields an error, the context is cancelled or
// an insert fails. Rows are written in multi-row batches inside a single
// transaction.
func (svc *Service) Load(ctx context.Context, rows iter.Seq2[*models.NovelStaging, error]) (int, error) {
	log := logger.FromContext(ctx)

	if err := svc.Truncate(ctx); err != nil {
		return 0, err
	}

	total := 0
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		batch := make([]*models.NovelStaging, 0, svc.batchSize)

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := tx.NewInsert().Model(&batch).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			total += len(batch)
			batch = batch[:0]
			return nil
		}

		for row, err := range rows {
			if err != nil {
				return err
			}
			batch = append(batch, row)
			if len(batch) >= svc.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})
	if err != nil {
		return 0, err
	}

	log.Info("staging loaded", logger.Data{"rows": total})
	return total, nil
}

// Count returns the number of rows currently staged.
func (svc *Service) Count(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.NovelStaging)(nil)).
		Count(ctx)
	return count, errors.WithStack(err)
}
