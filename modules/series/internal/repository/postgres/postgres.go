package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mintvault/series-ledger/internal/postgres"
	"github.com/mintvault/series-ledger/modules/series/internal/datagateway"
	"github.com/mintvault/series-ledger/pkg/logger"
)

type Repository struct {
	db postgres.DB
	tx pgx.Tx
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
	}
}

var (
	_ datagateway.SeriesDataGateway       = (*Repository)(nil)
	_ datagateway.SeriesDataGatewayWithTx = (*Repository)(nil)
)

var ErrTxAlreadyExists = errors.New("Transaction already exists. Call Commit() or Rollback() first.")

func (r *Repository) BeginSeriesTx(ctx context.Context) (datagateway.SeriesDataGatewayWithTx, error) {
	if r.tx != nil {
		return nil, errors.WithStack(ErrTxAlreadyExists)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return &Repository{db: r.db, tx: tx}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	if err := r.tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	r.tx = nil
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	err := r.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return errors.Wrap(err, "failed to rollback transaction")
	}
	if err == nil {
		logger.InfoContext(ctx, "rolled back transaction")
	}
	r.tx = nil
	return nil
}

// queryable routes statements through the open transaction when one exists.
func (r *Repository) queryable() postgres.Queryable {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *Repository) sendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults {
	if r.tx != nil {
		return r.tx.SendBatch(ctx, batch)
	}
	return r.db.SendBatch(ctx, batch)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
