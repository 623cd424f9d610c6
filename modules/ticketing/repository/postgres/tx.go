package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// BeginTicketingTx opens a transaction scoped to a new Repository. Calling it
// on a Repository that is already inside a transaction opens a savepoint, so
// the processor can roll back an operation's domain effects while keeping its
// journal entry.
func (r *Repository) BeginTicketingTx(ctx context.Context) (datagateway.TicketingDataGatewayWithTx, error) {
	var (
		tx  pgx.Tx
		err error
	)
	if r.tx != nil {
		tx, err = r.tx.Begin(ctx)
	} else {
		tx, err = r.db.Begin(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return &Repository{
		db: r.db,
		tx: tx,
	}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.tx == nil {
		return nil
	}
	err := r.tx.Commit(ctx)
	if err != nil {
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
		logger.DebugContext(ctx, "rolled back transaction")
	}
	r.tx = nil
	return nil
}
