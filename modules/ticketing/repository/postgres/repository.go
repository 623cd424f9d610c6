package postgres

import (
	"github.com/gatepass-network/boxoffice/internal/postgres"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/jackc/pgx/v5"
)

// Make sure Repository implements the TicketingDataGateway interface
var _ datagateway.TicketingDataGateway = (*Repository)(nil)

type Repository struct {
	db postgres.DB
	tx pgx.Tx
}

func NewRepository(db postgres.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// queryable returns the current transaction when one is open, so every query
// method works the same inside and outside BeginTicketingTx.
func (r *Repository) queryable() postgres.Queryable {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// limitArg and offsetArg turn the datagateway paging convention (zero means
// unbounded) into LIMIT/OFFSET arguments; NULL disables the clause.

func limitArg(limit int32) *int32 {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func offsetArg(offset int32) *int32 {
	if offset <= 0 {
		return nil
	}
	return &offset
}
