package usecase

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
)

// GetFundsAccount returns the credit account for an address. Addresses the
// ledger has never seen resolve to a zero-value account, so clients can
// always learn the next valid nonce.
func (u *Usecase) GetFundsAccount(ctx context.Context, address common.Address) (*entity.FundsAccount, error) {
	account, err := u.ticketingDg.GetFundsAccount(ctx, address)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return &entity.FundsAccount{Address: address}, nil
		}
		return nil, errors.Wrap(err, "error during GetFundsAccount")
	}
	return account, nil
}

func (u *Usecase) GetTreasury(ctx context.Context) (*entity.Treasury, error) {
	treasury, err := u.ticketingDg.GetTreasury(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetTreasury")
	}
	return treasury, nil
}

func (u *Usecase) GetPayouts(ctx context.Context, params datagateway.GetPayoutsParams) ([]*entity.Payout, error) {
	payouts, err := u.ticketingDg.GetPayouts(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, "error during GetPayouts")
	}
	return payouts, nil
}
