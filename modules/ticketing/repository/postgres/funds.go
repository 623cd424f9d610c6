package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gaze-network/uint128"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
)

const getFundsAccount = `
SELECT "address", "balance", "nonce" FROM ticketing_funds_accounts WHERE "address" = $1
`

func (r *Repository) GetFundsAccount(ctx context.Context, address common.Address) (*entity.FundsAccount, error) {
	var model fundsAccountModel
	err := r.queryable().QueryRow(ctx, getFundsAccount, address.String()).
		Scan(&model.Address, &model.Balance, &model.Nonce)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "funds account %s not found", address)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	account, err := mapFundsAccountModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse funds account model")
	}
	return account, nil
}

const upsertFundsAccount = `
INSERT INTO ticketing_funds_accounts ("address", "balance", "nonce")
VALUES ($1, $2, $3)
ON CONFLICT ("address") DO UPDATE SET "balance" = EXCLUDED."balance", "nonce" = EXCLUDED."nonce"
`

func (r *Repository) UpsertFundsAccount(ctx context.Context, account *entity.FundsAccount) error {
	_, err := r.queryable().Exec(ctx, upsertFundsAccount,
		account.Address.String(),
		numericFromUint128(account.Balance),
		int64(account.Nonce),
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const getTreasury = `
SELECT "balance", "fees_collected", "total_deposited", "total_paid_out" FROM ticketing_treasury
`

// GetTreasury returns the singleton treasury row, seeded by the migration;
// a zero treasury is returned if the row has not been created yet.
func (r *Repository) GetTreasury(ctx context.Context) (*entity.Treasury, error) {
	var model treasuryModel
	err := r.queryable().QueryRow(ctx, getTreasury).
		Scan(&model.Balance, &model.FeesCollected, &model.TotalDeposited, &model.TotalPaidOut)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Treasury{}, nil
		}
		return nil, errors.Wrap(err, "error during query")
	}
	treasury, err := mapTreasuryModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse treasury model")
	}
	return treasury, nil
}

const updateTreasury = `
INSERT INTO ticketing_treasury ("id", "balance", "fees_collected", "total_deposited", "total_paid_out")
VALUES (TRUE, $1, $2, $3, $4)
ON CONFLICT ("id") DO UPDATE SET
  "balance" = EXCLUDED."balance",
  "fees_collected" = EXCLUDED."fees_collected",
  "total_deposited" = EXCLUDED."total_deposited",
  "total_paid_out" = EXCLUDED."total_paid_out"
`

func (r *Repository) UpdateTreasury(ctx context.Context, treasury *entity.Treasury) error {
	_, err := r.queryable().Exec(ctx, updateTreasury,
		numericFromUint128(treasury.Balance),
		numericFromUint128(treasury.FeesCollected),
		numericFromUint128(treasury.TotalDeposited),
		numericFromUint128(treasury.TotalPaidOut),
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const createPayout = `
INSERT INTO ticketing_payouts ("sequence", "index", "recipient", "amount", "created_at")
VALUES ($1, $2, $3, $4, $5)
`

func (r *Repository) CreatePayout(ctx context.Context, payout *entity.Payout) error {
	_, err := r.queryable().Exec(ctx, createPayout,
		int64(payout.Sequence),
		int32(payout.Index),
		payout.Recipient.String(),
		numericFromUint128(payout.Amount),
		timestampFromTime(payout.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errs.Duplicate, "payout %d/%d already exists", payout.Sequence, payout.Index)
		}
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const getPayouts = `
SELECT "sequence", "index", "recipient", "amount", "created_at" FROM ticketing_payouts
WHERE ($1::TEXT IS NULL OR "recipient" = $1)
ORDER BY "sequence", "index"
LIMIT $2 OFFSET $3
`

func (r *Repository) GetPayouts(ctx context.Context, params datagateway.GetPayoutsParams) ([]*entity.Payout, error) {
	var recipient *string
	if params.Recipient != nil {
		recipient = lo.ToPtr(params.Recipient.String())
	}
	rows, err := r.queryable().Query(ctx, getPayouts, recipient, limitArg(params.Limit), offsetArg(params.Offset))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	payouts := make([]*entity.Payout, 0)
	for rows.Next() {
		var model payoutModel
		if err := rows.Scan(&model.Sequence, &model.Index, &model.Recipient, &model.Amount, &model.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		payout, err := mapPayoutModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse payout model")
		}
		payouts = append(payouts, payout)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return payouts, nil
}

const sumFundsBalances = `
SELECT COALESCE(SUM("balance"), 0) FROM ticketing_funds_accounts
`

func (r *Repository) SumFundsBalances(ctx context.Context) (uint128.Uint128, error) {
	var sum pgtype.Numeric
	if err := r.queryable().QueryRow(ctx, sumFundsBalances).Scan(&sum); err != nil {
		return uint128.Zero, errors.Wrap(err, "error during query")
	}
	total, err := uint128FromNumeric(sum)
	if err != nil {
		return uint128.Zero, errors.Wrap(err, "failed to parse funds balance sum")
	}
	return total, nil
}

const sumTierRevenue = `
SELECT COALESCE(SUM("total_revenue"), 0) FROM ticketing_tiers
`

func (r *Repository) SumTierRevenue(ctx context.Context) (uint128.Uint128, error) {
	var sum pgtype.Numeric
	if err := r.queryable().QueryRow(ctx, sumTierRevenue).Scan(&sum); err != nil {
		return uint128.Zero, errors.Wrap(err, "error during query")
	}
	total, err := uint128FromNumeric(sum)
	if err != nil {
		return uint128.Zero, errors.Wrap(err, "failed to parse tier revenue sum")
	}
	return total, nil
}
