package entity

import (
	"time"

	"github.com/gatepass-network/boxoffice/common"
	"github.com/gaze-network/uint128"
)

// Treasury is the protocol's single ledger-wide account. TotalDeposited and
// TotalPaidOut track every µGP that ever entered or left the ledger, so
// conservation is checkable at any sequence:
//
//	TotalDeposited - TotalPaidOut ==
//	    sum(credit balances) + sum(tier revenue) + treasury Balance
type Treasury struct {
	Balance        uint128.Uint128
	FeesCollected  uint128.Uint128
	TotalDeposited uint128.Uint128
	TotalPaidOut   uint128.Uint128
}

// Payout is one transfer through the payout sink, the ledger's off-ramp.
// Index disambiguates multiple payouts from a single operation
// (withdraw_all pays out once per tier).
type Payout struct {
	Sequence  uint64
	Index     uint32
	Recipient common.Address
	Amount    uint128.Uint128
	CreatedAt time.Time
}
