package entity

import (
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gaze-network/uint128"
)

// FundsAccount is one address's credit balance and replay-protection nonce.
// A fresh address has balance 0 and nonce 0; its first valid envelope
// carries nonce 1. Both applied and rejected operations consume the nonce.
type FundsAccount struct {
	Address common.Address
	Balance uint128.Uint128
	Nonce   uint64
}
