package ticketing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (l *ledger) payouts() []*entity.Payout {
	l.t.Helper()
	payouts, err := l.dg.GetPayouts(context.Background(), datagateway.GetPayoutsParams{})
	require.NoError(l.t, err)
	return payouts
}

func TestWithdrawWhileSaleActive(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)
	l.fund(buyer, 1000)
	l.buy(buyer, eventID, 0, 200)

	payload := protocol.WithdrawPayload{EventID: eventID, TierID: 0}
	l.mustReject(organizer, types.OpWithdraw, 0, payload, protocol.ReasonSaleStillActive)

	// the window boundary itself is still active
	l.advance(10000 * time.Second)
	l.mustReject(organizer, types.OpWithdraw, 0, payload, protocol.ReasonSaleStillActive)
	assert.EqualValues(t, 200, l.tier(eventID, 0).TotalRevenue.Uint64())

	l.advance(1 * time.Second)
	receipt := l.mustApply(organizer, types.OpWithdraw, 0, payload)
	var result WithdrawResult
	require.NoError(t, json.Unmarshal(receipt.Result, &result))
	assert.EqualValues(t, 200, result.Amount.Uint64())
	l.assertConserved()
}

func TestWithdrawSoldOutForceClosesSale(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	scarce := defaultTierConfig()
	scarce.TotalTickets = 2
	eventID := l.setupEvent(organizer, scarce)
	l.fund(buyer, 1000)
	l.buy(buyer, eventID, 0, 200)
	l.buy(buyer, eventID, 0, 200)

	l.advance(50 * time.Second)
	receipt := l.mustApply(organizer, types.OpWithdraw, 0, protocol.WithdrawPayload{EventID: eventID, TierID: 0})
	var result WithdrawResult
	require.NoError(t, json.Unmarshal(receipt.Result, &result))
	assert.EqualValues(t, 400, result.Amount.Uint64())

	tier := l.tier(eventID, 0)
	assert.True(t, tier.TotalRevenue.IsZero())
	assert.Equal(t, l.now, tier.EndTime, "sold-out withdrawal force-closes the sale")
	assert.EqualValues(t, 400, l.treasury().TotalPaidOut.Uint64())

	payouts := l.payouts()
	require.Len(t, payouts, 1)
	assert.Equal(t, receipt.Sequence, payouts[0].Sequence)
	assert.EqualValues(t, 0, payouts[0].Index)
	assert.Equal(t, organizer.Address(), payouts[0].Recipient)
	assert.EqualValues(t, 400, payouts[0].Amount.Uint64())

	events := l.events(receipt.Sequence)
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindWithdrawal, events[0].Kind)
	assert.EqualValues(t, 400, events[0].Amount.Uint64())

	t.Run("second_withdrawal_is_an_applied_noop", func(t *testing.T) {
		receipt := l.mustApply(organizer, types.OpWithdraw, 0, protocol.WithdrawPayload{EventID: eventID, TierID: 0})
		var result WithdrawResult
		require.NoError(t, json.Unmarshal(receipt.Result, &result))
		assert.True(t, result.Amount.IsZero())
		assert.Empty(t, l.events(receipt.Sequence))
		assert.Len(t, l.payouts(), 1)
	})
	l.assertConserved()
}

func TestWithdrawRejectingSinkRevertsEverything(t *testing.T) {
	t.Parallel()
	l := newLedger(t, WithPayoutSinkFactory(func(dgTx datagateway.TicketingDataGatewayWithTx, operation *types.Operation) PayoutSink {
		return rejectingSink{}
	}))
	organizer, buyer := newSigner(t), newSigner(t)
	scarce := defaultTierConfig()
	scarce.TotalTickets = 2
	eventID := l.setupEvent(organizer, scarce)
	l.fund(buyer, 1000)
	l.buy(buyer, eventID, 0, 200)
	l.buy(buyer, eventID, 0, 200)

	l.advance(50 * time.Second)
	l.mustReject(organizer, types.OpWithdraw, 0, protocol.WithdrawPayload{EventID: eventID, TierID: 0}, protocol.ReasonTransferFailed)

	// every staged effect is rolled back: revenue, force-close, treasury
	tier := l.tier(eventID, 0)
	assert.EqualValues(t, 400, tier.TotalRevenue.Uint64())
	assert.Equal(t, testStart.Add(10000*time.Second), tier.EndTime)
	assert.True(t, l.treasury().TotalPaidOut.IsZero())
	assert.Empty(t, l.payouts())
	l.assertConserved()
}

func TestWithdrawAll(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)

	scarce := defaultTierConfig()
	scarce.Name, scarce.TotalTickets = "Scarce", 2
	short := defaultTierConfig()
	short.Name = "Short"
	short.EndTime = testStart.Add(1000 * time.Second).Unix()
	idle := defaultTierConfig()
	idle.Name = "Idle"
	eventID := l.setupEvent(organizer, scarce, short, idle)
	l.fund(buyer, 1000)
	l.buy(buyer, eventID, 0, 200)
	l.buy(buyer, eventID, 0, 200)
	l.buy(buyer, eventID, 1, 200)

	l.advance(1001 * time.Second)
	receipt := l.mustApply(organizer, types.OpWithdrawAll, 0, protocol.WithdrawAllPayload{EventID: eventID})
	var result WithdrawAllResult
	require.NoError(t, json.Unmarshal(receipt.Result, &result))
	assert.EqualValues(t, 600, result.Total.Uint64())
	require.Len(t, result.Tiers, 2)
	assert.EqualValues(t, 400, result.Tiers[0].Amount.Uint64())
	assert.EqualValues(t, 200, result.Tiers[1].Amount.Uint64())

	// one sink across tiers keeps payout indexes sequential
	payouts := l.payouts()
	require.Len(t, payouts, 2)
	assert.EqualValues(t, 0, payouts[0].Index)
	assert.EqualValues(t, 1, payouts[1].Index)
	assert.Equal(t, receipt.Sequence, payouts[0].Sequence)
	assert.Equal(t, receipt.Sequence, payouts[1].Sequence)

	// the zero-revenue tier was skipped, not failed, and remains open
	assert.True(t, l.tier(eventID, 2).TotalRevenue.IsZero())
	assert.Equal(t, testStart.Add(10000*time.Second), l.tier(eventID, 2).EndTime)

	events := l.events(receipt.Sequence)
	require.Len(t, events, 2)
	assert.Equal(t, entity.EventKindWithdrawal, events[0].Kind)
	assert.Equal(t, entity.EventKindWithdrawal, events[1].Kind)
	assert.EqualValues(t, 600, l.treasury().TotalPaidOut.Uint64())
	l.assertConserved()
}

// TestWithdrawAllIsAtomic rejects the whole operation when any tier with
// revenue fails its gates, reverting payouts already staged for earlier
// tiers.
func TestWithdrawAllIsAtomic(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)

	scarce := defaultTierConfig()
	scarce.Name, scarce.TotalTickets = "Scarce", 2
	open := defaultTierConfig()
	open.Name = "Open"
	eventID := l.setupEvent(organizer, scarce, open)
	l.fund(buyer, 1000)
	l.buy(buyer, eventID, 0, 200)
	l.buy(buyer, eventID, 0, 200)
	l.buy(buyer, eventID, 1, 200)

	l.advance(50 * time.Second)
	l.mustReject(organizer, types.OpWithdrawAll, 0, protocol.WithdrawAllPayload{EventID: eventID}, protocol.ReasonSaleStillActive)

	// the sold-out tier's staged payout and force-close were reverted
	tier := l.tier(eventID, 0)
	assert.EqualValues(t, 400, tier.TotalRevenue.Uint64())
	assert.Equal(t, testStart.Add(10000*time.Second), tier.EndTime)
	assert.EqualValues(t, 200, l.tier(eventID, 1).TotalRevenue.Uint64())
	assert.Empty(t, l.payouts())
	assert.True(t, l.treasury().TotalPaidOut.IsZero())
	l.assertConserved()
}

func TestWithdrawGates(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, stranger := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)

	l.mustReject(stranger, types.OpWithdraw, 0, protocol.WithdrawPayload{EventID: eventID, TierID: 0}, protocol.ReasonUnauthorized)
	l.mustReject(stranger, types.OpWithdrawAll, 0, protocol.WithdrawAllPayload{EventID: eventID}, protocol.ReasonUnauthorized)
	l.mustReject(organizer, types.OpWithdraw, 0, protocol.WithdrawPayload{EventID: 42, TierID: 0}, protocol.ReasonInvalidEventID)
	l.mustReject(organizer, types.OpWithdraw, 0, protocol.WithdrawPayload{EventID: eventID, TierID: 9}, protocol.ReasonUnknownTier)
}

type rejectingSink struct{}

func (rejectingSink) Transfer(ctx context.Context, recipient common.Address, amount uint128.Uint128) error {
	return errors.New("sink offline")
}
