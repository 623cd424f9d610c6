package ticketing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gatepass-network/boxoffice/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buy submits a purchase and returns the decoded result.
func (l *ledger) buy(buyer *crypto.Signer, eventID uint64, tierID uint32, payment uint64) *PurchaseResult {
	l.t.Helper()
	receipt := l.mustApply(buyer, types.OpPurchase, payment, protocol.PurchasePayload{EventID: eventID, TierID: tierID})
	var result PurchaseResult
	require.NoError(l.t, json.Unmarshal(receipt.Result, &result))
	return &result
}

func TestPurchase(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)
	l.fund(buyer, 1000)

	// no demand signal yet and the decay interval has not elapsed, so the
	// sale clears at the launch price
	result := l.buy(buyer, eventID, 0, 200)
	assert.EqualValues(t, 1, result.Serial)
	assert.EqualValues(t, 200, result.Price)

	tier := l.tier(eventID, 0)
	assert.EqualValues(t, 1, tier.TicketsSold)
	assert.EqualValues(t, 200, tier.TotalRevenue.Uint64())
	assert.EqualValues(t, 2, tier.NextSerial)
	assert.EqualValues(t, 800, l.account(buyer.Address()).Balance.Uint64())

	ticket, err := l.dg.GetTicket(context.Background(), eventID, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, buyer.Address(), ticket.Owner)
	assert.EqualValues(t, 200, ticket.PricePaid)
	assert.Equal(t, l.sequence, ticket.MintSequence)

	balance, err := l.dg.GetTicketBalance(context.Background(), eventID, 0, buyer.Address())
	require.NoError(t, err)
	assert.EqualValues(t, 1, balance.Balance)

	events := l.events(l.sequence)
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindTicketPurchased, events[0].Kind)
	assert.EqualValues(t, 1, events[0].Serial)
	assert.EqualValues(t, 200, events[0].Price)

	t.Run("overpayment_is_custodied_in_full", func(t *testing.T) {
		result := l.buy(buyer, eventID, 0, 250)
		assert.EqualValues(t, 200, result.Price)
		assert.EqualValues(t, 2, result.Serial)
		assert.EqualValues(t, 450, l.tier(eventID, 0).TotalRevenue.Uint64())
		assert.EqualValues(t, 550, l.account(buyer.Address()).Balance.Uint64())

		ticket, err := l.dg.GetTicket(context.Background(), eventID, 0, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 250, ticket.PricePaid)
	})

	l.assertConserved()
}

// TestPurchaseStalePriceFails walks a tier sold at a pace that keeps nudging
// the price upward, then offers the previous quote for the next ticket.
func TestPurchaseStalePriceFails(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)
	l.fund(buyer, 2000)

	// five sales 50s apart; the decay step (200-100)/10 = 10 becomes the
	// upward nudge once the observed rate meets the target rate
	l.advance(100 * time.Second)
	wantPrices := []uint64{200, 210, 220, 230, 240}
	for _, want := range wantPrices {
		result := l.buy(buyer, eventID, 0, want)
		assert.EqualValues(t, want, result.Price)
		l.advance(50 * time.Second)
	}
	assert.EqualValues(t, 240, l.tier(eventID, 0).CurrentPrice)
	assert.EqualValues(t, 900, l.account(buyer.Address()).Balance.Uint64())

	// the sixth ticket now quotes 250; offering the previous price fails
	// and the failed attempt moves nothing
	l.mustReject(buyer, types.OpPurchase, 240, protocol.PurchasePayload{EventID: eventID, TierID: 0}, protocol.ReasonInsufficientPayment)
	tier := l.tier(eventID, 0)
	assert.EqualValues(t, 5, tier.TicketsSold)
	assert.EqualValues(t, 240, tier.CurrentPrice)
	assert.EqualValues(t, 1100, tier.TotalRevenue.Uint64())
	assert.EqualValues(t, 900, l.account(buyer.Address()).Balance.Uint64())

	// meeting the fresh quote clears
	result := l.buy(buyer, eventID, 0, 250)
	assert.EqualValues(t, 250, result.Price)
	l.assertConserved()
}

// TestPurchaseDemandSurge sells twice within one sales interval, doubling
// the observed rate and triggering the proportional price jump.
func TestPurchaseDemandSurge(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)
	l.fund(buyer, 1000)

	l.advance(100 * time.Second)
	assert.EqualValues(t, 200, l.buy(buyer, eventID, 0, 200).Price)

	l.advance(10 * time.Second)
	assert.EqualValues(t, 210, l.buy(buyer, eventID, 0, 210).Price)

	// rate 2/1 against target 1: (2-1)*100/1 = +100
	l.advance(10 * time.Second)
	result := l.buy(buyer, eventID, 0, 310)
	assert.EqualValues(t, 310, result.Price)

	events := l.events(l.sequence)
	require.Len(t, events, 2)
	assert.Equal(t, entity.EventKindTicketPurchased, events[0].Kind)
	assert.Equal(t, entity.EventKindPriceChanged, events[1].Kind)
	assert.EqualValues(t, 310, events[1].Price)
}

// TestPurchaseBelowTargetRate sells far below the pace needed to clear a
// large tier, pulling the price down proportionally.
func TestPurchaseBelowTargetRate(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	big := defaultTierConfig()
	big.TotalTickets = 1000
	eventID := l.setupEvent(organizer, big)
	l.fund(buyer, 1000)

	l.advance(50 * time.Second)
	assert.EqualValues(t, 200, l.buy(buyer, eventID, 0, 200).Price)

	// rate 1 against target 999/99 = 10: down (10-1)*100/10 = 90
	l.advance(50 * time.Second)
	assert.EqualValues(t, 110, l.buy(buyer, eventID, 0, 110).Price)

	// the base price floors every further pull
	l.advance(100 * time.Second)
	assert.EqualValues(t, 100, l.buy(buyer, eventID, 0, 100).Price)
	l.assertConserved()
}

func TestPurchaseGates(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)

	future := defaultTierConfig()
	future.StartTime = testStart.Add(1000 * time.Second).Unix()
	eventID := l.setupEvent(organizer, defaultTierConfig(), future)
	l.fund(buyer, 10000)

	t.Run("unknown_event", func(t *testing.T) {
		l.mustReject(buyer, types.OpPurchase, 200, protocol.PurchasePayload{EventID: 42, TierID: 0}, protocol.ReasonInvalidEventID)
	})

	t.Run("unknown_tier", func(t *testing.T) {
		l.mustReject(buyer, types.OpPurchase, 200, protocol.PurchasePayload{EventID: eventID, TierID: 9}, protocol.ReasonUnknownTier)
	})

	t.Run("unlaunched_event", func(t *testing.T) {
		l.fund(organizer, testRegistrationFee)
		receipt := l.mustApply(organizer, types.OpRegisterEvent, testRegistrationFee, protocol.RegisterEventPayload{
			Name:  "Draft",
			Venue: "TBD",
			Tiers: []protocol.TierConfig{defaultTierConfig()},
		})
		var draft RegisterEventResult
		require.NoError(t, json.Unmarshal(receipt.Result, &draft))
		l.mustReject(buyer, types.OpPurchase, 200, protocol.PurchasePayload{EventID: draft.EventID, TierID: 0}, protocol.ReasonNotLaunched)
	})

	t.Run("before_window_opens", func(t *testing.T) {
		l.mustReject(buyer, types.OpPurchase, 200, protocol.PurchasePayload{EventID: eventID, TierID: 1}, protocol.ReasonInvalidWindow)
	})

	t.Run("credit_below_payment", func(t *testing.T) {
		poor := newSigner(t)
		l.mustReject(poor, types.OpPurchase, 200, protocol.PurchasePayload{EventID: eventID, TierID: 0}, protocol.ReasonInsufficientFunds)
	})

	t.Run("after_window_closes", func(t *testing.T) {
		l.advance(10001 * time.Second)
		l.mustReject(buyer, types.OpPurchase, 10000, protocol.PurchasePayload{EventID: eventID, TierID: 0}, protocol.ReasonInvalidWindow)
	})
}

func TestPurchaseSoldOutConservesInventory(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	scarce := defaultTierConfig()
	scarce.TotalTickets = 2
	eventID := l.setupEvent(organizer, scarce)
	l.fund(buyer, 1000)

	assert.EqualValues(t, 1, l.buy(buyer, eventID, 0, 200).Serial)
	assert.EqualValues(t, 2, l.buy(buyer, eventID, 0, 200).Serial)

	l.mustReject(buyer, types.OpPurchase, 200, protocol.PurchasePayload{EventID: eventID, TierID: 0}, protocol.ReasonSoldOut)

	tier := l.tier(eventID, 0)
	assert.EqualValues(t, 2, tier.TicketsSold)
	assert.EqualValues(t, 3, tier.NextSerial)
	assert.EqualValues(t, 400, tier.TotalRevenue.Uint64())
	assert.EqualValues(t, 600, l.account(buyer.Address()).Balance.Uint64())

	balance, err := l.dg.GetTicketBalance(context.Background(), eventID, 0, buyer.Address())
	require.NoError(t, err)
	assert.EqualValues(t, 2, balance.Balance)
	l.assertConserved()
}
