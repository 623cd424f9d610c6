package ticketing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCancelDiscountRoundTrip(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	eventID := l.setupEvent(organizer)

	receipt := l.mustApply(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 50})
	var set SetDiscountResult
	require.NoError(t, json.Unmarshal(receipt.Result, &set))
	assert.EqualValues(t, 50, set.BasePrice)

	tier := l.tier(eventID, 0)
	assert.EqualValues(t, 50, tier.BasePrice)
	assert.EqualValues(t, 50, tier.DiscountPercentage)

	events := l.events(receipt.Sequence)
	require.Len(t, events, 2)
	assert.Equal(t, entity.EventKindDiscountSet, events[0].Kind)
	assert.EqualValues(t, 50, events[0].Percentage)
	assert.Equal(t, entity.EventKindBasePriceChanged, events[1].Kind)
	assert.EqualValues(t, 50, events[1].Price)

	cancelReceipt := l.mustApply(organizer, types.OpCancelDiscount, 0, protocol.CancelDiscountPayload{EventID: eventID, TierID: 0})
	var cancelled CancelDiscountResult
	require.NoError(t, json.Unmarshal(cancelReceipt.Result, &cancelled))
	assert.EqualValues(t, 100, cancelled.BasePrice)

	tier = l.tier(eventID, 0)
	assert.EqualValues(t, 100, tier.BasePrice)
	assert.Zero(t, tier.DiscountPercentage)

	events = l.events(cancelReceipt.Sequence)
	require.Len(t, events, 2)
	assert.Equal(t, entity.EventKindDiscountCancelled, events[0].Kind)
	assert.EqualValues(t, 50, events[0].Percentage)
	assert.Equal(t, entity.EventKindBasePriceChanged, events[1].Kind)
	assert.EqualValues(t, 100, events[1].Price)
}

// TestCancelDiscountRoundingDrift pins the floor-division drift: a base
// price the discount division does not divide evenly is restored one unit
// short of the original.
func TestCancelDiscountRoundingDrift(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	odd := defaultTierConfig()
	odd.BasePrice, odd.InitialPrice = 199, 400
	eventID := l.setupEvent(organizer, odd)

	// 199*66/100 = 131
	receipt := l.mustApply(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 34})
	var set SetDiscountResult
	require.NoError(t, json.Unmarshal(receipt.Result, &set))
	assert.EqualValues(t, 131, set.BasePrice)

	// 131*100/66 = 198, one below the original 199
	cancelReceipt := l.mustApply(organizer, types.OpCancelDiscount, 0, protocol.CancelDiscountPayload{EventID: eventID, TierID: 0})
	var cancelled CancelDiscountResult
	require.NoError(t, json.Unmarshal(cancelReceipt.Result, &cancelled))
	assert.EqualValues(t, 198, cancelled.BasePrice)
}

func TestSetDiscountMovesTheFloor(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	eventID := l.setupEvent(organizer)

	l.mustApply(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 50})

	// the idle decay step is recomputed against the discounted floor:
	// (200-50)/10 = 15
	l.advance(101 * time.Second)
	result := l.quote(organizer, eventID, 0)
	assert.EqualValues(t, 185, result.Price)
}

func TestDiscountGates(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, stranger := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)

	t.Run("percentage_bounds", func(t *testing.T) {
		l.mustReject(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 0}, protocol.ReasonInvalidDiscount)
		l.mustReject(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 99}, protocol.ReasonInvalidDiscount)
	})

	t.Run("not_the_organizer", func(t *testing.T) {
		l.mustReject(stranger, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 10}, protocol.ReasonUnauthorized)
		l.mustReject(stranger, types.OpCancelDiscount, 0, protocol.CancelDiscountPayload{EventID: eventID, TierID: 0}, protocol.ReasonUnauthorized)
	})

	t.Run("cancel_without_active_discount", func(t *testing.T) {
		l.mustReject(organizer, types.OpCancelDiscount, 0, protocol.CancelDiscountPayload{EventID: eventID, TierID: 0}, protocol.ReasonInvalidDiscount)
	})

	t.Run("discounts_do_not_stack", func(t *testing.T) {
		l.mustApply(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 98})
		assert.EqualValues(t, 2, l.tier(eventID, 0).BasePrice)
		l.mustReject(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 10}, protocol.ReasonInvalidDiscount)
	})

	t.Run("unknown_tier", func(t *testing.T) {
		l.mustReject(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 7, Percentage: 10}, protocol.ReasonUnknownTier)
	})
}
