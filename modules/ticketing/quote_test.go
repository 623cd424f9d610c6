package ticketing

import (
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

func (l *ledger) quote(signer *crypto.Signer, eventID uint64, tierID uint32) *QuotePriceResult {
	l.t.Helper()
	receipt := l.mustApply(signer, types.OpQuotePrice, 0, protocol.QuotePricePayload{EventID: eventID, TierID: tierID})
	var result QuotePriceResult
	require.NoError(l.t, json.Unmarshal(receipt.Result, &result))
	return &result
}

func TestQuotePriceBeforeWindowIsInert(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	future := defaultTierConfig()
	future.StartTime = testStart.Add(1000 * time.Second).Unix()
	eventID := l.setupEvent(organizer, future)

	l.advance(500 * time.Second)
	result := l.quote(organizer, eventID, 0)
	assert.EqualValues(t, 200, result.Price)

	// the stored price was returned without running a transition
	tier := l.tier(eventID, 0)
	assert.Equal(t, testStart, tier.LastPriceUpdate)
	assert.EqualValues(t, 200, tier.CurrentPrice)
	assert.Empty(t, l.events(l.sequence))
}

func TestQuotePriceIdleDecay(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	eventID := l.setupEvent(organizer)

	// one decay step of (200-100)/10 = 10 per elapsed update interval,
	// flooring at the base price after ten steps
	for want := uint64(190); want >= 100; want -= 10 {
		l.advance(101 * time.Second)
		result := l.quote(organizer, eventID, 0)
		assert.EqualValues(t, want, result.Price)

		events := l.events(l.sequence)
		require.Len(t, events, 1)
		assert.Equal(t, entity.EventKindPriceChanged, events[0].Kind)
		assert.Equal(t, want, events[0].Price)
	}

	t.Run("floored_at_base", func(t *testing.T) {
		l.advance(101 * time.Second)
		result := l.quote(organizer, eventID, 0)
		assert.EqualValues(t, 100, result.Price)
		assert.Empty(t, l.events(l.sequence))
	})

	t.Run("within_interval_no_transition", func(t *testing.T) {
		l.advance(50 * time.Second)
		result := l.quote(organizer, eventID, 0)
		assert.EqualValues(t, 100, result.Price)
		assert.Empty(t, l.events(l.sequence))
	})
}

func TestQuotePriceGates(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer, buyer := newSigner(t), newSigner(t)
	scarce := defaultTierConfig()
	scarce.TotalTickets = 1
	eventID := l.setupEvent(organizer, defaultTierConfig(), scarce)
	l.fund(buyer, 1000)

	t.Run("sold_out", func(t *testing.T) {
		l.buy(buyer, eventID, 1, 200)
		l.mustReject(buyer, types.OpQuotePrice, 0, protocol.QuotePricePayload{EventID: eventID, TierID: 1}, protocol.ReasonSoldOut)
	})

	t.Run("after_window_closes", func(t *testing.T) {
		l.advance(10001 * time.Second)
		l.mustReject(buyer, types.OpQuotePrice, 0, protocol.QuotePricePayload{EventID: eventID, TierID: 0}, protocol.ReasonInvalidWindow)
	})
}
