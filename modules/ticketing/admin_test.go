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

func TestUpdateBasePrice(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	eventID := l.setupEvent(organizer)

	receipt := l.mustApply(organizer, types.OpUpdateBasePrice, 0, protocol.UpdateBasePricePayload{EventID: eventID, TierID: 0, NewPrice: 150})
	var result UpdateBasePriceResult
	require.NoError(t, json.Unmarshal(receipt.Result, &result))
	assert.EqualValues(t, 150, result.BasePrice)

	// the floor moves immediately, the live price only on the next
	// computation
	tier := l.tier(eventID, 0)
	assert.EqualValues(t, 150, tier.BasePrice)
	assert.EqualValues(t, 200, tier.CurrentPrice)

	events := l.events(receipt.Sequence)
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindBasePriceChanged, events[0].Kind)
	assert.EqualValues(t, 150, events[0].Price)
	assert.Equal(t, organizer.Address(), events[0].Address)

	t.Run("next_transition_uses_the_new_floor", func(t *testing.T) {
		// decay step is now (200-150)/10 = 5
		l.advance(101 * time.Second)
		assert.EqualValues(t, 195, l.quote(organizer, eventID, 0).Price)
	})

	t.Run("raising_the_floor_above_the_price_pulls_it_up", func(t *testing.T) {
		l.mustApply(organizer, types.OpUpdateBasePrice, 0, protocol.UpdateBasePricePayload{EventID: eventID, TierID: 0, NewPrice: 500})
		l.advance(101 * time.Second)
		assert.EqualValues(t, 500, l.quote(organizer, eventID, 0).Price)
	})

	t.Run("not_the_organizer", func(t *testing.T) {
		stranger := newSigner(t)
		l.mustReject(stranger, types.OpUpdateBasePrice, 0, protocol.UpdateBasePricePayload{EventID: eventID, TierID: 0, NewPrice: 10}, protocol.ReasonUnauthorized)
	})

	t.Run("price_above_the_declared_bound", func(t *testing.T) {
		l.mustReject(organizer, types.OpUpdateBasePrice, 0, protocol.UpdateBasePricePayload{EventID: eventID, TierID: 0, NewPrice: protocol.MaxTierPrice + 1}, protocol.ReasonInvalidPayload)
	})
}

func TestUpdateMetadataURI(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	eventID := l.setupEvent(organizer)

	receipt := l.mustApply(organizer, types.OpUpdateMetadataURI, 0, protocol.UpdateMetadataURIPayload{EventID: eventID, TierID: 0, URI: "ipfs://continuum/ga/"})
	var result UpdateMetadataURIResult
	require.NoError(t, json.Unmarshal(receipt.Result, &result))
	assert.Equal(t, "ipfs://continuum/ga/", result.URI)
	assert.Equal(t, "ipfs://continuum/ga/", l.tier(eventID, 0).MetadataBaseURI)

	events := l.events(receipt.Sequence)
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindMetadataUpdated, events[0].Kind)

	t.Run("empty_uri", func(t *testing.T) {
		l.mustReject(organizer, types.OpUpdateMetadataURI, 0, protocol.UpdateMetadataURIPayload{EventID: eventID, TierID: 0}, protocol.ReasonInvalidPayload)
	})

	t.Run("not_the_organizer", func(t *testing.T) {
		stranger := newSigner(t)
		l.mustReject(stranger, types.OpUpdateMetadataURI, 0, protocol.UpdateMetadataURIPayload{EventID: eventID, TierID: 0, URI: "ipfs://hijack/"}, protocol.ReasonUnauthorized)
	})
}
