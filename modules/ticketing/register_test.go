package ticketing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterEvent(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	l.fund(organizer, 3*testRegistrationFee)

	registration := protocol.RegisterEventPayload{
		Name:        "Continuum Festival",
		Venue:       "Harbor Hall",
		MetadataURI: "https://meta.example/continuum",
		Tiers:       []protocol.TierConfig{defaultTierConfig()},
	}

	receipt := l.mustApply(organizer, types.OpRegisterEvent, testRegistrationFee, registration)
	var result RegisterEventResult
	require.NoError(t, json.Unmarshal(receipt.Result, &result))
	assert.EqualValues(t, 1, result.EventID)

	event, err := l.dg.GetEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, organizer.Address(), event.Organizer)
	assert.Equal(t, "Continuum Festival", event.Name)
	assert.Equal(t, "Harbor Hall", event.Venue)
	assert.Equal(t, "https://meta.example/continuum", event.MetadataURI)
	assert.False(t, event.Launched())
	require.Len(t, event.TierConfigs, 1)
	assert.Equal(t, testStart, event.TierConfigs[0].StartTime)
	assert.Equal(t, 100*time.Second, event.TierConfigs[0].PriceUpdateInterval)

	// the full registration payment lands in the treasury
	treasury := l.treasury()
	assert.EqualValues(t, testRegistrationFee, treasury.Balance.Uint64())
	assert.EqualValues(t, testRegistrationFee, treasury.FeesCollected.Uint64())
	assert.EqualValues(t, 2*testRegistrationFee, l.account(organizer.Address()).Balance.Uint64())

	events := l.events(receipt.Sequence)
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindEventRegistered, events[0].Kind)
	assert.EqualValues(t, 1, events[0].EventID)
	assert.Equal(t, organizer.Address(), events[0].Address)
	assert.EqualValues(t, testRegistrationFee, events[0].Amount.Uint64())

	t.Run("ids_are_sequential", func(t *testing.T) {
		receipt := l.mustApply(organizer, types.OpRegisterEvent, testRegistrationFee, registration)
		var result RegisterEventResult
		require.NoError(t, json.Unmarshal(receipt.Result, &result))
		assert.EqualValues(t, 2, result.EventID)
	})

	t.Run("overpayment_is_kept", func(t *testing.T) {
		l.fund(organizer, 500)
		before := l.treasury().Balance
		l.mustApply(organizer, types.OpRegisterEvent, testRegistrationFee+500, registration)
		assert.EqualValues(t, testRegistrationFee+500, l.treasury().Balance.Sub(before).Uint64())
	})

	l.assertConserved()
}

func TestRegisterEventGates(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	registration := protocol.RegisterEventPayload{
		Name:  "Continuum Festival",
		Venue: "Harbor Hall",
		Tiers: []protocol.TierConfig{defaultTierConfig()},
	}

	t.Run("payment_below_fee", func(t *testing.T) {
		l.fund(organizer, testRegistrationFee)
		l.mustReject(organizer, types.OpRegisterEvent, testRegistrationFee-1, registration, protocol.ReasonInsufficientPayment)
		// the gate fires before any debit
		assert.EqualValues(t, testRegistrationFee, l.account(organizer.Address()).Balance.Uint64())
	})

	t.Run("credit_below_payment", func(t *testing.T) {
		poor := newSigner(t)
		l.mustReject(poor, types.OpRegisterEvent, testRegistrationFee, registration, protocol.ReasonInsufficientFunds)
	})

	t.Run("tier_list_bounds", func(t *testing.T) {
		none := registration
		none.Tiers = nil
		l.mustReject(organizer, types.OpRegisterEvent, testRegistrationFee, none, protocol.ReasonInvalidPayload)

		crowded := registration
		crowded.Tiers = make([]protocol.TierConfig, protocol.MaxTiersPerEvent+1)
		for i := range crowded.Tiers {
			crowded.Tiers[i] = defaultTierConfig()
		}
		l.mustReject(organizer, types.OpRegisterEvent, testRegistrationFee, crowded, protocol.ReasonInvalidPayload)
	})

	t.Run("inverted_sale_window", func(t *testing.T) {
		bad := registration
		tier := defaultTierConfig()
		tier.StartTime, tier.EndTime = tier.EndTime, tier.StartTime
		bad.Tiers = []protocol.TierConfig{tier}
		l.mustReject(organizer, types.OpRegisterEvent, testRegistrationFee, bad, protocol.ReasonInvalidPayload)
	})

	t.Run("declared_bounds", func(t *testing.T) {
		oversized := registration
		tier := defaultTierConfig()
		tier.TotalTickets = protocol.MaxTotalTickets + 1
		oversized.Tiers = []protocol.TierConfig{tier}
		l.mustReject(organizer, types.OpRegisterEvent, testRegistrationFee, oversized, protocol.ReasonInvalidPayload)

		overpriced := registration
		tier = defaultTierConfig()
		tier.InitialPrice = protocol.MaxTierPrice + 1
		overpriced.Tiers = []protocol.TierConfig{tier}
		l.mustReject(organizer, types.OpRegisterEvent, testRegistrationFee, overpriced, protocol.ReasonInvalidPayload)
	})

	// rejected registrations left no events behind
	assert.EqualValues(t, 0, func() uint64 {
		id, err := l.dg.GetLatestEventID(context.Background())
		if err != nil {
			return 0
		}
		return id
	}())
}

func TestLaunchEvent(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	l.fund(organizer, testRegistrationFee)

	vip := defaultTierConfig()
	vip.Name, vip.Symbol = "VIP", "VIP"
	vip.TotalTickets = 2
	vip.BasePrice, vip.InitialPrice = 500, 900
	receipt := l.mustApply(organizer, types.OpRegisterEvent, testRegistrationFee, protocol.RegisterEventPayload{
		Name:  "Continuum Festival",
		Venue: "Harbor Hall",
		Tiers: []protocol.TierConfig{defaultTierConfig(), vip},
	})
	var registered RegisterEventResult
	require.NoError(t, json.Unmarshal(receipt.Result, &registered))

	l.advance(30 * time.Second)
	launchReceipt := l.mustApply(organizer, types.OpLaunchEvent, 0, protocol.LaunchEventPayload{EventID: registered.EventID})
	var launched LaunchEventResult
	require.NoError(t, json.Unmarshal(launchReceipt.Result, &launched))
	assert.Equal(t, registered.EventID, launched.EventID)
	assert.Equal(t, 2, launched.Tiers)

	event, err := l.dg.GetEvent(context.Background(), registered.EventID)
	require.NoError(t, err)
	assert.True(t, event.Launched())
	assert.Equal(t, l.now, event.LaunchedAt)

	// tier ids follow the declared order, zero-based
	ga := l.tier(registered.EventID, 0)
	assert.Equal(t, "General Admission", ga.Name)
	assert.EqualValues(t, 200, ga.CurrentPrice)
	assert.EqualValues(t, 1, ga.NextSerial)
	// the decay clock starts at launch, not at the sale window open
	assert.Equal(t, l.now, ga.LastPriceUpdate)
	assert.Equal(t, l.now, ga.LaunchedAt)

	tier := l.tier(registered.EventID, 1)
	assert.Equal(t, "VIP", tier.Name)
	assert.EqualValues(t, 900, tier.CurrentPrice)
	assert.EqualValues(t, 500, tier.BasePrice)
	assert.EqualValues(t, 2, tier.TotalTickets)

	events := l.events(launchReceipt.Sequence)
	require.Len(t, events, 1)
	assert.Equal(t, entity.EventKindEventLaunched, events[0].Kind)

	t.Run("relaunch", func(t *testing.T) {
		l.mustReject(organizer, types.OpLaunchEvent, 0, protocol.LaunchEventPayload{EventID: registered.EventID}, protocol.ReasonAlreadyLaunched)
	})

	t.Run("not_the_organizer", func(t *testing.T) {
		stranger := newSigner(t)
		l.mustReject(stranger, types.OpLaunchEvent, 0, protocol.LaunchEventPayload{EventID: registered.EventID}, protocol.ReasonUnauthorized)
	})

	t.Run("unknown_event", func(t *testing.T) {
		l.mustReject(organizer, types.OpLaunchEvent, 0, protocol.LaunchEventPayload{EventID: 42}, protocol.ReasonInvalidEventID)
	})
}
