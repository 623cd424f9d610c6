// Package pricing implements the demand-responsive ticket pricing curve.
//
// Each tier carries a path-dependent currentPrice. Every computation
// compares the observed sale rate (tickets sold per elapsed sales interval)
// against the target rate needed to sell the remaining inventory by the
// sale's end, then moves the price proportionally to the deviation: selling
// faster than target pushes the price up, slower pulls it down, and an idle
// tier decays stepwise toward its base price. The base price is a hard
// floor on every downward move.
package pricing

import (
	"math"
	"time"

	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
)

// Quote is one price computation against a tier at an instant. The returned
// tier copy carries the updated currentPrice and lastPriceUpdate; the caller
// decides whether the transition is persisted.
type Quote struct {
	Price        uint64
	Tier         entity.Tier
	PriceChanged bool
}

// Compute runs one price transition. All arithmetic is floor division on
// non-negative integers, so identical inputs always produce identical
// prices.
//
// Preconditions (enforced by the operation handlers): the tier is not sold
// out, and startTime <= now <= endTime.
func Compute(tier entity.Tier, now time.Time) Quote {
	timeLeftUnits := uint64(tier.EndTime.Sub(now) / tier.SalesTimeInterval)
	if timeLeftUnits < 1 {
		timeLeftUnits = 1
	}
	timeElapsedUnits := uint64(now.Sub(tier.StartTime) / tier.SalesTimeInterval)

	var saleRate uint64
	if timeElapsedUnits > 0 {
		saleRate = tier.TicketsSold / timeElapsedUnits
	}

	previous := tier.CurrentPrice

	// Idle: no measurable demand yet. The price decays one step per
	// elapsed update interval, never below the base price.
	if saleRate == 0 {
		if now.Sub(tier.LastPriceUpdate) > tier.PriceUpdateInterval {
			tier.CurrentPrice = clampDown(tier.CurrentPrice, decayStep(tier), tier.BasePrice)
			tier.LastPriceUpdate = now
		}
		return Quote{
			Price:        tier.CurrentPrice,
			Tier:         tier,
			PriceChanged: tier.CurrentPrice != previous,
		}
	}

	// Active: compare the observed rate against the rate needed to sell
	// the remaining inventory in the remaining time.
	targetSaleRate := tier.TicketsLeft() / timeLeftUnits
	if targetSaleRate < 1 {
		targetSaleRate = 1
	}
	if saleRate >= targetSaleRate {
		adjustment := (saleRate - targetSaleRate) * 100 / targetSaleRate
		if adjustment == 0 {
			// selling at or barely above target still nudges the
			// price upward by the idle decay step
			adjustment = decayStep(tier)
		}
		if adjustment > math.MaxUint64-tier.CurrentPrice {
			tier.CurrentPrice = math.MaxUint64
		} else {
			tier.CurrentPrice += adjustment
		}
	} else {
		adjustment := (targetSaleRate - saleRate) * 100 / targetSaleRate
		tier.CurrentPrice = clampDown(tier.CurrentPrice, adjustment, tier.BasePrice)
	}
	// a raised floor (update_base_price, cancel_discount) can leave the
	// live price below it; the next computation pulls the price up even
	// when the branch itself moved upward by less than the gap
	if tier.CurrentPrice < tier.BasePrice {
		tier.CurrentPrice = tier.BasePrice
	}
	tier.LastPriceUpdate = now

	return Quote{
		Price:        tier.CurrentPrice,
		Tier:         tier,
		PriceChanged: tier.CurrentPrice != previous,
	}
}

// decayStep is the idle price decay per update interval. A configuration
// with basePrice >= initialPrice has no room to decay and steps by zero.
func decayStep(tier entity.Tier) uint64 {
	if tier.InitialPrice <= tier.BasePrice {
		return 0
	}
	return (tier.InitialPrice - tier.BasePrice) / tier.DecayPercentage
}

// clampDown lowers price by step, clamped to the base price floor. A price
// already below the floor (possible after update_base_price raised the
// floor) is pulled up to it.
func clampDown(price, step, base uint64) uint64 {
	if step >= price {
		return base
	}
	if price-step < base {
		return base
	}
	return price - step
}
