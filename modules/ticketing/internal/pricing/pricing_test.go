package pricing

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// testTier is a 10-ticket tier with a 10000s sale window, 100s sampling
// interval and a decay step of (200-100)/10 = 10 per 100s idle interval.
func testTier() entity.Tier {
	return entity.Tier{
		EventID:             1,
		TierID:              0,
		Name:                "General Admission",
		Symbol:              "GA",
		TotalTickets:        10,
		BasePrice:           100,
		InitialPrice:        200,
		CurrentPrice:        200,
		StartTime:           t0,
		EndTime:             t0.Add(10000 * time.Second),
		LastPriceUpdate:     t0,
		PriceUpdateInterval: 100 * time.Second,
		DecayPercentage:     10,
		SalesTimeInterval:   100 * time.Second,
		NextSerial:          1,
		LaunchedAt:          t0,
	}
}

func TestComputeFreshTier(t *testing.T) {
	t.Parallel()

	tier := testTier()
	quote := Compute(tier, t0)

	assert.False(t, quote.PriceChanged)
	assert.Equal(t, uint64(200), quote.Price)
	assert.GreaterOrEqual(t, quote.Price, tier.BasePrice)
	assert.LessOrEqual(t, quote.Price, tier.InitialPrice)
	assert.Equal(t, tier, quote.Tier, "quote at launch instant must not mutate the tier")
}

func TestComputeIdleWithinUpdateInterval(t *testing.T) {
	t.Parallel()

	tier := testTier()
	quote := Compute(tier, t0.Add(100*time.Second)) // exactly the interval, not strictly greater

	assert.False(t, quote.PriceChanged)
	assert.Equal(t, uint64(200), quote.Price)
	assert.Equal(t, t0, quote.Tier.LastPriceUpdate)
}

func TestComputeIdleDecayConvergence(t *testing.T) {
	t.Parallel()

	tier := testTier()
	now := t0

	// 200 -> 190 -> ... -> 100 in 10 steps, strictly decreasing
	previous := tier.CurrentPrice
	for i := 0; i < 10; i++ {
		now = now.Add(101 * time.Second)
		quote := Compute(tier, now)
		require.True(t, quote.PriceChanged, "step %d", i)
		require.Less(t, quote.Price, previous, "step %d", i)
		require.GreaterOrEqual(t, quote.Price, tier.BasePrice, "step %d", i)
		require.Equal(t, now, quote.Tier.LastPriceUpdate, "step %d", i)
		previous = quote.Price
		tier = quote.Tier
	}
	require.Equal(t, tier.BasePrice, tier.CurrentPrice)

	// at the floor the price stays fixed
	for i := 0; i < 3; i++ {
		now = now.Add(101 * time.Second)
		quote := Compute(tier, now)
		require.False(t, quote.PriceChanged)
		require.Equal(t, tier.BasePrice, quote.Price)
		tier = quote.Tier
	}
}

func TestComputeIdleDecayZeroStep(t *testing.T) {
	t.Parallel()

	// inverted configuration: basePrice >= initialPrice leaves no room to
	// decay, the step degrades to zero instead of underflowing
	tier := testTier()
	tier.BasePrice = 200
	tier.InitialPrice = 200

	quote := Compute(tier, t0.Add(101*time.Second))
	assert.False(t, quote.PriceChanged)
	assert.Equal(t, uint64(200), quote.Price)
	assert.Equal(t, t0.Add(101*time.Second), quote.Tier.LastPriceUpdate)
}

func TestComputeActiveOversold(t *testing.T) {
	t.Parallel()

	test := func(name string, sold uint64, at time.Duration, wantPrice uint64) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			tier := testTier()
			tier.TicketsSold = sold
			quote := Compute(tier, t0.Add(at))
			assert.Equal(t, wantPrice, quote.Price)
			assert.True(t, quote.PriceChanged)
			assert.Equal(t, t0.Add(at), quote.Tier.LastPriceUpdate)
		})
	}

	// sold=9 at +100s: saleRate=9, ticketsLeft=1, timeLeft=99 units,
	// target=max(1,0)=1, adjustment=(9-1)*100/1=800
	test("far above target", 9, 100*time.Second, 1000)

	// sold=5 at +500s: saleRate=1, target=max(1, 5/95)=1, adjustment=0,
	// substituted by the decay step (200-100)/10=10
	test("exactly at target", 5, 500*time.Second, 210)
}

func TestComputeActiveUndersold(t *testing.T) {
	t.Parallel()

	// 1000-ticket tier, 10 sold after 1000s: saleRate=1, ticketsLeft=990,
	// timeLeft=90 units, target=11, adjustment=(11-1)*100/11=90
	tier := testTier()
	tier.TotalTickets = 1000
	tier.TicketsSold = 10

	quote := Compute(tier, t0.Add(1000*time.Second))
	assert.True(t, quote.PriceChanged)
	assert.Equal(t, uint64(110), quote.Price)
}

func TestComputeActiveUndersoldClampsToBase(t *testing.T) {
	t.Parallel()

	tier := testTier()
	tier.TotalTickets = 1000
	tier.TicketsSold = 10
	tier.CurrentPrice = 150 // adjustment of 90 would cross the floor

	quote := Compute(tier, t0.Add(1000*time.Second))
	assert.True(t, quote.PriceChanged)
	assert.Equal(t, tier.BasePrice, quote.Price)
}

func TestComputePriceBelowFloorIsPulledUp(t *testing.T) {
	t.Parallel()

	// update_base_price can raise the floor above the live price; the next
	// downward computation clamps up to the new floor
	tier := testTier()
	tier.BasePrice = 300
	tier.CurrentPrice = 200

	quote := Compute(tier, t0.Add(101*time.Second))
	assert.True(t, quote.PriceChanged)
	assert.Equal(t, uint64(300), quote.Price)
}

func TestComputeActiveBelowFloorIsPulledUp(t *testing.T) {
	t.Parallel()

	// the raised floor must also hold on the active branch: selling exactly
	// at target yields a zero adjustment (and a zero decay step once the
	// floor passes the initial price), so without the final clamp the price
	// would stay below the floor
	tier := testTier()
	tier.BasePrice = 1000
	tier.CurrentPrice = 200
	tier.TicketsSold = 5

	quote := Compute(tier, t0.Add(500*time.Second))
	assert.True(t, quote.PriceChanged)
	assert.Equal(t, uint64(1000), quote.Price)
	assert.Equal(t, t0.Add(500*time.Second), quote.Tier.LastPriceUpdate)

	// an upward move smaller than the gap still lands on the floor:
	// sold=9 at +100s adjusts by 800, 200+800 < 1500
	tier = testTier()
	tier.BasePrice = 1500
	tier.CurrentPrice = 200
	tier.TicketsSold = 9

	quote = Compute(tier, t0.Add(100*time.Second))
	assert.Equal(t, uint64(1500), quote.Price)
}

func TestComputeUpwardAdjustmentSaturates(t *testing.T) {
	t.Parallel()

	// an upward move near the top of the uint64 range saturates instead of
	// wrapping below the floor
	tier := testTier()
	tier.CurrentPrice = math.MaxUint64 - 5
	tier.TicketsSold = 9

	quote := Compute(tier, t0.Add(100*time.Second)) // adjustment 800 > headroom 5
	assert.Equal(t, uint64(math.MaxUint64), quote.Price)
	assert.GreaterOrEqual(t, quote.Price, tier.BasePrice)
}

func TestComputeTimeLeftFloorsToOneUnit(t *testing.T) {
	t.Parallel()

	// 50s before the end the remaining window is shorter than one sampling
	// interval; the target rate computes against a single remaining unit
	// instead of dividing by zero. sold=2 at +9950s: saleRate=2/99=0 ->
	// idle decay path.
	tier := testTier()
	tier.TicketsSold = 2

	quote := Compute(tier, t0.Add(9950*time.Second))
	assert.Equal(t, uint64(190), quote.Price)

	// sold=99/100 elapsed units keeps saleRate at 1: ticketsLeft=8,
	// timeLeftUnits=1, target=8, adjustment=(8-1)*100/8=87
	tier = testTier()
	tier.TicketsSold = 99
	tier.TotalTickets = 107
	quote = Compute(tier, t0.Add(9950*time.Second))
	assert.Equal(t, uint64(113), quote.Price)
}

func TestComputeMonotonicFloor(t *testing.T) {
	t.Parallel()

	// sweep sold counts and instants; the floor must hold after every
	// computation, including repeated path-dependent transitions
	for sold := uint64(0); sold <= 10; sold++ {
		tier := testTier()
		tier.TicketsSold = sold
		if sold == 10 {
			continue // sold out tiers are not priced
		}
		now := t0
		for step := 0; step < 50; step++ {
			now = now.Add(137 * time.Second)
			if now.After(tier.EndTime) {
				break
			}
			quote := Compute(tier, now)
			require.GreaterOrEqual(t, quote.Price, tier.BasePrice,
				fmt.Sprintf("sold=%d step=%d", sold, step))
			tier = quote.Tier
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	t.Parallel()

	tier := testTier()
	tier.TicketsSold = 7
	now := t0.Add(4242 * time.Second)

	first := Compute(tier, now)
	second := Compute(tier, now)
	assert.Equal(t, first, second)
}
