package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/pricing"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
)

// PricePreview is the outcome a quote_price operation would journal at one
// instant, computed without persisting the price transition. Previews are
// non-binding; the charged price is fixed by the purchase or quote_price
// operation that actually executes.
type PricePreview struct {
	// Tier is the stored sale state, untouched by the preview.
	Tier *entity.Tier
	// Price is what quote_price would return at the previewed instant.
	Price        uint64
	PriceChanged bool
	// Quotable is false when quote_price would be rejected instead;
	// Reason then carries the rejection it would journal.
	Quotable bool
	Reason   protocol.RejectReason
}

// PreviewTierPrice mirrors the quote_price decision sequence against a
// read-only tier snapshot: a closed or sold-out sale is unquotable, a
// pre-window quote returns the stored price, and an open sale runs one
// price computation that is then discarded.
func (u *Usecase) PreviewTierPrice(ctx context.Context, eventID uint64, tierID uint32, at time.Time) (*PricePreview, error) {
	tier, err := u.GetTier(ctx, eventID, tierID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	preview := &PricePreview{Tier: tier, Price: tier.CurrentPrice, Quotable: true}
	switch {
	case at.After(tier.EndTime):
		preview.Quotable = false
		preview.Reason = protocol.ReasonInvalidWindow
	case tier.SoldOut():
		preview.Quotable = false
		preview.Reason = protocol.ReasonSoldOut
	case at.Before(tier.StartTime):
		// the stored price stands until the sale opens
	default:
		quote := pricing.Compute(*tier, at)
		preview.Price = quote.Price
		preview.PriceChanged = quote.PriceChanged
	}
	return preview, nil
}
