package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
)

const getLatestEventID = `
SELECT COALESCE(MAX("event_id"), 0) FROM ticketing_events
`

func (r *Repository) GetLatestEventID(ctx context.Context) (uint64, error) {
	var latest int64
	if err := r.queryable().QueryRow(ctx, getLatestEventID).Scan(&latest); err != nil {
		return 0, errors.Wrap(err, "error during query")
	}
	if latest == 0 {
		return 0, errors.Wrap(errs.NotFound, "no events registered")
	}
	return uint64(latest), nil
}

const createEvent = `
INSERT INTO ticketing_events ("event_id", "organizer", "name", "venue", "metadata_uri", "tier_configs", "registered_at", "launched_at")
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (r *Repository) CreateEvent(ctx context.Context, event *entity.Event) error {
	tierConfigs, err := marshalTierConfigs(event.TierConfigs)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = r.queryable().Exec(ctx, createEvent,
		int64(event.EventID),
		event.Organizer.String(),
		event.Name,
		event.Venue,
		event.MetadataURI,
		tierConfigs,
		timestampFromTime(event.RegisteredAt),
		timestampFromTime(event.LaunchedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errs.Duplicate, "event %d already exists", event.EventID)
		}
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const eventColumns = `"event_id", "organizer", "name", "venue", "metadata_uri", "tier_configs", "registered_at", "launched_at"`

func scanEvent(row pgx.Row) (eventModel, error) {
	var model eventModel
	err := row.Scan(
		&model.EventID,
		&model.Organizer,
		&model.Name,
		&model.Venue,
		&model.MetadataURI,
		&model.TierConfigs,
		&model.RegisteredAt,
		&model.LaunchedAt,
	)
	return model, errors.WithStack(err)
}

const getEvent = `
SELECT ` + eventColumns + ` FROM ticketing_events WHERE "event_id" = $1
`

func (r *Repository) GetEvent(ctx context.Context, eventID uint64) (*entity.Event, error) {
	model, err := scanEvent(r.queryable().QueryRow(ctx, getEvent, int64(eventID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "event %d not found", eventID)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	event, err := mapEventModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse event model")
	}
	return event, nil
}

const getEvents = `
SELECT ` + eventColumns + ` FROM ticketing_events
WHERE ($1::TEXT IS NULL OR "organizer" = $1)
ORDER BY "event_id"
LIMIT $2 OFFSET $3
`

func (r *Repository) GetEvents(ctx context.Context, params datagateway.GetEventsParams) ([]*entity.Event, error) {
	var organizer *string
	if params.Organizer != nil {
		organizer = lo.ToPtr(params.Organizer.String())
	}
	rows, err := r.queryable().Query(ctx, getEvents, organizer, limitArg(params.Limit), offsetArg(params.Offset))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		model, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		event, err := mapEventModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse event model")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return events, nil
}

const markEventLaunched = `
UPDATE ticketing_events SET "launched_at" = $2 WHERE "event_id" = $1
`

func (r *Repository) MarkEventLaunched(ctx context.Context, eventID uint64, launchedAt time.Time) error {
	tag, err := r.queryable().Exec(ctx, markEventLaunched, int64(eventID), timestampFromTime(launchedAt))
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errs.NotFound, "event %d not found", eventID)
	}
	return nil
}

const createTiers = `
INSERT INTO ticketing_tiers ("event_id", "tier_id", "name", "symbol", "total_tickets", "tickets_sold", "base_price", "initial_price", "current_price", "total_revenue", "start_time", "end_time", "last_price_update", "price_update_interval", "decay_percentage", "sales_time_interval", "discount_percentage", "next_serial", "metadata_base_uri", "launched_at")
VALUES (
  unnest($1::BIGINT[]),
  unnest($2::INT[]),
  unnest($3::TEXT[]),
  unnest($4::TEXT[]),
  unnest($5::NUMERIC[]),
  unnest($6::NUMERIC[]),
  unnest($7::NUMERIC[]),
  unnest($8::NUMERIC[]),
  unnest($9::NUMERIC[]),
  unnest($10::NUMERIC[]),
  unnest($11::TIMESTAMP[]),
  unnest($12::TIMESTAMP[]),
  unnest($13::TIMESTAMP[]),
  unnest($14::BIGINT[]),
  unnest($15::NUMERIC[]),
  unnest($16::BIGINT[]),
  unnest($17::NUMERIC[]),
  unnest($18::NUMERIC[]),
  unnest($19::TEXT[]),
  unnest($20::TIMESTAMP[])
)
`

func (r *Repository) CreateTiers(ctx context.Context, tiers []*entity.Tier) error {
	if len(tiers) == 0 {
		return nil
	}
	var (
		eventIDArr             []int64
		tierIDArr              []int32
		nameArr                []string
		symbolArr              []string
		totalTicketsArr        []pgtype.Numeric
		ticketsSoldArr         []pgtype.Numeric
		basePriceArr           []pgtype.Numeric
		initialPriceArr        []pgtype.Numeric
		currentPriceArr        []pgtype.Numeric
		totalRevenueArr        []pgtype.Numeric
		startTimeArr           []pgtype.Timestamp
		endTimeArr             []pgtype.Timestamp
		lastPriceUpdateArr     []pgtype.Timestamp
		priceUpdateIntervalArr []int64
		decayPercentageArr     []pgtype.Numeric
		salesTimeIntervalArr   []int64
		discountPercentageArr  []pgtype.Numeric
		nextSerialArr          []pgtype.Numeric
		metadataBaseURIArr     []string
		launchedAtArr          []pgtype.Timestamp
	)
	for _, tier := range tiers {
		eventIDArr = append(eventIDArr, int64(tier.EventID))
		tierIDArr = append(tierIDArr, int32(tier.TierID))
		nameArr = append(nameArr, tier.Name)
		symbolArr = append(symbolArr, tier.Symbol)
		totalTicketsArr = append(totalTicketsArr, numericFromUint64(tier.TotalTickets))
		ticketsSoldArr = append(ticketsSoldArr, numericFromUint64(tier.TicketsSold))
		basePriceArr = append(basePriceArr, numericFromUint64(tier.BasePrice))
		initialPriceArr = append(initialPriceArr, numericFromUint64(tier.InitialPrice))
		currentPriceArr = append(currentPriceArr, numericFromUint64(tier.CurrentPrice))
		totalRevenueArr = append(totalRevenueArr, numericFromUint128(tier.TotalRevenue))
		startTimeArr = append(startTimeArr, timestampFromTime(tier.StartTime))
		endTimeArr = append(endTimeArr, timestampFromTime(tier.EndTime))
		lastPriceUpdateArr = append(lastPriceUpdateArr, timestampFromTime(tier.LastPriceUpdate))
		priceUpdateIntervalArr = append(priceUpdateIntervalArr, int64(tier.PriceUpdateInterval/time.Second))
		decayPercentageArr = append(decayPercentageArr, numericFromUint64(tier.DecayPercentage))
		salesTimeIntervalArr = append(salesTimeIntervalArr, int64(tier.SalesTimeInterval/time.Second))
		discountPercentageArr = append(discountPercentageArr, numericFromUint64(tier.DiscountPercentage))
		nextSerialArr = append(nextSerialArr, numericFromUint64(tier.NextSerial))
		metadataBaseURIArr = append(metadataBaseURIArr, tier.MetadataBaseURI)
		launchedAtArr = append(launchedAtArr, timestampFromTime(tier.LaunchedAt))
	}
	_, err := r.queryable().Exec(ctx, createTiers,
		eventIDArr,
		tierIDArr,
		nameArr,
		symbolArr,
		totalTicketsArr,
		ticketsSoldArr,
		basePriceArr,
		initialPriceArr,
		currentPriceArr,
		totalRevenueArr,
		startTimeArr,
		endTimeArr,
		lastPriceUpdateArr,
		priceUpdateIntervalArr,
		decayPercentageArr,
		salesTimeIntervalArr,
		discountPercentageArr,
		nextSerialArr,
		metadataBaseURIArr,
		launchedAtArr,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrap(errs.Duplicate, "tier already exists")
		}
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const tierColumns = `"event_id", "tier_id", "name", "symbol", "total_tickets", "tickets_sold", "base_price", "initial_price", "current_price", "total_revenue", "start_time", "end_time", "last_price_update", "price_update_interval", "decay_percentage", "sales_time_interval", "discount_percentage", "next_serial", "metadata_base_uri", "launched_at"`

func scanTier(row pgx.Row) (tierModel, error) {
	var model tierModel
	err := row.Scan(
		&model.EventID,
		&model.TierID,
		&model.Name,
		&model.Symbol,
		&model.TotalTickets,
		&model.TicketsSold,
		&model.BasePrice,
		&model.InitialPrice,
		&model.CurrentPrice,
		&model.TotalRevenue,
		&model.StartTime,
		&model.EndTime,
		&model.LastPriceUpdate,
		&model.PriceUpdateInterval,
		&model.DecayPercentage,
		&model.SalesTimeInterval,
		&model.DiscountPercentage,
		&model.NextSerial,
		&model.MetadataBaseURI,
		&model.LaunchedAt,
	)
	return model, errors.WithStack(err)
}

const getTier = `
SELECT ` + tierColumns + ` FROM ticketing_tiers WHERE "event_id" = $1 AND "tier_id" = $2
`

func (r *Repository) GetTier(ctx context.Context, eventID uint64, tierID uint32) (*entity.Tier, error) {
	model, err := scanTier(r.queryable().QueryRow(ctx, getTier, int64(eventID), int32(tierID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "tier %d/%d not found", eventID, tierID)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	tier, err := mapTierModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse tier model")
	}
	return tier, nil
}

const getTiersByEventID = `
SELECT ` + tierColumns + ` FROM ticketing_tiers WHERE "event_id" = $1 ORDER BY "tier_id"
`

func (r *Repository) GetTiersByEventID(ctx context.Context, eventID uint64) ([]*entity.Tier, error) {
	rows, err := r.queryable().Query(ctx, getTiersByEventID, int64(eventID))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	tiers := make([]*entity.Tier, 0)
	for rows.Next() {
		model, err := scanTier(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		tier, err := mapTierModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse tier model")
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return tiers, nil
}

const updateTier = `
UPDATE ticketing_tiers SET
  "tickets_sold" = $3,
  "current_price" = $4,
  "total_revenue" = $5,
  "base_price" = $6,
  "end_time" = $7,
  "last_price_update" = $8,
  "discount_percentage" = $9,
  "next_serial" = $10,
  "metadata_base_uri" = $11
WHERE "event_id" = $1 AND "tier_id" = $2
`

func (r *Repository) UpdateTier(ctx context.Context, tier *entity.Tier) error {
	tag, err := r.queryable().Exec(ctx, updateTier,
		int64(tier.EventID),
		int32(tier.TierID),
		numericFromUint64(tier.TicketsSold),
		numericFromUint64(tier.CurrentPrice),
		numericFromUint128(tier.TotalRevenue),
		numericFromUint64(tier.BasePrice),
		timestampFromTime(tier.EndTime),
		timestampFromTime(tier.LastPriceUpdate),
		numericFromUint64(tier.DiscountPercentage),
		numericFromUint64(tier.NextSerial),
		tier.MetadataBaseURI,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errs.NotFound, "tier %d/%d not found", tier.EventID, tier.TierID)
	}
	return nil
}
