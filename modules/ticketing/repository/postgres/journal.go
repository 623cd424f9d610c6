package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
)

// pgErrUniqueViolation is the PostgreSQL error code for unique_violation.
const pgErrUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

const createJournalEntry = `
INSERT INTO ticketing_journal ("sequence", "kind", "caller", "nonce", "payment", "raw_payload", "parsed_payload", "signature", "status", "reason", "result", "events_hash", "cumulative_hash", "timestamp")
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

func (r *Repository) CreateJournalEntry(ctx context.Context, entry *entity.JournalEntry) error {
	_, err := r.queryable().Exec(ctx, createJournalEntry,
		int64(entry.Sequence),
		string(entry.Kind),
		entry.Caller.String(),
		int64(entry.Nonce),
		numericFromUint64(entry.Payment),
		entry.RawPayload,
		entry.ParsedPayload,
		entry.Signature,
		string(entry.Status),
		entry.Reason,
		entry.Result,
		entry.EventsHash.String(),
		entry.CumulativeHash.String(),
		timestampFromTime(entry.Timestamp),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(errs.Duplicate, "journal entry %d already exists", entry.Sequence)
		}
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const journalEntryColumns = `"sequence", "kind", "caller", "nonce", "payment", "raw_payload", "parsed_payload", "signature", "status", "reason", "result", "events_hash", "cumulative_hash", "timestamp"`

func scanJournalEntry(row pgx.Row) (journalEntryModel, error) {
	var model journalEntryModel
	err := row.Scan(
		&model.Sequence,
		&model.Kind,
		&model.Caller,
		&model.Nonce,
		&model.Payment,
		&model.RawPayload,
		&model.ParsedPayload,
		&model.Signature,
		&model.Status,
		&model.Reason,
		&model.Result,
		&model.EventsHash,
		&model.CumulativeHash,
		&model.Timestamp,
	)
	return model, errors.WithStack(err)
}

const getLatestJournalEntry = `
SELECT ` + journalEntryColumns + ` FROM ticketing_journal ORDER BY "sequence" DESC LIMIT 1
`

func (r *Repository) GetLatestJournalEntry(ctx context.Context) (*entity.JournalEntry, error) {
	model, err := scanJournalEntry(r.queryable().QueryRow(ctx, getLatestJournalEntry))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrap(errs.NotFound, "journal is empty")
		}
		return nil, errors.Wrap(err, "error during query")
	}
	entry, err := mapJournalEntryModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse journal entry model")
	}
	return entry, nil
}

const getJournalEntryBySequence = `
SELECT ` + journalEntryColumns + ` FROM ticketing_journal WHERE "sequence" = $1
`

func (r *Repository) GetJournalEntryBySequence(ctx context.Context, sequence uint64) (*entity.JournalEntry, error) {
	model, err := scanJournalEntry(r.queryable().QueryRow(ctx, getJournalEntryBySequence, int64(sequence)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errs.NotFound, "journal entry %d not found", sequence)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	entry, err := mapJournalEntryModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse journal entry model")
	}
	return entry, nil
}

const getJournalEntries = `
SELECT ` + journalEntryColumns + ` FROM ticketing_journal
WHERE ($1::BIGINT = 0 OR "sequence" >= $1)
  AND ($2::BIGINT = 0 OR "sequence" <= $2)
  AND ($3::TEXT IS NULL OR "caller" = $3)
  AND ($4::TEXT = '' OR "kind" = $4)
ORDER BY "sequence"
LIMIT $5 OFFSET $6
`

func (r *Repository) GetJournalEntries(ctx context.Context, params datagateway.GetJournalEntriesParams) ([]*entity.JournalEntry, error) {
	var caller *string
	if params.Caller != nil {
		caller = lo.ToPtr(params.Caller.String())
	}
	rows, err := r.queryable().Query(ctx, getJournalEntries,
		int64(params.FromSequence),
		int64(params.ToSequence),
		caller,
		string(params.Kind),
		limitArg(params.Limit),
		offsetArg(params.Offset),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	var entries []*entity.JournalEntry
	for rows.Next() {
		model, err := scanJournalEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		entry, err := mapJournalEntryModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse journal entry model")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return entries, nil
}

const createProtocolEvents = `
INSERT INTO ticketing_protocol_events ("sequence", "index", "kind", "event_id", "tier_id", "address", "amount", "price", "serial", "percentage", "timestamp")
VALUES (
  unnest($1::BIGINT[]),
  unnest($2::INT[]),
  unnest($3::TEXT[]),
  unnest($4::BIGINT[]),
  unnest($5::INT[]),
  unnest($6::TEXT[]),
  unnest($7::NUMERIC[]),
  unnest($8::NUMERIC[]),
  unnest($9::NUMERIC[]),
  unnest($10::NUMERIC[]),
  unnest($11::TIMESTAMP[])
)
`

func (r *Repository) CreateProtocolEvents(ctx context.Context, events []*entity.ProtocolEvent) error {
	if len(events) == 0 {
		return nil
	}
	var (
		sequenceArr   []int64
		indexArr      []int32
		kindArr       []string
		eventIDArr    []int64
		tierIDArr     []int32
		addressArr    []string
		amountArr     []pgtype.Numeric
		priceArr      []pgtype.Numeric
		serialArr     []pgtype.Numeric
		percentageArr []pgtype.Numeric
		timestampArr  []pgtype.Timestamp
	)
	for _, event := range events {
		sequenceArr = append(sequenceArr, int64(event.Sequence))
		indexArr = append(indexArr, int32(event.Index))
		kindArr = append(kindArr, string(event.Kind))
		eventIDArr = append(eventIDArr, int64(event.EventID))
		tierIDArr = append(tierIDArr, int32(event.TierID))
		addressArr = append(addressArr, event.Address.String())
		amountArr = append(amountArr, numericFromUint128(event.Amount))
		priceArr = append(priceArr, numericFromUint64(event.Price))
		serialArr = append(serialArr, numericFromUint64(event.Serial))
		percentageArr = append(percentageArr, numericFromUint64(event.Percentage))
		timestampArr = append(timestampArr, timestampFromTime(event.Timestamp))
	}
	_, err := r.queryable().Exec(ctx, createProtocolEvents,
		sequenceArr,
		indexArr,
		kindArr,
		eventIDArr,
		tierIDArr,
		addressArr,
		amountArr,
		priceArr,
		serialArr,
		percentageArr,
		timestampArr,
	)
	if err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

const getProtocolEventsBySequence = `
SELECT "sequence", "index", "kind", "event_id", "tier_id", "address", "amount", "price", "serial", "percentage", "timestamp"
FROM ticketing_protocol_events
WHERE "sequence" = $1
ORDER BY "index"
`

func (r *Repository) GetProtocolEventsBySequence(ctx context.Context, sequence uint64) ([]*entity.ProtocolEvent, error) {
	rows, err := r.queryable().Query(ctx, getProtocolEventsBySequence, int64(sequence))
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	defer rows.Close()

	events := make([]*entity.ProtocolEvent, 0)
	for rows.Next() {
		var model protocolEventModel
		if err := rows.Scan(
			&model.Sequence,
			&model.Index,
			&model.Kind,
			&model.EventID,
			&model.TierID,
			&model.Address,
			&model.Amount,
			&model.Price,
			&model.Serial,
			&model.Percentage,
			&model.Timestamp,
		); err != nil {
			return nil, errors.Wrap(err, "error during scan")
		}
		event, err := mapProtocolEventModelToType(model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse protocol event model")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error during iteration")
	}
	return events, nil
}
