package ticketing

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/attester"
	"github.com/gatepass-network/boxoffice/core/sequencer"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
)

var _ sequencer.Processor = (*Processor)(nil)

type Processor struct {
	ticketingDg     datagateway.TicketingDataGateway
	network         common.Network
	operatorAddress common.Address
	registrationFee uint64

	newTokenIssuer TokenIssuerFactory
	newPayoutSink  PayoutSinkFactory
}

type ProcessorOption func(*Processor)

// WithTokenIssuerFactory substitutes the credential issuer, e.g. to bridge
// mints to an external token program.
func WithTokenIssuerFactory(factory TokenIssuerFactory) ProcessorOption {
	return func(p *Processor) {
		p.newTokenIssuer = factory
	}
}

// WithPayoutSinkFactory substitutes the payout off-ramp.
func WithPayoutSinkFactory(factory PayoutSinkFactory) ProcessorOption {
	return func(p *Processor) {
		p.newPayoutSink = factory
	}
}

func NewProcessor(ticketingDg datagateway.TicketingDataGateway, network common.Network, operatorAddress common.Address, registrationFee uint64, opts ...ProcessorOption) *Processor {
	p := &Processor{
		ticketingDg:     ticketingDg,
		network:         network,
		operatorAddress: operatorAddress,
		registrationFee: registrationFee,
		newTokenIssuer:  NewNativeTokenIssuer,
		newPayoutSink:   NewNativePayoutSink,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements sequencer.Processor.
func (p *Processor) Name() string {
	return "ticketing"
}

// LatestReceipt implements sequencer.Processor.
func (p *Processor) LatestReceipt(ctx context.Context) (*types.Receipt, error) {
	entry, err := p.ticketingDg.GetLatestJournalEntry(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return entry.Receipt(), nil
}

// LatestAttestation reports the journal head, or errs.NotFound while the
// journal is empty. Together with the sequencer's receipt subscription this
// makes the module an attester.Source.
func (p *Processor) LatestAttestation(ctx context.Context) (attester.Attestation, error) {
	entry, err := p.ticketingDg.GetLatestJournalEntry(ctx)
	if err != nil {
		return attester.Attestation{}, errors.WithStack(err)
	}
	return attester.Attestation{
		Module:           p.Name(),
		ClientVersion:    Version,
		DBVersion:        DBVersion,
		EventHashVersion: EventHashVersion,
		Network:          p.network,
		Sequence:         entry.Sequence,
		EventsHash:       entry.EventsHash,
		CumulativeHash:   entry.CumulativeHash,
	}, nil
}

// Apply implements sequencer.Processor. It executes one admitted operation:
// consume the caller's nonce, run the kind-specific handler, journal the
// outcome and extend the cumulative hash chain.
//
// The nonce and journal entry live in the outer transaction; the handler
// runs in a nested transaction. A domain rejection rolls back the nested
// transaction only, so the rejection is journaled, the nonce stays
// consumed, and every state effect of the handler (including writes made
// before the rejecting check, e.g. a payout sink failure after revenue was
// zeroed) is discarded. Infrastructure errors abort both transactions and
// leave no trace.
func (p *Processor) Apply(ctx context.Context, operation *types.Operation) (*types.Receipt, error) {
	ctx = logger.WithContext(ctx,
		slogx.Uint64("sequence", operation.Sequence),
		slogx.Stringer("kind", operation.Kind),
	)

	dgTx, err := p.ticketingDg.BeginTicketingTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := dgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction",
				slogx.Error(err),
				slogx.String("event", "rollback_ticketing_operation"),
			)
		}
	}()

	account, err := getFundsAccount(ctx, dgTx, operation.Caller)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get funds account")
	}
	if operation.Nonce != account.Nonce+1 {
		return nil, errors.Wrapf(errs.InvalidNonce, "expected nonce %d, got %d", account.Nonce+1, operation.Nonce)
	}
	account.Nonce = operation.Nonce
	if err := dgTx.UpsertFundsAccount(ctx, account); err != nil {
		return nil, errors.Wrap(err, "failed to consume nonce")
	}

	domainTx, err := dgTx.BeginTicketingTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin domain transaction")
	}
	parsedPayload, result, events, opErr := p.applyOperation(ctx, domainTx, operation)

	entry := &entity.JournalEntry{
		Sequence:   operation.Sequence,
		Kind:       operation.Kind,
		Caller:     operation.Caller,
		Nonce:      operation.Nonce,
		Payment:    operation.Payment,
		RawPayload: operation.Payload,
		Signature:  operation.Signature,
		Timestamp:  operation.Timestamp,
	}
	if opErr != nil {
		reason, isRejection := protocol.AsReason(opErr)
		if !isRejection {
			_ = domainTx.Rollback(ctx)
			return nil, errors.Wrapf(opErr, "failed to apply operation %d", operation.Sequence)
		}
		if err := domainTx.Rollback(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to rollback domain transaction")
		}
		logger.DebugContext(ctx, "Operation rejected", slogx.String("reason", string(reason)), slogx.Error(opErr))
		entry.Status = types.ReceiptStatusRejected
		entry.Reason = string(reason)
		result, events = nil, nil
	} else {
		if err := domainTx.Commit(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to commit domain transaction")
		}
		entry.Status = types.ReceiptStatusApplied
	}

	// stamp events with their journal coordinates before hashing
	for i, event := range events {
		event.Sequence = operation.Sequence
		event.Index = uint32(i)
		event.Timestamp = operation.Timestamp
	}
	eventsHash, err := hashEvents(events)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash events")
	}
	prevCumulative := common.ZeroHash
	prevEntry, err := dgTx.GetLatestJournalEntry(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return nil, errors.Wrap(err, "failed to get latest journal entry")
	}
	if err == nil {
		prevCumulative = prevEntry.CumulativeHash
	}
	entry.EventsHash = eventsHash
	entry.CumulativeHash, err = chainReceiptHash(prevCumulative, eventsHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to chain receipt hash")
	}

	if parsedPayload != nil {
		raw, err := json.Marshal(parsedPayload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal parsed payload")
		}
		entry.ParsedPayload = raw
	}
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal result")
		}
		entry.Result = raw
	}

	if err := dgTx.CreateJournalEntry(ctx, entry); err != nil {
		return nil, errors.Wrap(err, "failed to create journal entry")
	}
	if len(events) > 0 {
		if err := dgTx.CreateProtocolEvents(ctx, events); err != nil {
			return nil, errors.Wrap(err, "failed to create protocol events")
		}
	}
	if err := dgTx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return entry.Receipt(), nil
}
