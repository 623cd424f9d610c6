package ticketing

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/repository/memory"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
)

// verifyPageSize bounds journal reads during replay.
const verifyPageSize = 512

// VerifyStates audits the journal against the live ledger. Every entry is
// replayed on a fresh in-memory state: signatures must verify, outcomes
// (status, reason, events hash, cumulative hash) must match the journaled
// receipt, and at the end the live and replayed ledgers must agree on their
// aggregate value positions and both satisfy value conservation. Any
// mismatch means the stored state did not come from the stored journal.
func (p *Processor) VerifyStates(ctx context.Context) error {
	latest, err := p.ticketingDg.GetLatestJournalEntry(ctx)
	if errors.Is(err, errs.NotFound) {
		// nothing journaled: only conservation on the (empty) ledger applies
		return verifyConservation(ctx, p.ticketingDg)
	}
	if err != nil {
		return errors.Wrap(err, "failed to get latest journal entry")
	}
	logger.InfoContext(ctx, "Verifying journal", slogx.Uint64("sequence", latest.Sequence))

	replayDg := memory.New()
	replay := NewProcessor(replayDg, p.network, p.operatorAddress, p.registrationFee,
		WithTokenIssuerFactory(p.newTokenIssuer),
		WithPayoutSinkFactory(p.newPayoutSink),
	)

	expected := uint64(1)
	for from := uint64(1); from <= latest.Sequence; from += verifyPageSize {
		to := from + verifyPageSize - 1
		if to > latest.Sequence {
			to = latest.Sequence
		}
		entries, err := p.ticketingDg.GetJournalEntries(ctx, datagateway.GetJournalEntriesParams{
			FromSequence: from,
			ToSequence:   to,
		})
		if err != nil {
			return errors.Wrap(err, "failed to get journal entries")
		}
		for _, entry := range entries {
			if entry.Sequence != expected {
				return errors.Wrapf(errs.ConflictSetting, "journal gap: expected sequence %d, found %d", expected, entry.Sequence)
			}
			if err := replayEntry(ctx, replay, entry); err != nil {
				return err
			}
			expected++
		}
	}
	if expected != latest.Sequence+1 {
		return errors.Wrapf(errs.ConflictSetting, "journal truncated: expected %d entries, replayed %d", latest.Sequence, expected-1)
	}

	if err := compareLedgers(ctx, p.ticketingDg, replayDg); err != nil {
		return err
	}
	if err := verifyConservation(ctx, p.ticketingDg); err != nil {
		return err
	}
	return verifyConservation(ctx, replayDg)
}

func replayEntry(ctx context.Context, replay *Processor, entry *entity.JournalEntry) error {
	operation := &types.Operation{
		Envelope: types.Envelope{
			Network:   replay.network,
			Kind:      entry.Kind,
			Caller:    entry.Caller,
			Nonce:     entry.Nonce,
			Payment:   entry.Payment,
			Payload:   entry.RawPayload,
			Signature: entry.Signature,
		},
		Sequence:  entry.Sequence,
		Timestamp: entry.Timestamp,
	}
	// journaled envelopes passed admission once; failing now means the
	// journal was altered after the fact
	if err := operation.VerifySignature(); err != nil {
		return errors.Wrapf(errs.ConflictSetting, "sequence %d: journaled signature no longer verifies: %s", entry.Sequence, err.Error())
	}
	receipt, err := replay.Apply(ctx, operation)
	if err != nil {
		return errors.Wrapf(err, "sequence %d: replay failed", entry.Sequence)
	}
	if receipt.Status != entry.Status {
		return errors.Wrapf(errs.ConflictSetting, "sequence %d: replayed status %s, journaled %s", entry.Sequence, receipt.Status, entry.Status)
	}
	if receipt.Reason != entry.Reason {
		return errors.Wrapf(errs.ConflictSetting, "sequence %d: replayed reason %q, journaled %q", entry.Sequence, receipt.Reason, entry.Reason)
	}
	if receipt.EventsHash != entry.EventsHash {
		return errors.Wrapf(errs.ConflictSetting, "sequence %d: replayed events hash %s, journaled %s", entry.Sequence, receipt.EventsHash, entry.EventsHash)
	}
	if receipt.CumulativeHash != entry.CumulativeHash {
		return errors.Wrapf(errs.ConflictSetting, "sequence %d: replayed cumulative hash %s, journaled %s", entry.Sequence, receipt.CumulativeHash, entry.CumulativeHash)
	}
	return nil
}

// compareLedgers checks that two data gateways agree on every aggregate
// value position.
func compareLedgers(ctx context.Context, live, replayed datagateway.TicketingDataGateway) error {
	liveTreasury, err := live.GetTreasury(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get live treasury")
	}
	replayedTreasury, err := replayed.GetTreasury(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get replayed treasury")
	}
	if *liveTreasury != *replayedTreasury {
		return errors.Wrapf(errs.ConflictSetting, "treasury diverged: live %+v, replayed %+v", liveTreasury, replayedTreasury)
	}

	liveCredits, err := live.SumFundsBalances(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to sum live funds balances")
	}
	replayedCredits, err := replayed.SumFundsBalances(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to sum replayed funds balances")
	}
	if liveCredits.Cmp(replayedCredits) != 0 {
		return errors.Wrapf(errs.ConflictSetting, "credit balances diverged: live %s, replayed %s", liveCredits, replayedCredits)
	}

	liveRevenue, err := live.SumTierRevenue(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to sum live tier revenue")
	}
	replayedRevenue, err := replayed.SumTierRevenue(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to sum replayed tier revenue")
	}
	if liveRevenue.Cmp(replayedRevenue) != 0 {
		return errors.Wrapf(errs.ConflictSetting, "custodied revenue diverged: live %s, replayed %s", liveRevenue, replayedRevenue)
	}
	return nil
}

// verifyConservation checks the ledger-wide invariant:
//
//	totalDeposited - totalPaidOut == credits + custodied revenue + treasury
func verifyConservation(ctx context.Context, dg datagateway.TicketingDataGateway) error {
	treasury, err := dg.GetTreasury(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get treasury")
	}
	credits, err := dg.SumFundsBalances(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to sum funds balances")
	}
	revenue, err := dg.SumTierRevenue(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to sum tier revenue")
	}
	circulating := treasury.TotalDeposited.Sub(treasury.TotalPaidOut)
	held := credits.Add(revenue).Add(treasury.Balance)
	if circulating.Cmp(held) != 0 {
		return errors.Wrapf(errs.ConflictSetting, "value conservation violated: deposited-paidOut is %s but credits+revenue+treasury is %s", circulating, held)
	}
	return nil
}
