package ticketing

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gatepass-network/boxoffice/modules/ticketing/repository/memory"
	"github.com/gaze-network/uint128"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runLifecycle journals a mixed history: deposits, a registered and launched
// event, purchases, rejections of several reasons, a discount round trip,
// price decay quotes, withdrawals and a treasury sweep.
func runLifecycle(t *testing.T, l *ledger) {
	t.Helper()
	organizer, buyer := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)
	l.fund(buyer, 5000)

	l.buy(buyer, eventID, 0, 200)
	// underpaying journals a rejection that must replay identically
	l.mustReject(buyer, types.OpPurchase, 100, protocol.PurchasePayload{EventID: eventID, TierID: 0}, protocol.ReasonInsufficientPayment)
	// as does a signed envelope whose payload never decoded
	receipt, err := l.submitRaw(buyer, types.OpPurchase, 0, []byte{0xff, 0x13})
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusRejected, receipt.Status)

	l.mustReject(buyer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 10}, protocol.ReasonUnauthorized)
	l.mustApply(organizer, types.OpSetDiscount, 0, protocol.SetDiscountPayload{EventID: eventID, TierID: 0, Percentage: 50})
	l.mustApply(organizer, types.OpCancelDiscount, 0, protocol.CancelDiscountPayload{EventID: eventID, TierID: 0})

	l.advance(101 * time.Second)
	l.quote(buyer, eventID, 0)
	l.buy(buyer, eventID, 0, 300)

	l.advance(10000 * time.Second)
	l.mustApply(organizer, types.OpWithdrawAll, 0, protocol.WithdrawAllPayload{EventID: eventID})
	l.mustApply(l.operator, types.OpSweepTreasury, 0, protocol.SweepTreasuryPayload{To: l.operator.Address()})
}

func TestVerifyStatesEmptyJournal(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	assert.NoError(t, l.processor.VerifyStates(context.Background()))
}

func TestVerifyStatesCleanJournal(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	runLifecycle(t, l)
	l.assertConserved()
	assert.NoError(t, l.processor.VerifyStates(context.Background()))
}

func TestVerifyStatesDetectsLedgerTamper(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	runLifecycle(t, l)

	// credit appearing outside any journaled operation
	ghost := newSigner(t)
	require.NoError(t, l.dg.UpsertFundsAccount(context.Background(), &entity.FundsAccount{
		Address: ghost.Address(),
		Balance: uint128.From64(1),
	}))

	err := l.processor.VerifyStates(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ConflictSetting)
}

func TestVerifyStatesDetectsJournalTamper(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	runLifecycle(t, l)

	latest, err := l.dg.GetLatestJournalEntry(context.Background())
	require.NoError(t, err)
	entries, err := l.dg.GetJournalEntries(context.Background(), datagateway.GetJournalEntriesParams{
		FromSequence: 1,
		ToSequence:   latest.Sequence,
	})
	require.NoError(t, err)

	t.Run("forged_signature", func(t *testing.T) {
		forged := copyJournal(t, l, entries, func(entry *entity.JournalEntry) {
			if entry.Sequence == 3 {
				entry.Signature = slices.Clone(entry.Signature)
				entry.Signature[0] ^= 0x01
			}
		})
		err := forged.VerifyStates(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ConflictSetting)
		assert.ErrorContains(t, err, "signature")
	})

	t.Run("forged_events_hash", func(t *testing.T) {
		forged := copyJournal(t, l, entries, func(entry *entity.JournalEntry) {
			if entry.Sequence == 5 {
				entry.EventsHash[0] ^= 0x01
			}
		})
		err := forged.VerifyStates(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ConflictSetting)
		assert.ErrorContains(t, err, "events hash")
	})

	t.Run("swapped_operation_kind", func(t *testing.T) {
		// the signature covers the kind, so repurposing a signed envelope
		// as a different operation cannot verify
		forged := copyJournal(t, l, entries, func(entry *entity.JournalEntry) {
			if entry.Kind == types.OpPurchase && entry.Status == types.ReceiptStatusApplied {
				entry.Kind = types.OpQuotePrice
			}
		})
		err := forged.VerifyStates(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ConflictSetting)
		assert.ErrorContains(t, err, "signature")
	})
}

// copyJournal rebuilds the journal in a fresh repository, applying doctor
// to each copied entry, and returns a processor over the forged copy.
func copyJournal(t *testing.T, l *ledger, entries []*entity.JournalEntry, doctor func(*entity.JournalEntry)) *Processor {
	t.Helper()
	forgedDg := memory.New()
	for _, entry := range entries {
		copied := *entry
		doctor(&copied)
		require.NoError(t, forgedDg.CreateJournalEntry(context.Background(), &copied))
	}
	return NewProcessor(forgedDg, l.processor.network, l.processor.operatorAddress, l.processor.registrationFee)
}
