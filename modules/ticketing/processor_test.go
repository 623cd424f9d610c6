package ticketing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gatepass-network/boxoffice/modules/ticketing/protocol"
	"github.com/gatepass-network/boxoffice/modules/ticketing/repository/memory"
	"github.com/gatepass-network/boxoffice/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistrationFee = 1_000_000 // 1 GP

var testStart = time.Unix(1_700_000_000, 0).UTC()

// ledger drives a processor over in-memory state with a manual clock. It
// assigns sequence numbers, nonces and signatures the way the sequencer
// admission path would, so journals built here replay under VerifyStates.
type ledger struct {
	t         *testing.T
	processor *Processor
	dg        *memory.Repository
	operator  *crypto.Signer
	now       time.Time
	sequence  uint64
	nonces    map[common.Address]uint64
}

func newLedger(t *testing.T, opts ...ProcessorOption) *ledger {
	t.Helper()
	operator, err := crypto.Generate()
	require.NoError(t, err)
	dg := memory.New()
	return &ledger{
		t:         t,
		processor: NewProcessor(dg, common.NetworkTestnet, operator.Address(), testRegistrationFee, opts...),
		dg:        dg,
		operator:  operator,
		now:       testStart,
		nonces:    make(map[common.Address]uint64),
	}
}

func newSigner(t *testing.T) *crypto.Signer {
	t.Helper()
	signer, err := crypto.Generate()
	require.NoError(t, err)
	return signer
}

func (l *ledger) advance(d time.Duration) {
	l.now = l.now.Add(d)
}

func (l *ledger) submit(signer *crypto.Signer, kind types.OperationKind, payment uint64, payload protocol.Payload) (*types.Receipt, error) {
	l.t.Helper()
	raw, err := protocol.EncodePayload(payload)
	require.NoError(l.t, err)
	return l.submitRaw(signer, kind, payment, raw)
}

// submitRaw signs and applies an envelope with pre-encoded payload bytes.
func (l *ledger) submitRaw(signer *crypto.Signer, kind types.OperationKind, payment uint64, raw []byte) (*types.Receipt, error) {
	l.t.Helper()
	caller := signer.Address()
	envelope := types.Envelope{
		Network: common.NetworkTestnet,
		Kind:    kind,
		Caller:  caller,
		Nonce:   l.nonces[caller] + 1,
		Payment: payment,
		Payload: raw,
	}
	digest, err := envelope.SigningDigest()
	require.NoError(l.t, err)
	envelope.Signature = signer.Sign(digest[:])

	receipt, err := l.processor.Apply(context.Background(), &types.Operation{
		Envelope:  envelope,
		Sequence:  l.sequence + 1,
		Timestamp: l.now,
	})
	if err != nil {
		return nil, err
	}
	l.sequence++
	l.nonces[caller] = envelope.Nonce
	return receipt, nil
}

func (l *ledger) mustApply(signer *crypto.Signer, kind types.OperationKind, payment uint64, payload protocol.Payload) *types.Receipt {
	l.t.Helper()
	receipt, err := l.submit(signer, kind, payment, payload)
	require.NoError(l.t, err)
	require.Equal(l.t, types.ReceiptStatusApplied, receipt.Status, "reason: %s", receipt.Reason)
	return receipt
}

func (l *ledger) mustReject(signer *crypto.Signer, kind types.OperationKind, payment uint64, payload protocol.Payload, reason protocol.RejectReason) *types.Receipt {
	l.t.Helper()
	receipt, err := l.submit(signer, kind, payment, payload)
	require.NoError(l.t, err)
	require.Equal(l.t, types.ReceiptStatusRejected, receipt.Status)
	require.Equal(l.t, string(reason), receipt.Reason)
	return receipt
}

// fund credits the signer's account through an operator deposit.
func (l *ledger) fund(signer *crypto.Signer, amount uint64) {
	l.t.Helper()
	l.mustApply(l.operator, types.OpDeposit, 0, protocol.DepositPayload{To: signer.Address(), Amount: amount})
}

func defaultTierConfig() protocol.TierConfig {
	return protocol.TierConfig{
		Name:                "General Admission",
		Symbol:              "GA",
		TotalTickets:        10,
		BasePrice:           100,
		InitialPrice:        200,
		StartTime:           testStart.Unix(),
		EndTime:             testStart.Add(10000 * time.Second).Unix(),
		PriceUpdateInterval: 100,
		DecayPercentage:     10,
		SalesTimeInterval:   100,
	}
}

// setupEvent funds the organizer, registers and launches an event, and
// returns its assigned id.
func (l *ledger) setupEvent(organizer *crypto.Signer, tiers ...protocol.TierConfig) uint64 {
	l.t.Helper()
	if len(tiers) == 0 {
		tiers = []protocol.TierConfig{defaultTierConfig()}
	}
	l.fund(organizer, testRegistrationFee)
	receipt := l.mustApply(organizer, types.OpRegisterEvent, testRegistrationFee, protocol.RegisterEventPayload{
		Name:  "Continuum Festival",
		Venue: "Harbor Hall",
		Tiers: tiers,
	})
	var result RegisterEventResult
	require.NoError(l.t, json.Unmarshal(receipt.Result, &result))
	l.mustApply(organizer, types.OpLaunchEvent, 0, protocol.LaunchEventPayload{EventID: result.EventID})
	return result.EventID
}

func (l *ledger) tier(eventID uint64, tierID uint32) *entity.Tier {
	l.t.Helper()
	tier, err := l.dg.GetTier(context.Background(), eventID, tierID)
	require.NoError(l.t, err)
	return tier
}

func (l *ledger) account(address common.Address) *entity.FundsAccount {
	l.t.Helper()
	account, err := getFundsAccount(context.Background(), l.dg, address)
	require.NoError(l.t, err)
	return account
}

func (l *ledger) treasury() *entity.Treasury {
	l.t.Helper()
	treasury, err := l.dg.GetTreasury(context.Background())
	require.NoError(l.t, err)
	return treasury
}

func (l *ledger) events(sequence uint64) []*entity.ProtocolEvent {
	l.t.Helper()
	events, err := l.dg.GetProtocolEventsBySequence(context.Background(), sequence)
	require.NoError(l.t, err)
	return events
}

func (l *ledger) assertConserved() {
	l.t.Helper()
	require.NoError(l.t, verifyConservation(context.Background(), l.dg))
}

func TestApplyNonceGate(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	buyer := newSigner(t)

	apply := func(nonce uint64) (*types.Receipt, error) {
		payload, err := protocol.EncodePayload(protocol.QuotePricePayload{EventID: 999, TierID: 0})
		require.NoError(t, err)
		return l.processor.Apply(context.Background(), &types.Operation{
			Envelope: types.Envelope{
				Network: common.NetworkTestnet,
				Kind:    types.OpQuotePrice,
				Caller:  buyer.Address(),
				Nonce:   nonce,
				Payload: payload,
			},
			Sequence:  l.sequence + 1,
			Timestamp: l.now,
		})
	}

	t.Run("wrong_first_nonce", func(t *testing.T) {
		_, err := apply(5)
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.InvalidNonce)
		// nothing journaled, nothing consumed
		_, err = l.dg.GetLatestJournalEntry(context.Background())
		assert.ErrorIs(t, err, errs.NotFound)
		assert.EqualValues(t, 0, l.account(buyer.Address()).Nonce)
	})

	t.Run("rejected_operation_consumes_nonce", func(t *testing.T) {
		receipt, err := apply(1)
		require.NoError(t, err)
		assert.Equal(t, types.ReceiptStatusRejected, receipt.Status)
		assert.Equal(t, string(protocol.ReasonInvalidEventID), receipt.Reason)
		assert.EqualValues(t, 1, l.account(buyer.Address()).Nonce)
		l.sequence++

		// the same nonce can never be admitted again
		_, err = apply(1)
		assert.ErrorIs(t, err, errs.InvalidNonce)
	})
}

func TestApplyPaymentOnlyOnPayableKinds(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	organizer := newSigner(t)
	eventID := l.setupEvent(organizer)

	l.fund(organizer, 500)
	l.mustReject(organizer, types.OpQuotePrice, 500, protocol.QuotePricePayload{EventID: eventID, TierID: 0}, protocol.ReasonInvalidPayload)
	// the rejected payment was not debited
	assert.EqualValues(t, 500, l.account(organizer.Address()).Balance.Uint64())
}

func TestApplyMalformedPayload(t *testing.T) {
	t.Parallel()
	l := newLedger(t)
	buyer := newSigner(t)

	receipt, err := l.processor.Apply(context.Background(), &types.Operation{
		Envelope: types.Envelope{
			Network: common.NetworkTestnet,
			Kind:    types.OpPurchase,
			Caller:  buyer.Address(),
			Nonce:   1,
			Payload: []byte{0xff, 0x00, 0x13},
		},
		Sequence:  1,
		Timestamp: l.now,
	})
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusRejected, receipt.Status)
	assert.Equal(t, string(protocol.ReasonInvalidPayload), receipt.Reason)

	// undecodable payloads journal raw bytes only
	entry, err := l.dg.GetJournalEntryBySequence(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x00, 0x13}, entry.RawPayload)
	assert.Empty(t, entry.ParsedPayload)
}

func TestApplyFailingIssuerLeavesNoTrace(t *testing.T) {
	t.Parallel()
	issuerErr := errors.New("issuer offline")
	l := newLedger(t, WithTokenIssuerFactory(func(dgTx datagateway.TicketingDataGatewayWithTx, operation *types.Operation) TokenIssuer {
		return failingIssuer{err: issuerErr}
	}))
	organizer, buyer := newSigner(t), newSigner(t)
	eventID := l.setupEvent(organizer)
	l.fund(buyer, 1000)
	journalBefore, err := l.dg.GetLatestJournalEntry(context.Background())
	require.NoError(t, err)

	_, err = l.submit(buyer, types.OpPurchase, 200, protocol.PurchasePayload{EventID: eventID, TierID: 0})
	require.Error(t, err)
	assert.ErrorContains(t, err, "issuer offline")

	// an infrastructure failure aborts without journaling or consuming anything
	journalAfter, err := l.dg.GetLatestJournalEntry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, journalBefore.Sequence, journalAfter.Sequence)
	assert.EqualValues(t, 1000, l.account(buyer.Address()).Balance.Uint64())
	assert.EqualValues(t, 0, l.tier(eventID, 0).TicketsSold)
	assert.EqualValues(t, 0, l.account(buyer.Address()).Nonce)
}

func TestLatestReceiptAndAttestation(t *testing.T) {
	t.Parallel()
	l := newLedger(t)

	t.Run("empty_journal", func(t *testing.T) {
		_, err := l.processor.LatestReceipt(context.Background())
		assert.ErrorIs(t, err, errs.NotFound)
		_, err = l.processor.LatestAttestation(context.Background())
		assert.ErrorIs(t, err, errs.NotFound)
	})

	organizer := newSigner(t)
	eventID := l.setupEvent(organizer)

	t.Run("head_after_operations", func(t *testing.T) {
		receipt, err := l.processor.LatestReceipt(context.Background())
		require.NoError(t, err)
		assert.Equal(t, l.sequence, receipt.Sequence)
		assert.Equal(t, types.OpLaunchEvent, receipt.Kind)

		attestation, err := l.processor.LatestAttestation(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ticketing", attestation.Module)
		assert.Equal(t, Version, attestation.ClientVersion)
		assert.Equal(t, DBVersion, attestation.DBVersion)
		assert.Equal(t, EventHashVersion, attestation.EventHashVersion)
		assert.Equal(t, common.NetworkTestnet, attestation.Network)
		assert.Equal(t, receipt.Sequence, attestation.Sequence)
		assert.Equal(t, receipt.EventsHash, attestation.EventsHash)
		assert.Equal(t, receipt.CumulativeHash, attestation.CumulativeHash)
	})

	t.Run("cumulative_chain_extends", func(t *testing.T) {
		before, err := l.processor.LatestReceipt(context.Background())
		require.NoError(t, err)
		buyer := newSigner(t)
		l.fund(buyer, 1000)
		l.mustApply(buyer, types.OpPurchase, 200, protocol.PurchasePayload{EventID: eventID, TierID: 0})

		after, err := l.processor.LatestReceipt(context.Background())
		require.NoError(t, err)
		assert.Equal(t, before.Sequence+2, after.Sequence)
		assert.NotEqual(t, before.CumulativeHash, after.CumulativeHash)
	})
}

type failingIssuer struct {
	err error
}

func (i failingIssuer) Mint(ctx context.Context, tier *entity.Tier, buyer common.Address, pricePaid uint64) (uint64, error) {
	return 0, i.err
}

func (i failingIssuer) SetMetadataBase(ctx context.Context, tier *entity.Tier, uri string) error {
	return i.err
}
