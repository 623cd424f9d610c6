package sequencer

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProcessor journals every applied operation in memory. applyFn, when
// set, replaces the default apply behavior.
type fakeProcessor struct {
	journal []*types.Receipt
	applyFn func(ctx context.Context, operation *types.Operation) (*types.Receipt, error)
}

func (p *fakeProcessor) Name() string {
	return "fake"
}

func (p *fakeProcessor) LatestReceipt(_ context.Context) (*types.Receipt, error) {
	if len(p.journal) == 0 {
		return nil, errors.WithStack(errs.NotFound)
	}
	return p.journal[len(p.journal)-1], nil
}

func (p *fakeProcessor) Apply(ctx context.Context, operation *types.Operation) (*types.Receipt, error) {
	if p.applyFn != nil {
		return p.applyFn(ctx, operation)
	}
	receipt := &types.Receipt{
		Sequence:  operation.Sequence,
		Kind:      operation.Kind,
		Caller:    operation.Caller,
		Status:    types.ReceiptStatusApplied,
		Timestamp: operation.Timestamp,
	}
	p.journal = append(p.journal, receipt)
	return receipt, nil
}

func newSigner(t *testing.T) *crypto.Signer {
	t.Helper()
	signer, err := crypto.Generate()
	require.NoError(t, err)
	return signer
}

func signedEnvelope(t *testing.T, signer *crypto.Signer, kind types.OperationKind, nonce uint64) types.Envelope {
	t.Helper()
	envelope := types.Envelope{
		Network: common.NetworkTestnet,
		Kind:    kind,
		Caller:  signer.Address(),
		Nonce:   nonce,
		Payload: []byte{0xa0},
	}
	digest, err := envelope.SigningDigest()
	require.NoError(t, err)
	envelope.Signature = signer.Sign(digest[:])
	return envelope
}

func TestSubmitAdmission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer := newSigner(t)

	newSequencer := func() (*Sequencer, *fakeProcessor) {
		processor := &fakeProcessor{}
		return New(processor, common.NetworkTestnet), processor
	}

	t.Run("wrong_network", func(t *testing.T) {
		s, processor := newSequencer()
		envelope := signedEnvelope(t, signer, types.OpDeposit, 1)
		envelope.Network = common.NetworkMainnet

		receipt, err := s.Submit(ctx, envelope)
		assert.ErrorIs(t, err, errs.Unsupported)
		assert.Nil(t, receipt)
		assert.Empty(t, processor.journal)
	})

	t.Run("unknown_kind", func(t *testing.T) {
		s, processor := newSequencer()
		envelope := signedEnvelope(t, signer, types.OperationKind("mint_badge"), 1)

		receipt, err := s.Submit(ctx, envelope)
		assert.ErrorIs(t, err, errs.InvalidArgument)
		assert.Nil(t, receipt)
		assert.Empty(t, processor.journal)
	})

	t.Run("tampered_signature", func(t *testing.T) {
		s, processor := newSequencer()
		envelope := signedEnvelope(t, signer, types.OpDeposit, 1)
		envelope.Signature[0] ^= 0x01

		receipt, err := s.Submit(ctx, envelope)
		assert.ErrorIs(t, err, errs.InvalidSignature)
		assert.Nil(t, receipt)
		assert.Empty(t, processor.journal)
	})

	t.Run("missing_signature", func(t *testing.T) {
		s, processor := newSequencer()
		envelope := signedEnvelope(t, signer, types.OpDeposit, 1)
		envelope.Signature = nil

		receipt, err := s.Submit(ctx, envelope)
		assert.ErrorIs(t, err, errs.InvalidSignature)
		assert.Nil(t, receipt)
		assert.Empty(t, processor.journal)
	})

	t.Run("signed_fields_are_covered", func(t *testing.T) {
		// mutating any signed field after signing invalidates the envelope
		s, _ := newSequencer()
		envelope := signedEnvelope(t, signer, types.OpDeposit, 1)
		envelope.Payment = 500

		_, err := s.Submit(ctx, envelope)
		assert.ErrorIs(t, err, errs.InvalidSignature)
	})
}

func TestSubmitStampsSequenceAndTimestamp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer := newSigner(t)
	now := time.Unix(1_700_000_000, 0).UTC()
	clock := ClockFunc(func() time.Time { return now })

	var applied []*types.Operation
	processor := &fakeProcessor{}
	processor.applyFn = func(_ context.Context, operation *types.Operation) (*types.Receipt, error) {
		applied = append(applied, operation)
		receipt := &types.Receipt{
			Sequence:  operation.Sequence,
			Kind:      operation.Kind,
			Caller:    operation.Caller,
			Status:    types.ReceiptStatusApplied,
			Timestamp: operation.Timestamp,
		}
		processor.journal = append(processor.journal, receipt)
		return receipt, nil
	}
	s := New(processor, common.NetworkTestnet, WithClock(clock))

	for i := uint64(1); i <= 3; i++ {
		receipt, err := s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, i))
		require.NoError(t, err)
		assert.Equal(t, i, receipt.Sequence)
		assert.Equal(t, now, receipt.Timestamp)
		now = now.Add(30 * time.Second)
	}

	require.Len(t, applied, 3)
	for i, operation := range applied {
		assert.Equal(t, uint64(i+1), operation.Sequence)
		assert.Equal(t, time.Unix(1_700_000_000, 0).UTC().Add(time.Duration(i)*30*time.Second), operation.Timestamp)
	}
	assert.Equal(t, uint64(3), s.Sequence())
}

func TestSubmitReentrantCall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer := newSigner(t)

	var s *Sequencer
	processor := &fakeProcessor{}
	processor.applyFn = func(ctx context.Context, operation *types.Operation) (*types.Receipt, error) {
		assert.True(t, isInflight(ctx))

		// an operation submitting another operation mid-execution must be
		// rejected instead of deadlocking on the admission mutex
		_, err := s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, 99))
		assert.ErrorIs(t, err, errs.ReentrantCall)

		receipt := &types.Receipt{
			Sequence: operation.Sequence,
			Kind:     operation.Kind,
			Caller:   operation.Caller,
			Status:   types.ReceiptStatusApplied,
		}
		processor.journal = append(processor.journal, receipt)
		return receipt, nil
	}
	s = New(processor, common.NetworkTestnet)

	receipt, err := s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, 1))
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusApplied, receipt.Status)
	assert.Len(t, processor.journal, 1)
}

func TestSubmitProcessorErrorKeepsSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer := newSigner(t)

	processor := &fakeProcessor{}
	failing := errors.New("storage offline")
	processor.applyFn = func(context.Context, *types.Operation) (*types.Receipt, error) {
		return nil, failing
	}
	s := New(processor, common.NetworkTestnet)

	_, err := s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, 1))
	require.ErrorIs(t, err, failing)
	assert.Equal(t, uint64(0), s.Sequence())

	// the failed slot is reissued to the next admitted operation
	processor.applyFn = nil
	receipt, err := s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Sequence)
}

func TestInitRestoresSequence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer := newSigner(t)

	t.Run("empty_journal", func(t *testing.T) {
		s := New(&fakeProcessor{}, common.NetworkTestnet)
		require.NoError(t, s.Init(ctx))
		assert.Equal(t, uint64(0), s.Sequence())
	})

	t.Run("resumes_after_journal_head", func(t *testing.T) {
		processor := &fakeProcessor{
			journal: []*types.Receipt{{
				Sequence: 42,
				Kind:     types.OpPurchase,
				Status:   types.ReceiptStatusApplied,
			}},
		}
		s := New(processor, common.NetworkTestnet)
		require.NoError(t, s.Init(ctx))
		assert.Equal(t, uint64(42), s.Sequence())

		receipt, err := s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, 1))
		require.NoError(t, err)
		assert.Equal(t, uint64(43), receipt.Sequence)
	})

	t.Run("storage_error_propagates", func(t *testing.T) {
		failing := errors.New("storage offline")
		processor := &fakeProcessorWithLatestErr{fakeProcessor: &fakeProcessor{}, err: failing}
		s := New(processor, common.NetworkTestnet)
		assert.ErrorIs(t, s.Init(ctx), failing)
	})
}

type fakeProcessorWithLatestErr struct {
	*fakeProcessor
	err error
}

func (p *fakeProcessorWithLatestErr) LatestReceipt(context.Context) (*types.Receipt, error) {
	return nil, p.err
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer := newSigner(t)
	s := New(&fakeProcessor{}, common.NetworkTestnet)

	receipts := make(chan *types.Receipt, 8)
	sub, err := s.Subscribe(ctx, receipts)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	for nonce := uint64(1); nonce <= 2; nonce++ {
		_, err := s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, nonce))
		require.NoError(t, err)
	}

	for want := uint64(1); want <= 2; want++ {
		select {
		case receipt := <-receipts:
			assert.Equal(t, want, receipt.Sequence)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for receipt %d", want)
		}
	}
}

func TestSubscribeUnsubscribedIsDropped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer := newSigner(t)
	s := New(&fakeProcessor{}, common.NetworkTestnet)

	dead, err := s.Subscribe(ctx, make(chan *types.Receipt, 1))
	require.NoError(t, err)
	dead.Unsubscribe()
	require.True(t, dead.IsClosed())

	live := make(chan *types.Receipt, 8)
	sub, err := s.Subscribe(ctx, live)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	// delivery skips the closed subscription and still reaches live ones
	_, err = s.Submit(ctx, signedEnvelope(t, signer, types.OpDeposit, 1))
	require.NoError(t, err)

	select {
	case receipt := <-live:
		assert.Equal(t, uint64(1), receipt.Sequence)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for receipt")
	}
}

func TestShutdownClosesSubscriptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(&fakeProcessor{}, common.NetworkTestnet)

	first, err := s.Subscribe(ctx, make(chan *types.Receipt, 1))
	require.NoError(t, err)
	second, err := s.Subscribe(ctx, make(chan *types.Receipt, 1))
	require.NoError(t, err)

	require.NoError(t, s.Shutdown())
	assert.True(t, first.IsClosed())
	assert.True(t, second.IsClosed())
}

func TestSystemClockWholeSeconds(t *testing.T) {
	t.Parallel()

	now := SystemClock.Now()
	assert.Zero(t, now.Nanosecond())
	assert.Equal(t, time.UTC, now.Location())
}
