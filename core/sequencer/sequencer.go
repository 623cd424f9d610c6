package sequencer

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/internal/subscription"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
)

// Clock supplies the ledger timestamp stamped onto admitted operations.
// Tests substitute a manual clock to drive time-dependent pricing.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the default clock. Timestamps are truncated to whole
// seconds: all protocol time arithmetic is in seconds, and sub-second
// precision would not survive a journal round trip.
var SystemClock Clock = ClockFunc(func() time.Time {
	return time.Unix(time.Now().Unix(), 0).UTC()
})

// Processor applies admitted operations to module state. Implementations
// must be deterministic: replaying the same operation stream yields the
// same receipts and the same state.
type Processor interface {
	Name() string

	// LatestReceipt returns the most recent journaled receipt, or
	// errs.NotFound when the journal is empty.
	LatestReceipt(ctx context.Context) (*types.Receipt, error)

	// Apply executes one operation inside a single storage transaction.
	// Domain rejections are journaled and returned as rejected receipts;
	// a non-nil error means the operation failed admission or storage and
	// left no trace in the journal.
	Apply(ctx context.Context, operation *types.Operation) (*types.Receipt, error)
}

type Option func(*Sequencer)

func WithClock(clock Clock) Option {
	return func(s *Sequencer) {
		s.clock = clock
	}
}

// Sequencer imposes the global total order on protocol operations. One
// mutex serializes admissions: each admitted operation gets the next
// sequence number and the current ledger timestamp, then runs to
// completion before the next operation is admitted.
type Sequencer struct {
	processor Processor
	network   common.Network
	clock     Clock

	mu       sync.Mutex
	sequence uint64

	subsMu sync.Mutex
	subs   []*subscription.Subscription[*types.Receipt]
}

func New(processor Processor, network common.Network, opts ...Option) *Sequencer {
	s := &Sequencer{
		processor: processor,
		network:   network,
		clock:     SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores the sequence counter from the journal. Must be called
// once before the first Submit.
func (s *Sequencer) Init(ctx context.Context) error {
	receipt, err := s.processor.LatestReceipt(ctx)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil
		}
		return errors.Wrap(err, "failed to get latest receipt")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence = receipt.Sequence
	return nil
}

type inflightKeyType struct{}

var inflightKey inflightKeyType

func isInflight(ctx context.Context) bool {
	_, ok := ctx.Value(inflightKey).(struct{})
	return ok
}

// Submit admits one signed envelope and applies it. Admission checks
// (network, kind, signature, reentrancy, nonce) reject without journaling;
// admitted operations always produce a receipt, applied or rejected.
//
// Capability implementations receive the in-flight context: an operation
// that tries to submit another operation mid-execution is rejected with
// errs.ReentrantCall instead of deadlocking on the admission mutex.
func (s *Sequencer) Submit(ctx context.Context, envelope types.Envelope) (*types.Receipt, error) {
	if isInflight(ctx) {
		return nil, errors.Wrap(errs.ReentrantCall, "submitted from an in-flight operation")
	}
	if envelope.Network != s.network {
		return nil, errors.Wrapf(errs.Unsupported, "envelope network %q, sequencer runs %q", envelope.Network, s.network)
	}
	if !envelope.Kind.IsValid() {
		return nil, errors.Wrapf(errs.InvalidArgument, "unknown operation kind %q", envelope.Kind)
	}
	if err := envelope.VerifySignature(); err != nil {
		return nil, errors.Wrap(errs.InvalidSignature, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	operation := &types.Operation{
		Envelope:  envelope,
		Sequence:  s.sequence + 1,
		Timestamp: s.clock.Now(),
	}
	receipt, err := s.processor.Apply(context.WithValue(ctx, inflightKey, struct{}{}), operation)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s.sequence = receipt.Sequence
	s.notify(ctx, receipt)
	return receipt, nil
}

// Sequence returns the sequence number of the last journaled operation.
func (s *Sequencer) Sequence() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}

// Subscribe streams every journaled receipt to ch, in sequence order.
func (s *Sequencer) Subscribe(ctx context.Context, ch chan<- *types.Receipt) (*subscription.ClientSubscription[*types.Receipt], error) {
	sub := subscription.NewSubscription(ch)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.subs = append(s.subs, sub)
	return sub.Client(), nil
}

// notifyTimeout bounds how long a stalled subscriber can hold up delivery
// before it is dropped. Delivery runs outside the submitter's context so a
// canceled submission does not tear down healthy subscriptions.
const notifyTimeout = 5 * time.Second

func (s *Sequencer) notify(ctx context.Context, receipt *types.Receipt) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	subs := s.subs[:0]
	for _, sub := range s.subs {
		if err := sub.Send(ctx, receipt); err != nil {
			logger.WarnContext(ctx, "Dropping stalled receipt subscription", slogx.Error(err))
			sub.Unsubscribe()
			continue
		}
		subs = append(subs, sub)
	}
	s.subs = subs
}

// Shutdown closes all receipt subscriptions.
func (s *Sequencer) Shutdown() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	return nil
}
