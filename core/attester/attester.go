package attester

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/internal/subscription"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
	"github.com/gatepass-network/boxoffice/pkg/reportingclient"
)

// reportInterval is the fallback reporting cadence when no receipts arrive.
const reportInterval = 30 * time.Second

// Attestation is a module's claim about its journal head. Nodes that report
// the same cumulative hash at the same sequence hold identical histories.
type Attestation struct {
	Module           string
	ClientVersion    string
	DBVersion        int
	EventHashVersion int
	Network          common.Network
	Sequence         uint64
	EventsHash       common.Hash
	CumulativeHash   common.Hash
}

// Source is the module side of attestation reporting.
type Source interface {
	Name() string

	// LatestAttestation returns the attestation for the journal head, or
	// errs.NotFound when the journal is empty.
	LatestAttestation(ctx context.Context) (Attestation, error)

	// SubscribeReceipts streams journaled receipts as they are committed.
	SubscribeReceipts(ctx context.Context, ch chan<- *types.Receipt) (*subscription.ClientSubscription[*types.Receipt], error)
}

// Attester is the module worker: it reports the journal head to the network
// aggregator whenever a receipt is committed, with a ticker as fallback.
type Attester struct {
	source    Source
	reporting *reportingclient.ReportingClient

	lastReported uint64

	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

// New creates an attester for source. reporting may be nil (reporting
// disabled); the worker then idles until shutdown so module lifecycles stay
// uniform.
func New(source Source, reporting *reportingclient.ReportingClient) *Attester {
	return &Attester{
		source:    source,
		reporting: reporting,

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (a *Attester) Shutdown() error {
	return a.ShutdownWithContext(context.Background())
}

func (a *Attester) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.ShutdownWithContext(ctx)
}

func (a *Attester) ShutdownWithContext(ctx context.Context) (err error) {
	a.quitOnce.Do(func() {
		close(a.quit)
		select {
		case <-a.done:
		case <-time.After(60 * time.Second):
			err = errors.Wrap(errs.Timeout, "attester shutdown timeout")
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "attester shutdown context canceled")
		}
	})
	return
}

func (a *Attester) Run(ctx context.Context) error {
	defer close(a.done)

	ctx = logger.WithContext(ctx,
		slog.String("package", "attester"),
		slog.String("module", a.source.Name()),
	)

	if a.reporting == nil {
		logger.DebugContext(ctx, "Reporting is disabled, attester is idle")
		select {
		case <-a.quit:
		case <-ctx.Done():
		}
		return nil
	}

	receipts := make(chan *types.Receipt)
	sub, err := a.source.SubscribeReceipts(ctx, receipts)
	if err != nil {
		return errors.Wrap(err, "failed to subscribe to receipts")
	}
	defer sub.Unsubscribe()
	subDone := sub.Done()

	// report the current head immediately so restarts show up fast
	if err := a.report(ctx); err != nil {
		logger.WarnContext(ctx, "Failed to submit initial attestation", slogx.Error(err))
	}

	ticker := time.NewTicker(reportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.quit:
			logger.InfoContext(ctx, "Got quit signal, stopping attester")
			return nil
		case <-ctx.Done():
			return nil
		case <-receipts:
			if err := a.report(ctx); err != nil {
				logger.WarnContext(ctx, "Failed to submit attestation", slogx.Error(err))
			}
		case <-ticker.C:
			if err := a.report(ctx); err != nil {
				logger.WarnContext(ctx, "Failed to submit attestation", slogx.Error(err))
			}
		case err := <-sub.Err():
			if err != nil {
				logger.WarnContext(ctx, "Receipt subscription error", slogx.Error(err))
			}
		case <-subDone:
			// the sequencer dropped us as a stalled subscriber; the
			// ticker keeps attestations flowing
			logger.WarnContext(ctx, "Receipt subscription closed, falling back to interval reporting")
			receipts, subDone = nil, nil
		}
	}
}

// report submits the journal-head attestation, deduplicating by sequence.
func (a *Attester) report(ctx context.Context) error {
	attestation, err := a.source.LatestAttestation(ctx)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil
		}
		return errors.Wrap(err, "failed to get latest attestation")
	}
	if attestation.Sequence == a.lastReported {
		return nil
	}
	if err := a.reporting.SubmitAttestation(ctx, reportingclient.SubmitAttestationPayload{
		Type:             attestation.Module,
		ClientVersion:    attestation.ClientVersion,
		DBVersion:        attestation.DBVersion,
		EventHashVersion: attestation.EventHashVersion,
		Network:          attestation.Network,
		Sequence:         attestation.Sequence,
		EventsHash:       attestation.EventsHash,
		CumulativeHash:   attestation.CumulativeHash,
	}); err != nil {
		return errors.Wrap(err, "failed to submit attestation")
	}
	a.lastReported = attestation.Sequence
	return nil
}
