package ticketing

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/core"
	"github.com/gatepass-network/boxoffice/core/attester"
	"github.com/gatepass-network/boxoffice/core/sequencer"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/internal/config"
	"github.com/gatepass-network/boxoffice/internal/postgres"
	"github.com/gatepass-network/boxoffice/internal/subscription"
	ticketingapi "github.com/gatepass-network/boxoffice/modules/ticketing/api"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	"github.com/gatepass-network/boxoffice/modules/ticketing/repository/memory"
	ticketingpostgres "github.com/gatepass-network/boxoffice/modules/ticketing/repository/postgres"
	ticketingusecase "github.com/gatepass-network/boxoffice/modules/ticketing/usecase"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/reportingclient"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/do/v2"
	"github.com/samber/lo"
)

func New(injector do.Injector) (core.Worker, error) {
	ctx := do.MustInvoke[context.Context](injector)
	conf := do.MustInvoke[config.Config](injector)
	reportingClient := do.MustInvoke[*reportingclient.ReportingClient](injector)

	var ticketingDg datagateway.TicketingDataGateway
	var cleanupFuncs []func(context.Context) error
	switch strings.ToLower(conf.Modules.Ticketing.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, conf.Modules.Ticketing.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return nil, errors.Wrap(err, "Invalid Postgres configuration for ticketing")
			}
			return nil, errors.Wrap(err, "can't create Postgres connection pool")
		}
		cleanupFuncs = append(cleanupFuncs, func(ctx context.Context) error {
			pg.Close()
			return nil
		})
		ticketingDg = ticketingpostgres.NewRepository(pg)
	case "memory":
		ticketingDg = memory.New()
	default:
		return nil, errors.Wrapf(errs.Unsupported, "%q database for ticketing is not supported", conf.Modules.Ticketing.Database)
	}

	operatorAddress := conf.Modules.Ticketing.OperatorAddress
	if operatorAddress != "" && !operatorAddress.IsValid() {
		return nil, errors.Wrapf(errs.InvalidArgument, "invalid operator address %q", operatorAddress)
	}

	processor := NewProcessor(ticketingDg, conf.Network, operatorAddress, conf.Modules.Ticketing.RegistrationFee)
	if err := processor.VerifyStates(ctx); err != nil {
		return nil, errors.WithStack(err)
	}

	seq := sequencer.New(processor, conf.Network)
	if err := seq.Init(ctx); err != nil {
		return nil, errors.Wrap(err, "can't init sequencer")
	}

	// Mount API
	apiHandlers := lo.Uniq(conf.Modules.Ticketing.APIHandlers)
	for _, handler := range apiHandlers {
		switch handler {
		case "http":
			httpServer := do.MustInvoke[*fiber.App](injector)
			ticketingUsecase := ticketingusecase.New(ticketingDg)
			ticketingHTTPHandler := ticketingapi.NewHTTPHandler(conf.Network, ticketingUsecase, seq)
			if err := ticketingHTTPHandler.Mount(httpServer); err != nil {
				return nil, errors.Wrap(err, "can't mount ticketing API")
			}
			logger.InfoContext(ctx, "Mounted HTTP handler")
		default:
			return nil, errors.Wrapf(errs.Unsupported, "%q API handler is not supported", handler)
		}
	}

	return &worker{
		Attester:     attester.New(attestationSource{Processor: processor, sequencer: seq}, reportingClient),
		sequencer:    seq,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

// attestationSource joins the processor's journal head with the sequencer's
// receipt stream to satisfy attester.Source.
type attestationSource struct {
	*Processor
	sequencer *sequencer.Sequencer
}

var _ attester.Source = attestationSource{}

func (s attestationSource) SubscribeReceipts(ctx context.Context, ch chan<- *types.Receipt) (*subscription.ClientSubscription[*types.Receipt], error) {
	return s.sequencer.Subscribe(ctx, ch)
}

// worker bundles the module's attester with the resources whose lifecycle it
// owns: the sequencer's subscriptions and the storage cleanup.
type worker struct {
	*attester.Attester
	sequencer    *sequencer.Sequencer
	cleanupFuncs []func(context.Context) error
}

var _ core.Worker = (*worker)(nil)

func (w *worker) Shutdown() error {
	return w.ShutdownWithContext(context.Background())
}

func (w *worker) ShutdownWithContext(ctx context.Context) error {
	errList := []error{
		w.Attester.ShutdownWithContext(ctx),
		w.sequencer.Shutdown(),
	}
	for _, cleanup := range w.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.WithStack(errors.Join(errList...))
}
