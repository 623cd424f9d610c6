package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/internal/config"
	"github.com/gatepass-network/boxoffice/internal/postgres"
	"github.com/gatepass-network/boxoffice/modules/ticketing"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	ticketingpostgres "github.com/gatepass-network/boxoffice/modules/ticketing/repository/postgres"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/spf13/cobra"
)

func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Replay the journal and verify it reproduces the stored state",
		RunE:  verifyHandler,
	}
}

func verifyHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()
	ctx := cmd.Context()

	if !conf.Network.IsSupported() {
		return errors.Wrapf(errs.Unsupported, "%q network is not supported", conf.Network.String())
	}

	var ticketingDg datagateway.TicketingDataGateway
	switch strings.ToLower(conf.Modules.Ticketing.Database) {
	case "postgresql", "postgres", "pg":
		pg, err := postgres.NewPool(ctx, conf.Modules.Ticketing.Postgres)
		if err != nil {
			if errors.Is(err, errs.InvalidArgument) {
				return errors.Wrap(err, "Invalid Postgres configuration for ticketing")
			}
			return errors.Wrap(err, "can't create Postgres connection pool")
		}
		defer pg.Close()
		ticketingDg = ticketingpostgres.NewRepository(pg)
	default:
		return errors.Wrapf(errs.Unsupported, "%q database does not support journal verification", conf.Modules.Ticketing.Database)
	}

	processor := ticketing.NewProcessor(ticketingDg, conf.Network, conf.Modules.Ticketing.OperatorAddress, conf.Modules.Ticketing.RegistrationFee)

	start := time.Now()
	if err := processor.VerifyStates(ctx); err != nil {
		return errors.Wrap(err, "journal verification failed")
	}
	logger.InfoContext(ctx, "Journal verified", slog.Duration("elapsed", time.Since(start)))
	fmt.Println("Journal verified: stored state matches replay")
	return nil
}
