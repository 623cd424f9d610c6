package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common/errs"
	"github.com/gatepass-network/boxoffice/internal/config"
	"github.com/gatepass-network/boxoffice/internal/postgres"
	"github.com/gatepass-network/boxoffice/modules/ticketing/datagateway"
	ticketingpostgres "github.com/gatepass-network/boxoffice/modules/ticketing/repository/postgres"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/gatepass-network/boxoffice/pkg/logger/slogx"
	"github.com/gatepass-network/boxoffice/pkg/parquetutils"
	cstream "github.com/planxnx/concurrent-stream"
	"github.com/spf13/cobra"
)

const (
	exportPageSize    = 1000
	exportConcurrency = 4
)

type exportCmdOptions struct {
	FromSequence uint64
	ToSequence   uint64
	Output       string
}

func NewExportCommand() *cobra.Command {
	opts := &exportCmdOptions{}

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export the operation journal to a parquet file",
		Example: `boxoffice export --from 1 --to 50000 --output s3://my-bucket/journal.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&opts.FromSequence, "from", 1, "First sequence number to export")
	flags.Uint64Var(&opts.ToSequence, "to", 0, "Last sequence number to export. 0 exports up to the journal head")
	flags.StringVar(&opts.Output, "output", "journal.parquet", "Output file path, or `s3://bucket/key` to upload")

	return cmd
}

// journalRow is the parquet projection of one journal entry. Payload and
// signature stay raw bytes, hashes are hex, parsed payload and result are
// JSON text.
type journalRow struct {
	Sequence       int64  `parquet:"name=sequence, type=INT64"`
	Kind           string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	Caller         string `parquet:"name=caller, type=BYTE_ARRAY, convertedtype=UTF8"`
	Nonce          int64  `parquet:"name=nonce, type=INT64"`
	Payment        int64  `parquet:"name=payment, type=INT64"`
	Payload        string `parquet:"name=payload, type=BYTE_ARRAY"`
	ParsedPayload  string `parquet:"name=parsed_payload, type=BYTE_ARRAY, convertedtype=UTF8"`
	Signature      string `parquet:"name=signature, type=BYTE_ARRAY"`
	Status         string `parquet:"name=status, type=BYTE_ARRAY, convertedtype=UTF8"`
	Reason         string `parquet:"name=reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result         string `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	EventsHash     string `parquet:"name=events_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	CumulativeHash string `parquet:"name=cumulative_hash, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp      int64  `parquet:"name=timestamp, type=INT64"`
}

func exportHandler(opts *exportCmdOptions, cmd *cobra.Command, _ []string) error {
	conf := config.Load()
	ctx := cmd.Context()

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
		return errors.Wrapf(errs.Unsupported, "%q database does not support journal export", conf.Modules.Ticketing.Database)
	}

	latest, err := ticketingDg.GetLatestJournalEntry(ctx)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return errors.Wrap(errs.NotFound, "journal is empty, nothing to export")
		}
		return errors.Wrap(err, "failed to get latest journal entry")
	}

	from := opts.FromSequence
	if from == 0 {
		from = 1
	}
	to := opts.ToSequence
	if to == 0 || to > latest.Sequence {
		to = latest.Sequence
	}
	if from > to {
		return errors.Wrapf(errs.InvalidArgument, "from sequence %d is beyond to sequence %d", from, to)
	}

	// Parallel page fetches; the stream emits pages in submission order so
	// the file stays sorted by sequence.
	out := make(chan []journalRow)
	stream := cstream.NewStream(ctx, exportConcurrency, out)

	var (
		fetchErrOnce sync.Once
		fetchErr     error
	)
	go func() {
		defer stream.Close()
		for start := from; start <= to; start += exportPageSize {
			start := start
			end := start + exportPageSize - 1
			if end > to {
				end = to
			}
			stream.Go(func() []journalRow {
				entries, err := ticketingDg.GetJournalEntries(ctx, datagateway.GetJournalEntriesParams{
					FromSequence: start,
					ToSequence:   end,
				})
				if err != nil {
					fetchErrOnce.Do(func() {
						fetchErr = errors.Wrapf(err, "failed to get journal entries %d-%d", start, end)
					})
					return nil
				}
				rows := make([]journalRow, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, journalRow{
						Sequence:       int64(entry.Sequence),
						Kind:           string(entry.Kind),
						Caller:         entry.Caller.String(),
						Nonce:          int64(entry.Nonce),
						Payment:        int64(entry.Payment),
						Payload:        string(entry.RawPayload),
						ParsedPayload:  string(entry.ParsedPayload),
						Signature:      string(entry.Signature),
						Status:         string(entry.Status),
						Reason:         entry.Reason,
						Result:         string(entry.Result),
						EventsHash:     entry.EventsHash.String(),
						CumulativeHash: entry.CumulativeHash.String(),
						Timestamp:      entry.Timestamp.Unix(),
					})
				}
				return rows
			})
		}
	}()

	// Wait for stream to finish and close out channel
	go func() {
		defer close(out)
		_ = stream.Wait()
	}()

	rows := make([]journalRow, 0, to-from+1)
	for page := range out {
		rows = append(rows, page...)
	}
	if fetchErr != nil {
		return errors.WithStack(fetchErr)
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "context done")
	}

	buf := parquetutils.NewBuffer()
	if err := parquetutils.WriteAll(buf, rows); err != nil {
		return errors.Wrap(err, "failed to write parquet data")
	}

	if strings.HasPrefix(opts.Output, "s3://") {
		bucket, key, ok := strings.Cut(strings.TrimPrefix(opts.Output, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			return errors.Wrapf(errs.InvalidArgument, "invalid s3 destination %q", opts.Output)
		}
		sdkConfig, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return errors.Wrap(err, "can't load aws user config")
		}
		uploader := manager.NewUploader(s3.NewFromConfig(sdkConfig))
		if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(buf.Bytes()),
		}); err != nil {
			return errors.Wrapf(err, "failed to upload to s3 bucket %q", bucket)
		}
	} else {
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			return errors.Wrap(err, "failed to write output file")
		}
	}

	logger.InfoContext(ctx, "Exported journal",
		slogx.Uint64("from", from),
		slogx.Uint64("to", to),
		slogx.Int("entries", len(rows)),
		slogx.String("output", opts.Output),
	)
	fmt.Printf("Exported %d journal entries to %s\n", len(rows), opts.Output)
	return nil
}
