package reportingclient

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/pkg/httpclient"
	"github.com/gatepass-network/boxoffice/pkg/logger"
)

type Config struct {
	Disabled   bool   `mapstructure:"disabled"`
	BaseURL    string `mapstructure:"base_url"`
	Name       string `mapstructure:"name"`
	WebsiteURL string `mapstructure:"website_url"`
	NodeAPIURL string `mapstructure:"node_api_url"`
}

type ReportingClient struct {
	httpClient *httpclient.Client
	config     Config
}

const defaultBaseURL = "https://attest.api.gatepass.network"

func New(config Config) (*ReportingClient, error) {
	baseURL := utils.Default(config.BaseURL, defaultBaseURL)
	httpClient, err := httpclient.New(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "can't create http client")
	}
	if config.Name == "" {
		return nil, errors.New("reporting.name config is required if reporting is enabled")
	}
	return &ReportingClient{
		httpClient: httpClient,
		config:     config,
	}, nil
}

type SubmitAttestationPayload struct {
	Type             string         `json:"type"`
	ClientVersion    string         `json:"clientVersion"`
	DBVersion        int            `json:"dbVersion"`
	EventHashVersion int            `json:"eventHashVersion"`
	Network          common.Network `json:"network"`
	Sequence         uint64         `json:"sequence"`
	EventsHash       common.Hash    `json:"eventsHash"`
	CumulativeHash   common.Hash    `json:"cumulativeHash"`
}

// SubmitAttestation reports the latest journaled sequence and its cumulative
// hash to the network aggregator. Two nodes agree on their entire operation
// history iff they report the same cumulative hash for the same sequence.
func (r *ReportingClient) SubmitAttestation(ctx context.Context, payload SubmitAttestationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "can't marshal payload")
	}
	resp, err := r.httpClient.Post(ctx, "/v1/report/attestation", httpclient.RequestOptions{
		Body: body,
	})
	if err != nil {
		return errors.Wrap(err, "can't send request")
	}
	if resp.StatusCode() >= 400 {
		logger.WarnContext(ctx, "failed to submit attestation", slog.Any("payload", payload), slog.Any("responseBody", resp.Body()))
	}
	logger.DebugContext(ctx, "attestation submitted", slog.Any("payload", payload))
	return nil
}

type SubmitNodeReportPayload struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Network    common.Network `json:"network"`
	WebsiteURL string         `json:"websiteURL,omitempty"`
	NodeAPIURL string         `json:"nodeAPIURL,omitempty"`
}

func (r *ReportingClient) SubmitNodeReport(ctx context.Context, module string, network common.Network) error {
	payload := SubmitNodeReportPayload{
		Name:       r.config.Name,
		Type:       module,
		Network:    network,
		WebsiteURL: r.config.WebsiteURL,
		NodeAPIURL: r.config.NodeAPIURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "can't marshal payload")
	}
	resp, err := r.httpClient.Post(ctx, "/v1/report/node", httpclient.RequestOptions{
		Body: body,
	})
	if err != nil {
		return errors.Wrap(err, "can't send request")
	}
	if resp.StatusCode() >= 400 {
		logger.WarnContext(ctx, "failed to submit node report", slog.Any("payload", payload), slog.Any("responseBody", resp.Body()))
	}
	logger.InfoContext(ctx, "node report submitted", slog.Any("payload", payload))
	return nil
}
