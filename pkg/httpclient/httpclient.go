// Package httpclient is a thin fasthttp wrapper for the outbound calls the
// node makes (attestation reporting). Not a general-purpose client: it only
// speaks JSON and keeps the surface to what the reporting path needs.
package httpclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/pkg/logger"
	"github.com/valyala/fasthttp"
)

type Config struct {
	// Debug logs every request with timing and size attributes.
	Debug bool

	// Headers are applied to every request, before per-request headers.
	Headers map[string]string
}

type Client struct {
	baseURL *url.URL
	Config
}

func New(baseURL string, config ...Config) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "can't parse base url")
	}
	var cf Config
	if len(config) > 0 {
		cf = config[0]
	}
	return &Client{
		baseURL: parsed,
		Config:  cf,
	}, nil
}

type RequestOptions struct {
	// Body is sent as application/json when non-nil.
	Body   []byte
	Query  url.Values
	Header map[string]string
}

type Response struct {
	URL string
	fasthttp.Response
}

// UnmarshalBody decodes the (possibly compressed) response body as JSON.
func (r *Response) UnmarshalBody(out any) error {
	body, err := r.BodyUncompressed()
	if err != nil {
		return errors.Wrapf(err, "can't uncompress body from %s", r.URL)
	}
	contentType := strings.ToLower(string(r.Header.ContentType()))
	if !strings.HasPrefix(contentType, "application/json") {
		return errors.Errorf("unsupported content type %q from %s: %q", contentType, r.URL, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "can't unmarshal json body from %s, %q", r.URL, string(body))
	}
	return nil
}

func (c *Client) Get(ctx context.Context, requestPath string, opts RequestOptions) (*Response, error) {
	return c.do(ctx, fasthttp.MethodGet, requestPath, opts)
}

func (c *Client) Post(ctx context.Context, requestPath string, opts RequestOptions) (*Response, error) {
	return c.do(ctx, fasthttp.MethodPost, requestPath, opts)
}

func (c *Client) do(ctx context.Context, method, requestPath string, opts RequestOptions) (*Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseResponse(resp)
		fasthttp.ReleaseRequest(req)
	}()

	req.Header.SetMethod(method)
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Header {
		req.Header.Set(k, v)
	}

	target := c.BaseURL()
	target.Path = path.Join(target.Path, requestPath)
	target.RawQuery = opts.Query.Encode()
	requestURL := target.String()
	req.SetRequestURI(requestURL)
	if opts.Body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(opts.Body)
	}

	start := time.Now()
	if err := fasthttp.Do(req, resp); err != nil {
		return nil, errors.Wrapf(err, "url: %s", requestURL)
	}
	if c.Debug {
		logger.InfoContext(ctx, "Finished outbound request",
			slog.String("package", "httpclient"),
			slog.String("method", method),
			slog.String("url", requestURL),
			slog.Duration("latency", time.Since(start)),
			slog.Int("status_code", resp.StatusCode()),
			slog.Int("resp_content_length", len(resp.Body())),
		)
	}

	response := Response{URL: requestURL}
	resp.CopyTo(&response.Response)
	return &response, nil
}

// BaseURL returns a copy of the client's base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}
