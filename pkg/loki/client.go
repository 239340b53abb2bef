package loki

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// QueryRangePath is the range query endpoint, relative to the base URL.
	QueryRangePath = "/loki/api/v1/query_range"

	// ReadyPath is the backend readiness endpoint.
	ReadyPath = "/ready"

	// DefaultTimeout is the per-call timeout used when none is configured.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent when ClientConfig.UserAgent is empty.
	DefaultUserAgent = "flowlog"

	// OutcomeSuccess is the Observer outcome for a successful call.
	OutcomeSuccess = "success"

	tracerName = "mercator-hq/flowlog/pkg/loki"
)

// ClientConfig contains the immutable settings of a Client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. "http://loki:3100". Required.
	BaseURL string

	// Credentials selects basic, bearer or no authentication
	Credentials Credentials

	// Timeout bounds each call. Default: 10s
	Timeout time.Duration

	// UserAgent is sent with every request. Default: "flowlog"
	UserAgent string
}

// Observer receives one callback per completed range query. The metrics
// collector implements it.
type Observer interface {
	ObserveQuery(direction Direction, outcome string, duration time.Duration, records int)
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The per-call timeout is
// still enforced through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for query spans. Default: the global
// OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithObserver registers a query observer.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithClock overrides the clock used to anchor time ranges.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client is a stateless Loki range-query client. It holds only immutable
// configuration and is safe for concurrent use.
type Client struct {
	baseURL     string
	credentials Credentials
	timeout     time.Duration
	userAgent   string

	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	observer   Observer
	now        func() time.Time
}

// NewClient creates a client. It never touches the network.
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, &ConfigError{
			Field:   "base_url",
			Message: "base URL is required",
		}
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, &ConfigError{
			Field:   "base_url",
			Message: err.Error(),
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ConfigError{
			Field:   "base_url",
			Message: "scheme must be http or https",
		}
	}
	if u.Host == "" {
		return nil, &ConfigError{
			Field:   "base_url",
			Message: "host is required",
		}
	}

	if cfg.Timeout < 0 {
		return nil, &ConfigError{
			Field:   "timeout",
			Message: "timeout must be positive",
		}
	}

	c := &Client{
		baseURL:     base,
		credentials: cfg.Credentials,
		timeout:     cfg.Timeout,
		userAgent:   cfg.UserAgent,
		now:         time.Now,
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		// One-shot requests: no idle connections are kept between calls.
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				DisableKeepAlives: true,
			},
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}

	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// QueryRange executes one range query and returns the flattened records in
// backend order.
func (c *Client) QueryRange(ctx context.Context, req QueryRangeRequest) ([]FlatRecord, error) {
	began := time.Now()

	ctx, span := c.tracer.Start(ctx, "loki.query_range", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("loki.query", req.Query),
		attribute.Float64("loki.hours_ago", req.HoursAgo),
		attribute.Int("loki.limit", req.Limit),
	)

	records, err := c.queryRange(ctx, req, span)

	outcome := OutcomeSuccess
	if err != nil {
		outcome = ErrorType(err)
		span.SetAttributes(attribute.String("loki.error_type", outcome))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "range query failed",
			"endpoint", c.baseURL+QueryRangePath,
			"error_type", outcome,
			"error", err,
		)
	} else {
		span.SetAttributes(attribute.Int("loki.records", len(records)))
		span.SetStatus(codes.Ok, "")
	}

	if c.observer != nil {
		direction, perr := ParseDirection(string(req.Direction))
		if perr != nil {
			direction = "invalid"
		}
		c.observer.ObserveQuery(direction, outcome, time.Since(began), len(records))
	}

	return records, err
}

func (c *Client) queryRange(ctx context.Context, req QueryRangeRequest, span trace.Span) ([]FlatRecord, error) {
	httpReq, tr, err := c.newRangeRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("loki.range.start_ns", tr.Start),
		attribute.Int64("loki.range.end_ns", tr.End),
		attribute.String("loki.direction", httpReq.URL.Query().Get("direction")),
	)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.DebugContext(ctx, "sending range query",
		"endpoint", c.baseURL+QueryRangePath,
		"query", req.Query,
		"start", tr.Start,
		"end", tr.End,
		"direction", httpReq.URL.Query().Get("direction"),
		"limit", req.Limit,
		"auth_mode", c.credentials.Mode(),
	)

	body, status, err := c.do(httpReq.WithContext(callCtx), QueryRangePath)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	streams, droppedPairs, err := decodeStreams(body)
	if err != nil {
		return nil, err
	}
	records, droppedTimestamps := flatten(streams)

	c.logger.DebugContext(ctx, "range query completed",
		"streams", len(streams),
		"records", len(records),
		"dropped_entries", droppedPairs+droppedTimestamps,
	)

	return records, nil
}

// newRangeRequest validates req and builds the GET request. All argument and
// credential errors surface here, before any network I/O.
func (c *Client) newRangeRequest(ctx context.Context, req QueryRangeRequest) (*http.Request, TimeRange, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, TimeRange{}, &InvalidArgumentError{Field: "query", Message: "must not be empty"}
	}

	step := req.StepSeconds
	if step == 0 {
		step = DefaultStepSeconds
	}
	if step < 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, TimeRange{}, &InvalidArgumentError{Field: "step", Message: "must be a positive number of seconds"}
	}

	if req.Limit < 0 {
		return nil, TimeRange{}, &InvalidArgumentError{Field: "limit", Message: "must be non-negative"}
	}

	direction, err := ParseDirection(string(req.Direction))
	if err != nil {
		return nil, TimeRange{}, err
	}

	tr, err := CalculateRangeAt(c.now().UTC(), req.HoursAgo)
	if err != nil {
		return nil, TimeRange{}, err
	}

	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("start", strconv.FormatInt(tr.Start, 10))
	params.Set("end", strconv.FormatInt(tr.End, 10))
	params.Set("step", FormatStep(step))
	params.Set("direction", direction.String())
	if req.Limit > 0 {
		params.Set("limit", strconv.Itoa(req.Limit))
	}

	httpReq, err := c.newRequest(ctx, QueryRangePath+"?"+params.Encode())
	if err != nil {
		return nil, TimeRange{}, err
	}

	return httpReq, tr, nil
}

// Ready reports whether the backend answers its readiness probe.
func (c *Client) Ready(ctx context.Context) error {
	httpReq, err := c.newRequest(ctx, ReadyPath)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, _, err = c.do(httpReq.WithContext(callCtx), ReadyPath)
	return err
}

// newRequest builds an authenticated GET request for pathAndQuery.
func (c *Client) newRequest(ctx context.Context, pathAndQuery string) (*http.Request, error) {
	headers, err := c.credentials.Headers()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, &ConfigError{Field: "base_url", Message: err.Error()}
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	return httpReq, nil
}

// do performs the request and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, path string) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, c.transportError(path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, c.transportError(path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &QueryError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	return body, resp.StatusCode, nil
}

func (c *Client) transportError(path string, err error) error {
	unreachable := &UnreachableError{
		Endpoint: c.baseURL + path,
		Cause:    err,
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		unreachable.Timeout = true
		unreachable.After = c.timeout
	}

	return unreachable
}

// FormatStep renders a step in seconds using the shortest representation,
// e.g. 60 -> "60s", 0.5 -> "0.5s".
func FormatStep(seconds float64) string {
	return strconv.FormatFloat(seconds, 'g', -1, 64) + "s"
}
