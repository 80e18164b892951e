// Package overpass implements a client for the Overpass API. It translates
// a bounding-box or polygon query into Overpass QL, issues a single HTTP
// request, and parses the returned OSM JSON or XML payload into a frame of
// geometry-bearing features.
package overpass

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/osmquery/pkg/geo"
	"github.com/NERVsystems/osmquery/pkg/tracing"
)

const (
	// DefaultEndpoint is the public Overpass interpreter endpoint.
	DefaultEndpoint = "https://overpass-api.de/api/interpreter"

	// DefaultUserAgent is the default User-Agent string.
	DefaultUserAgent = "osmquery/0.1.0"
)

// Client issues queries against an Overpass endpoint. All configuration is
// fixed at construction; a Client is safe for concurrent use but performs
// no internal concurrency, one outbound request per call.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the Overpass interpreter endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient replaces the underlying HTTP client. Transport timeouts
// are the caller's responsibility when this option is used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit sets the request rate limit. The public Overpass instances
// expect clients to stay around one request per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithUserAgent sets the User-Agent string sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client with connection pooling and the default
// Overpass etiquette rate limit of 1 request per second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 180 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes a single query: which elements to fetch, where, and
// with which tag constraints.
type Request struct {
	// Type is the OSM primitive kind to match: node, way or relation.
	Type ElementType

	// Filter restricts the query spatially. Optional; without it the
	// query runs unbounded, which you rarely want against a public
	// endpoint.
	Filter geo.SpatialFilter

	// Recurse additionally fetches referenced or referencing elements.
	// RecurseDown is what resolves way geometries.
	Recurse Recurse

	// Tags are AND-combined tag filters. Empty means no tag filtering.
	Tags []TagFilter

	// Meta requests version/changeset/timestamp/user metadata.
	Meta bool

	// Format selects the response encoding. Defaults to JSON.
	Format OutputFormat

	// Timeout is the server-side [timeout:] value in seconds. Defaults to
	// DefaultQueryTimeout.
	Timeout int

	// KeepUntagged keeps nodes without any interesting tag as rows.
	KeepUntagged bool
}

// BuildQuery renders the Overpass QL text for a request without executing
// it. All argument validation happens here, before any network I/O.
func BuildQuery(req Request) (string, error) {
	format := req.Format
	if format == "" {
		format = FormatJSON
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}

	return NewBuilder().
		WithOutputFormat(format).
		WithTimeout(timeout).
		WithElement(req.Type).
		WithFilter(req.Filter).
		WithTags(req.Tags...).
		WithRecurse(req.Recurse).
		WithMeta(req.Meta).
		Build()
}

// QueryOSM executes the request and returns the result frame. A failed
// call returns a nil frame and an *Error; there are no partial results and
// no retries.
func (c *Client) QueryOSM(ctx context.Context, req Request) (*Frame, error) {
	query, err := BuildQuery(req)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "overpass.query",
		trace.WithAttributes(
			attribute.String(tracing.AttrQueryElementType, string(req.Type)),
			attribute.String(tracing.AttrQueryRecurse, string(req.Recurse)),
			attribute.Int(tracing.AttrQueryTagCount, len(req.Tags)),
			attribute.String(tracing.AttrServiceURL, c.endpoint),
		),
	)
	defer span.End()

	body, err := c.fetch(ctx, query)
	if err != nil {
		tracing.RecordError(ctx, err)
		tracing.SetStatus(ctx, codes.Error, "overpass request failed")
		return nil, err
	}

	elements, remark, err := decodeElements(body)
	if err != nil {
		parseFailures.Inc()
		tracing.RecordError(ctx, err)
		tracing.SetStatus(ctx, codes.Error, "overpass response unparseable")
		return nil, withQuery(err, query)
	}

	if remark != "" {
		c.logger.Warn("overpass returned remark", "remark", remark)
		tracing.SetAttributes(ctx, attribute.String(tracing.AttrResponseRemark, remark))
	}

	elementsReturned.Observe(float64(len(elements)))
	tracing.SetAttributes(ctx, attribute.Int(tracing.AttrElementCount, len(elements)))
	c.logger.Debug("decoded overpass response",
		"element_count", len(elements),
		"element_type", string(req.Type),
	)

	return assembleFrame(elements, req.KeepUntagged, c.logger), nil
}

// RawQuery executes the request and returns the undecoded response body.
func (c *Client) RawQuery(ctx context.Context, req Request) ([]byte, error) {
	query, err := BuildQuery(req)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, query)
}

// Ping checks that the Overpass endpoint is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	u := c.endpoint + "?" + url.Values{"data": {"[out:json];out meta;"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return NewError(ErrInvalidArgument, "invalid endpoint %q", c.endpoint).WithCause(err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewError(ErrConnection, "overpass health check failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return NewError(ErrRequestFailed, "overpass health check returned status %d", resp.StatusCode).
			WithStatus(resp.StatusCode, nil)
	}
	return nil
}

// fetch performs the single outbound HTTP call for a query.
func (c *Client) fetch(ctx context.Context, query string) ([]byte, error) {
	if err := c.waitForRateLimit(ctx); err != nil {
		return nil, NewError(ErrConnection, "rate limit wait aborted").WithCause(err).WithQuery(query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader("data="+url.QueryEscape(query)))
	if err != nil {
		return nil, NewError(ErrInvalidArgument, "invalid endpoint %q", c.endpoint).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("sending overpass request", "endpoint", c.endpoint, "query", query)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	requestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(statusNetworkError).Inc()
		return nil, NewError(ErrConnection, "overpass request failed").WithCause(err).WithQuery(query)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(statusNetworkError).Inc()
		return nil, NewError(ErrConnection, "reading overpass response failed").WithCause(err).WithQuery(query)
	}

	tracing.SetAttributes(ctx, attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		requestsTotal.WithLabelValues(statusHTTPError).Inc()
		c.logger.Error("overpass request failed",
			"status", resp.StatusCode,
			"endpoint", c.endpoint,
		)
		return nil, NewError(ErrRequestFailed, "overpass returned status %d", resp.StatusCode).
			WithStatus(resp.StatusCode, body).
			WithQuery(query)
	}

	requestsTotal.WithLabelValues(statusOK).Inc()
	return body, nil
}

// waitForRateLimit blocks until the limiter admits a request or the
// context is cancelled.
func (c *Client) waitForRateLimit(ctx context.Context) error {
	if c.limiter.Allow() {
		return nil
	}

	start := time.Now()
	tracing.AddEvent(ctx, "rate_limit_wait")
	err := c.limiter.Wait(ctx)
	wait := time.Since(start)

	rateLimitWaitTime.Observe(wait.Seconds())
	tracing.SetAttributes(ctx, attribute.Int64(tracing.AttrRateLimitWaitMs, wait.Milliseconds()))
	return err
}

// withQuery attaches the query text to an *Error without disturbing other
// error types.
func withQuery(err error, query string) error {
	var e *Error
	if errors.As(err, &e) {
		e.WithQuery(query)
	}
	return err
}

// defaultClient serves the package-level convenience functions.
var defaultClient = NewClient()

// QueryOSM executes the request against the default public endpoint using
// the package's default client.
func QueryOSM(ctx context.Context, req Request) (*Frame, error) {
	return defaultClient.QueryOSM(ctx, req)
}

// RawQuery executes the request using the package's default client and
// returns the undecoded response body.
func RawQuery(ctx context.Context, req Request) ([]byte, error) {
	return defaultClient.RawQuery(ctx, req)
}
