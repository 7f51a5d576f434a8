// Package intakeapi is the HTTP transport to the intake API.
//
// Every call returns the server's canonical JSON. Non-2xx responses surface as
// *StatusError; network failures are returned wrapped. The client never
// retries.
package intakeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/MichaelAguilera/intake/internal/services/intake/feature"
	"github.com/MichaelAguilera/intake/internal/services/intake/record"
)

const (
	tracerName      = "github.com/MichaelAguilera/intake/internal/services/intake/intakeapi"
	maxResponseSize = 8 << 20
)

// Observer receives one call per completed request. status is 0 when the
// request failed before a response arrived.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("intake api %s %s returned %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsNotFound reports whether err is a 404 from the intake API.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithFeatures sets the flags that choose between endpoint versions.
func WithFeatures(features feature.Set) Option {
	return func(c *Client) {
		c.features = features
	}
}

// WithObserver reports request outcomes to observer.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// Client talks to the intake API.
type Client struct {
	base     *url.URL
	http     *http.Client
	features feature.Set
	observer Observer
	tracer   trace.Tracer
}

// New creates a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("intake api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse intake api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("intake api base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:   base,
		http:   http.DefaultClient,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// request describes one call. route is the path template used for spans and
// metrics; path is the concrete path.
type request struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "intakeapi "+req.method+" "+req.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.template", req.route),
		),
	)
	defer span.End()

	started := time.Now()
	status := 0
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(req.method, req.route, status, time.Since(started))
		}
	}()

	target := *c.base
	target.RawPath = c.base.EscapedPath() + req.path
	unescaped, err := url.PathUnescape(target.RawPath)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.method, req.route, err)
	}
	target.Path = unescaped
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "encode request")
			return nil, fmt.Errorf("encode %s %s: %w", req.method, req.route, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", req.method, req.route, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read response")
		return nil, fmt.Errorf("read %s %s: %w", req.method, req.path, err)
	}
	if status < 200 || status > 299 {
		statusErr := &StatusError{
			Method:     req.method,
			Path:       req.path,
			StatusCode: status,
			Body:       strings.TrimSpace(string(payload)),
		}
		span.SetStatus(codes.Error, statusErr.Error())
		return nil, statusErr
	}
	return payload, nil
}

func (c *Client) tree(ctx context.Context, req request) (record.Tree, error) {
	payload, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	tree, err := record.DecodeTree(payload)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	return tree, nil
}

func (c *Client) list(ctx context.Context, req request) ([]record.Tree, error) {
	payload, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	list, err := record.DecodeList(payload)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	return list, nil
}

func idPath(format string, id record.ID) string {
	return fmt.Sprintf(format, url.PathEscape(string(id)))
}
