package queueapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	WaitUnitMinutes      = "minutes"
	WaitUnitMilliseconds = "milliseconds"

	maxResponseBytes = 4 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	OutletID string
	// APIToken is sent as a bearer token when the request context carries none.
	APIToken string
	// WaitUnit is the unit of every wait-time number the backend sends.
	WaitUnit   string
	HTTPClient *http.Client
}

// Client is a thin typed wrapper around the queue backend HTTP API.
type Client struct {
	baseURL  string
	outletID string
	apiToken string
	waitUnit time.Duration
	http     *http.Client
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		outletID: opts.OutletID,
		apiToken: opts.APIToken,
		waitUnit: waitUnit(opts.WaitUnit),
		http:     hc,
	}
}

// OutletID is the outlet configured for this front-end.
func (c *Client) OutletID() string {
	return c.outletID
}

func waitUnit(unit string) time.Duration {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case WaitUnitMilliseconds, "ms":
		return time.Millisecond
	default:
		return time.Minute
	}
}

// duration converts a raw wait-time number from the backend. Views only ever
// see time.Duration values.
func (c *Client) duration(raw float64) time.Duration {
	if raw <= 0 {
		return 0
	}
	return time.Duration(raw * float64(c.waitUnit))
}

type bearerKey struct{}

// WithBearerToken attaches a per-request bearer token, typically the
// signed-in officer's backend token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func (c *Client) bearer(ctx context.Context) string {
	if tok, ok := ctx.Value(bearerKey{}).(string); ok && strings.TrimSpace(tok) != "" {
		return tok
	}
	return c.apiToken
}

// Envelope is the backend response wrapper. Success=false with a nil error is
// a business rejection and Message says why.
type Envelope[T any] struct {
	Success       bool
	Data          T
	HasData       bool
	Message       string
	ExistingToken string
}

// OK reports a successful response that carried data.
func (e Envelope[T]) OK() bool {
	return e.Success && e.HasData
}

// Rejection is the message to show for a response that is not OK.
func (e Envelope[T]) Rejection() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if e.Success && !e.HasData {
		return "No data returned"
	}
	return "Request was rejected"
}

// IsDuplicate reports the "already registered today" rejection.
func (e Envelope[T]) IsDuplicate() bool {
	return !e.Success && strings.Contains(strings.ToLower(e.Message), "already registered today")
}

type rawEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (r rawEnvelope) message() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

func (r rawEnvelope) hasData() bool {
	trimmed := bytes.TrimSpace(r.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (rawEnvelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return rawEnvelope{}, fmt.Errorf("queueapi %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return rawEnvelope{}, fmt.Errorf("queueapi %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.bearer(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return rawEnvelope{}, classify(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return rawEnvelope{}, classify(op, err)
	}

	var env rawEnvelope
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode >= http.StatusBadRequest {
		// Error statuses that still carry an envelope are business rejections.
		if decodeErr == nil && env.Success != nil && !*env.Success {
			return env, nil
		}
		return rawEnvelope{}, &Error{Kind: KindHTTPStatus, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", http.StatusText(resp.StatusCode))}
	}
	// Some endpoints answer with a bare payload rather than an envelope.
	bareList := bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
	if decodeErr != nil && !bareList {
		return rawEnvelope{}, &Error{Kind: KindDecode, Op: op, StatusCode: resp.StatusCode, Err: decodeErr}
	}
	if bareList || env.Success == nil {
		ok := true
		env = rawEnvelope{Success: &ok, Data: data}
	}
	return env, nil
}

// call performs a request and converts the decoded wire payload W into T.
func call[W any, T any](ctx context.Context, c *Client, op, method, path string, body any, convert func(W) T) (Envelope[T], error) {
	raw, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return Envelope[T]{}, err
	}
	out := Envelope[T]{Success: *raw.Success, Message: raw.message()}
	if !raw.hasData() {
		return out, nil
	}

	var wire W
	if err := json.Unmarshal(raw.Data, &wire); err != nil {
		if !out.Success {
			// A rejection's data block is informational only.
			return out, nil
		}
		return Envelope[T]{}, &Error{Kind: KindDecode, Op: op, Err: err}
	}
	if out.Success {
		out.Data = convert(wire)
		out.HasData = true
	}
	if carrier, ok := any(wire).(existingTokenCarrier); ok {
		out.ExistingToken = carrier.existingToken()
	}
	return out, nil
}

type existingTokenCarrier interface {
	existingToken() string
}
