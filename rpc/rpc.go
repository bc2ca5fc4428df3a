// Package rpc is the request gateway to the node's economic clustering
// module. Every call is a single form-encoded POST carrying a JSON action
// envelope; the response is split into transport failures, node-reported
// failures and success payloads.
package rpc

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"ec-console/apperror"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Defaults used by the node module's web console.
const (
	DefaultURL        = "http://localhost:2187/getModuleResponse"
	DefaultModulePath = "ec.ixi-1.0.jar"
	DefaultPassword   = "change_me_now"
	DefaultTimeout    = 10 * time.Second
)

// Doer is the part of *fasthttp.Client the gateway uses.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Params are the action-specific fields of an envelope.
type Params map[string]any

// Options configures a Client.
type Options struct {
	URL        string
	ModulePath string
	Password   string
	Timeout    time.Duration
	TangleTTL  time.Duration
	Logger     *log.Logger
	Doer       Doer
}

// Client sends action envelopes to one node endpoint.
type Client struct {
	doer     Doer
	url      string
	path     string
	password string
	timeout  time.Duration
	logger   *log.Logger
	tangle   *cache.Cache
}

// New creates a Client, filling unset options with the node defaults.
func New(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.ModulePath == "" {
		opts.ModulePath = DefaultModulePath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TangleTTL <= 0 {
		opts.TangleTTL = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Doer == nil {
		opts.Doer = &fasthttp.Client{}
	}
	return &Client{
		doer:     opts.Doer,
		url:      opts.URL,
		path:     opts.ModulePath,
		password: opts.Password,
		timeout:  opts.Timeout,
		logger:   opts.Logger.WithPrefix("rpc"),
		tangle:   cache.New(opts.TangleTTL, 2*opts.TangleTTL),
	}
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Call performs one round trip. The returned error is always an
// *apperror.Error of kind Transport or Application.
func (c *Client) Call(ctx context.Context, action string, params Params) (Payload, error) {
	id := uuid.NewString()

	envelope := make(map[string]any, len(params)+1)
	for k, v := range params {
		envelope[k] = v
	}
	envelope["action"] = action

	encoded, err := json.Marshal(envelope)
	if err != nil {
		return Payload{}, apperror.Transport(action, fmt.Errorf("encode envelope: %w", err))
	}

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.SetBytesV("request", encoded)
	args.Set("path", c.path)
	args.Set("password", c.password)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.SetBody(args.QueryString())

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("request", "id", id, "action", action)
	start := time.Now()

	if deadline, ok := ctx.Deadline(); ok {
		err = c.doer.DoDeadline(req, resp, deadline)
	} else {
		err = c.doer.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Warn("request failed", "id", id, "action", action, "err", err)
		return Payload{}, apperror.Transport(action, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Warn("unexpected status", "id", id, "action", action, "status", resp.StatusCode())
		return Payload{}, apperror.Transport(action, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	payload, err := parseResponse(action, resp.Body())
	c.logger.Debug("response", "id", id, "action", action, "took", time.Since(start).Round(time.Millisecond), "ok", err == nil)
	return payload, err
}

// Do is Call in callback form. Exactly one of onSuccess and onError runs,
// once. A panic below the gateway is reported through onError.
func (c *Client) Do(ctx context.Context, action string, params Params, onSuccess func(Payload), onError func(error)) {
	payload, err := Guard(action, func() (Payload, error) {
		return c.Call(ctx, action, params)
	})
	if err != nil {
		onError(err)
		return
	}
	onSuccess(payload)
}

// Guard runs fn and turns a panic into a transport error for action.
func Guard[T any](action string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = apperror.Transport(action, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

// parseResponse unwraps the outer {"response": "<json>"} body the node's
// module bridge sends. A body that already is the inner envelope is
// accepted too.
func parseResponse(action string, body []byte) (Payload, error) {
	var outer map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return Payload{}, apperror.Transport(action, fmt.Errorf("decode response body: %w", err))
	}

	inner := body
	if raw, ok := outer["response"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Payload{}, apperror.Transport(action, fmt.Errorf("response field is not a string: %w", err))
		}
		inner = []byte(s)
	}

	var fields map[string]jsoniter.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return Payload{}, apperror.Transport(action, fmt.Errorf("decode envelope: %w", err))
	}

	var success bool
	raw, ok := fields["success"]
	if !ok {
		return Payload{}, apperror.Transport(action, fmt.Errorf("envelope has no success flag"))
	}
	if err := json.Unmarshal(raw, &success); err != nil {
		return Payload{}, apperror.Transport(action, fmt.Errorf("success flag is not a boolean: %w", err))
	}

	if !success {
		var msg string
		if raw, ok := fields["error"]; ok {
			_ = json.Unmarshal(raw, &msg)
		}
		return Payload{}, apperror.Application(action, strings.TrimSpace(msg))
	}
	return Payload{action: action, fields: fields}, nil
}

// Payload is a successful envelope. Fields are decoded on demand.
type Payload struct {
	action string
	fields map[string]jsoniter.RawMessage
}

// Has reports whether the envelope carries field.
func (p Payload) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

// Decode unmarshals field into v. A missing or malformed field is reported
// as a malformed payload.
func (p Payload) Decode(field string, v any) error {
	raw, ok := p.fields[field]
	if !ok {
		return apperror.MalformedPayload(p.action, fmt.Errorf("missing field %q", field))
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperror.MalformedPayload(p.action, fmt.Errorf("field %q: %w", field, err))
	}
	return nil
}
