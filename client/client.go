// Package client talks to the dotbuy domain registration API: availability
// checks, name suggestions, and idempotent, stablecoin-paid purchases.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benithors/dotbuy/internal/metrics"
	"github.com/benithors/dotbuy/wallet"
	"github.com/benithors/dotbuy/x402"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.dotbuy.dev/v1"
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "dotbuy-go"
	tracerName       = "github.com/benithors/dotbuy/client"
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// Signer is required for BuyDomain. If it also implements
	// wallet.MessageSigner, orders carry a wallet ownership proof.
	Signer wallet.Signer

	// HTTPClient sends unpaid requests. PaymentClient sends order creation
	// and must handle 402 challenges; by default it is an x402 transport
	// around Signer, capped at MaxPayment atomic units when set.
	HTTPClient    Doer
	PaymentClient Doer
	MaxPayment    *big.Int

	// PaymentNetwork limits the default transport to one network, e.g. "base".
	PaymentNetwork string

	// RateLimit paces every request; zero disables pacing.
	RateLimit rate.Limit
	RateBurst int

	Logger     *zerolog.Logger
	Registerer prometheus.Registerer

	// TracerProvider receives BuyDomain spans; nil uses the global provider.
	TracerProvider trace.TracerProvider
}

type Client struct {
	opts          Options
	baseURL       string
	http          Doer
	paid          Doer
	signer        wallet.Signer
	walletAddress string
	limiter       *rate.Limiter
	log           zerolog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	now           func() time.Time
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("dotbuy: invalid base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	c := &Client{
		opts:    opts,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		paid:    opts.PaymentClient,
		signer:  opts.Signer,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	if opts.Logger != nil {
		c.log = opts.Logger.With().Str("component", "dotbuy").Logger()
	}
	if opts.Registerer != nil {
		m, err := metrics.New(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("dotbuy: %w", err)
		}
		c.metrics = m
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(tracerName)

	c.limiter = rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}

	if c.http == nil {
		c.http = &http.Client{Timeout: opts.Timeout}
	}

	if opts.Signer != nil {
		addr, err := wallet.NormalizeAddress(opts.Signer.Address())
		if err != nil {
			return nil, fmt.Errorf("dotbuy: %w", err)
		}
		c.walletAddress = addr

		if c.paid == nil {
			tr, err := x402.NewTransport(x402.Options{
				Signer:    opts.Signer,
				Network:   opts.PaymentNetwork,
				MaxAmount: opts.MaxPayment,
			})
			if err != nil {
				return nil, fmt.Errorf("dotbuy: %w", err)
			}
			c.paid = &http.Client{Timeout: opts.Timeout, Transport: tr}
		}
	}

	return c, nil
}

// WalletAddress is the lower-cased signer address used in purchase bodies.
func (c *Client) WalletAddress() string { return c.walletAddress }

type request struct {
	endpoint string
	method   string
	path     string
	body     any
	header   http.Header
	paid     bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, r, out)

	code := "ok"
	if ce, ok := AsError(err); ok {
		code = ce.Code
	}
	c.metrics.ObserveRequest(r.endpoint, code, time.Since(start))
	c.log.Debug().
		Str("endpoint", r.endpoint).
		Str("outcome", code).
		Dur("duration", time.Since(start)).
		Msg("api call")
	return err
}

func (c *Client) roundTrip(ctx context.Context, r request, out any) error {
	hc, classify := c.http, networkError
	if r.paid {
		hc, classify = c.paid, paymentError
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return networkError(err)
	}

	var reader io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return &Error{Code: CodeInvalidRequest, Message: "encode request body: " + err.Error(), Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, reader)
	if err != nil {
		return &Error{Code: CodeInvalidRequest, Message: err.Error(), Err: err}
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", c.opts.UserAgent)
	req.Header.Set("x-request-id", uuid.NewString())
	if reader != nil {
		req.Header.Set("content-type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if derr := decodeResponse(resp, out); derr != nil {
		return derr
	}
	return nil
}
