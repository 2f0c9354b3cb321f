// Package x402 implements the client side of the x402 pay-per-request flow as
// an http.RoundTripper: a 402 challenge is answered with a signed EIP-3009
// authorization and the request is retried once.
package x402

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/benithors/dotbuy/wallet"
)

const maxChallengeBytes = 1 << 20

type Options struct {
	Signer wallet.Signer

	// Network restricts payment to requirements on this network (e.g. "base").
	// Empty accepts the first exact-scheme requirement with a known chain.
	Network string

	// MaxAmount caps a single payment in the asset's atomic units. Nil means no cap.
	MaxAmount *big.Int

	Base  http.RoundTripper
	Now   func() time.Time
	Nonce func() []byte
}

type Transport struct {
	opts Options
}

func NewTransport(opts Options) (*Transport, error) {
	if opts.Signer == nil {
		return nil, fmt.Errorf("x402: signer is required")
	}
	if opts.Base == nil {
		opts.Base = http.DefaultTransport
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Nonce == nil {
		opts.Nonce = randomNonce
	}
	opts.Network = strings.ToLower(strings.TrimSpace(opts.Network))
	return &Transport{opts: opts}, nil
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := drainBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := t.opts.Base.RoundTrip(withBody(req, body))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxChallengeBytes))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("x402: read payment challenge: %w", err)
	}

	var challenge PaymentRequired
	if err := json.Unmarshal(raw, &challenge); err != nil || len(challenge.Accepts) == 0 {
		// Not an x402 challenge; let the caller see the original 402.
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		return resp, nil
	}

	reqs, err := t.selectRequirements(challenge.Accepts)
	if err != nil {
		return nil, err
	}
	header, err := t.authorize(req.Context(), challenge.X402Version, reqs)
	if err != nil {
		return nil, err
	}

	retry := withBody(req, body)
	retry.Header.Set(HeaderPayment, header)
	return t.opts.Base.RoundTrip(retry)
}

func (t *Transport) selectRequirements(accepts []PaymentRequirements) (PaymentRequirements, error) {
	for _, r := range accepts {
		if !strings.EqualFold(r.Scheme, SchemeExact) {
			continue
		}
		network := strings.ToLower(strings.TrimSpace(r.Network))
		if t.opts.Network != "" && network != t.opts.Network {
			continue
		}
		if _, ok := wallet.ChainID(network); !ok {
			continue
		}
		return r, nil
	}
	if t.opts.Network != "" {
		return PaymentRequirements{}, fmt.Errorf("x402: no payment option for network %q", t.opts.Network)
	}
	return PaymentRequirements{}, fmt.Errorf("x402: no supported payment option offered")
}

func (t *Transport) authorize(ctx context.Context, version int, r PaymentRequirements) (string, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(r.MaxAmountRequired), 10)
	if !ok || amount.Sign() < 0 {
		return "", fmt.Errorf("x402: invalid payment amount %q", r.MaxAmountRequired)
	}
	if t.opts.MaxAmount != nil && amount.Cmp(t.opts.MaxAmount) > 0 {
		return "", fmt.Errorf("x402: payment of %s exceeds allowed maximum %s", amount, t.opts.MaxAmount)
	}

	chainID, _ := wallet.ChainID(r.Network)
	now := t.opts.Now()
	timeout := time.Duration(r.MaxTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	auth := Authorization{
		From:        t.opts.Signer.Address(),
		To:          r.PayTo,
		Value:       amount.String(),
		ValidAfter:  strconv.FormatInt(now.Add(-time.Minute).Unix(), 10),
		ValidBefore: strconv.FormatInt(now.Add(timeout).Unix(), 10),
		Nonce:       "0x" + hex.EncodeToString(t.opts.Nonce()),
	}

	sig, err := t.opts.Signer.SignTypedData(ctx, transferWithAuthorization(chainID, r, auth))
	if err != nil {
		return "", fmt.Errorf("x402: payment signature failed: %w", err)
	}

	if version == 0 {
		version = 1
	}
	payload := PaymentPayload{
		X402Version: version,
		Scheme:      SchemeExact,
		Network:     r.Network,
		Payload:     ExactEVMPayload{Signature: sig, Authorization: auth},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("x402: encode payment payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func transferWithAuthorization(chainID int64, r PaymentRequirements, a Authorization) wallet.TypedData {
	name, version := "USD Coin", "2"
	if v, ok := r.Extra["name"].(string); ok && v != "" {
		name = v
	}
	if v, ok := r.Extra["version"].(string); ok && v != "" {
		version = v
	}

	return wallet.TypedData{
		Types: map[string][]wallet.TypedField{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"TransferWithAuthorization": {
				{Name: "from", Type: "address"},
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "validAfter", Type: "uint256"},
				{Name: "validBefore", Type: "uint256"},
				{Name: "nonce", Type: "bytes32"},
			},
		},
		PrimaryType: "TransferWithAuthorization",
		Domain: wallet.TypedDomain{
			Name:              name,
			Version:           version,
			ChainID:           chainID,
			VerifyingContract: r.Asset,
		},
		Message: map[string]any{
			"from":        a.From,
			"to":          a.To,
			"value":       a.Value,
			"validAfter":  a.ValidAfter,
			"validBefore": a.ValidBefore,
			"nonce":       a.Nonce,
		},
	}
}

func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	b, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return b, nil
}

// withBody clones req so the original is never mutated (RoundTripper contract).
func withBody(req *http.Request, body []byte) *http.Request {
	out := req.Clone(req.Context())
	if body == nil {
		out.Body = http.NoBody
		out.ContentLength = 0
		return out
	}
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return out
}

func randomNonce() []byte {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return b
}
