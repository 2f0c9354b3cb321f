package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/benithors/dotbuy/wallet"
	"github.com/stretchr/testify/require"
)

const testAddress = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"

// typedSigner has no message-signing capability.
type typedSigner struct{}

func (typedSigner) Address() string { return testAddress }
func (typedSigner) SignTypedData(context.Context, wallet.TypedData) (string, error) {
	return "0xtyped", nil
}

type messageSigner struct {
	typedSigner
	sig   string
	err   error
	panic bool

	mu    sync.Mutex
	calls int
	last  string
}

func (s *messageSigner) SignMessage(_ context.Context, msg string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.last = msg
	s.mu.Unlock()
	if s.panic {
		panic("wallet extension crashed")
	}
	return s.sig, s.err
}

// paidDoer stands in for the payment-bearing transport.
type paidDoer struct {
	fn func(req *http.Request) (*http.Response, error)

	mu      sync.Mutex
	calls   int
	headers http.Header
	body    []byte
}

func (d *paidDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.calls++
	d.headers = req.Header.Clone()
	if req.Body != nil {
		d.body, _ = io.ReadAll(req.Body)
	}
	d.mu.Unlock()
	return d.fn(req)
}

func (d *paidDoer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func okOrder(id string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"id": id, "domain": "example.com", "status": "paid"},
		}), nil
	}
}

func failWith(err error) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) { return nil, err }
}

func jsonResponse(status int, v any) *http.Response {
	b, _ := json.Marshal(v)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// api is a fake remote service. Handlers left nil fail the test when hit.
type api struct {
	t        *testing.T
	validate http.HandlerFunc
	probe    http.HandlerFunc

	mu       sync.Mutex
	hits     map[string]int
	lastBody map[string][]byte
}

func newAPI(t *testing.T) *api {
	return &api{t: t, hits: map[string]int{}, lastBody: map[string][]byte{}}
}

func (a *api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	key := r.Method + " " + r.URL.Path

	a.mu.Lock()
	a.hits[key]++
	a.lastBody[key] = body
	a.mu.Unlock()

	var h http.HandlerFunc
	switch key {
	case "POST /orders/validate":
		h = a.validate
	case "POST /orders":
		h = a.probe
	}
	if h == nil {
		a.t.Errorf("unexpected request %s", key)
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	h(w, r)
}

func (a *api) Hits(key string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[key]
}

func (a *api) Body(key string) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastBody[key]
}

func newTestClient(t *testing.T, srv *httptest.Server, signer wallet.Signer, paid Doer) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:       srv.URL,
		Signer:        signer,
		HTTPClient:    srv.Client(),
		PaymentClient: paid,
	})
	require.NoError(t, err)
	return c
}

func requireClassified(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var ce *Error
	require.True(t, errors.As(err, &ce), "want *Error, got %T: %v", err, err)
	return ce
}

func invalidResult(issues ...map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"valid": false, "errors": issues, "warnings": []string{}},
		})
	}
}

func validResult(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"valid": true, "errors": []any{}, "warnings": []string{"premium renewal"}},
	})
}
