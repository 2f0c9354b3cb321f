package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// MaxBulkDomains is the largest batch the bulk check endpoint accepts.
const MaxBulkDomains = 50

func (c *Client) CheckDomain(ctx context.Context, name string) (*Availability, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, missingField("domain", "domain is required")
	}

	var out Availability
	err := c.do(ctx, request{
		endpoint: "check",
		method:   http.MethodGet,
		path:     "/domains/check/" + url.PathEscape(name),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckDomains checks up to MaxBulkDomains names in one request. Results
// come back in the order the service returns them.
func (c *Client) CheckDomains(ctx context.Context, names []string) ([]Availability, error) {
	clean := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return nil, missingField("domains", "at least one domain is required")
	}
	if len(clean) > MaxBulkDomains {
		return nil, &Error{
			Code:    CodeInvalidRequest,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("at most %d domains per bulk check (got %d)", MaxBulkDomains, len(clean)),
		}
	}

	var out struct {
		Results []Availability `json:"results"`
	}
	err := c.do(ctx, request{
		endpoint: "bulk_check",
		method:   http.MethodPost,
		path:     "/domains/check",
		body:     map[string][]string{"domains": clean},
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *Client) SuggestDomains(ctx context.Context, opts SuggestOptions) ([]Suggestion, error) {
	opts.Query = strings.TrimSpace(opts.Query)
	if opts.Query == "" {
		return nil, missingField("query", "query is required")
	}

	var out struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	err := c.do(ctx, request{
		endpoint: "suggest",
		method:   http.MethodPost,
		path:     "/domains/suggest",
		body:     opts,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, missingField("order_id", "order id is required")
	}

	var out Order
	err := c.do(ctx, request{
		endpoint: "order_status",
		method:   http.MethodGet,
		path:     "/orders/" + url.PathEscape(id),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
