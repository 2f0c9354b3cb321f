package client

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Purchase outcomes reported to metrics.
const (
	outcomeRecovered = "recovered"
	outcomeSubmitted = "submitted"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// BuyDomain purchases domain, paying through the payment-bearing transport.
//
// Unless opts.SkipValidation is set, the order is dry-run first. When the
// service reports domain_already_registered, the same body is re-sent
// without payment: if an order already exists under this idempotency key it
// is returned and nothing is paid. Every failure is a *Error.
func (c *Client) BuyDomain(ctx context.Context, domain string, opts BuyOptions) (*Order, error) {
	ctx, span := c.tracer.Start(ctx, "dotbuy.BuyDomain", trace.WithAttributes(
		attribute.String("dotbuy.domain", domain),
		attribute.Bool("dotbuy.prevalidate", !opts.SkipValidation),
	))
	defer span.End()

	order, outcome, err := c.buyDomain(ctx, domain, opts)
	c.metrics.ObservePurchase(outcome)
	span.SetAttributes(attribute.String("dotbuy.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return order, nil
}

func (c *Client) buyDomain(ctx context.Context, domain string, opts BuyOptions) (*Order, string, error) {
	if c.signer == nil {
		return nil, outcomeFailed, missingField("signer", "a wallet signer is required to buy a domain")
	}
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, outcomeFailed, missingField("domain", "domain is required")
	}

	body, err := c.orderBody(domain, opts)
	if err != nil {
		return nil, outcomeFailed, err
	}
	span := trace.SpanFromContext(ctx)
	log := c.log.With().Str("domain", domain).Str("idempotency_key", body.IdempotencyKey).Logger()

	if !opts.SkipValidation {
		result, err := c.validate(ctx, body)
		if err != nil {
			return nil, outcomeFailed, err
		}
		span.AddEvent("validated", trace.WithAttributes(attribute.Bool("dotbuy.valid", result.Valid)))

		if !result.Valid {
			verr := validationError(result.Errors)
			if !result.hasCode(CodeDomainAlreadyRegistered) {
				return nil, outcomeRejected, verr
			}

			log.Debug().Msg("active order reported, probing for an existing order")
			order, found, err := c.findExistingOrder(ctx, body)
			if err != nil {
				return nil, outcomeFailed, err
			}
			if found {
				span.AddEvent("recovered", trace.WithAttributes(attribute.String("dotbuy.order_id", order.ID)))
				log.Info().Str("order_id", order.ID).Msg("recovered existing order, no payment made")
				return order, outcomeRecovered, nil
			}
			return nil, outcomeRejected, verr
		}
	}

	header := c.walletProof(ctx, body.SourceChain)
	span.AddEvent("submitting", trace.WithAttributes(attribute.Bool("dotbuy.wallet_proof", header != nil)))

	var order Order
	err = c.do(ctx, request{
		endpoint: "order_create",
		method:   http.MethodPost,
		path:     "/orders",
		body:     body,
		header:   header,
		paid:     true,
	}, &order)
	if err != nil {
		return nil, outcomeFailed, err
	}
	log.Info().Str("order_id", order.ID).Str("status", string(order.Status)).Msg("order submitted")
	return &order, outcomeSubmitted, nil
}

// ValidateOrder dry-runs a purchase without payment.
func (c *Client) ValidateOrder(ctx context.Context, domain string, opts BuyOptions) (*ValidationResult, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, missingField("domain", "domain is required")
	}
	body, err := c.orderBody(domain, opts)
	if err != nil {
		return nil, err
	}
	return c.validate(ctx, body)
}

func (c *Client) orderBody(domain string, opts BuyOptions) (orderRequest, error) {
	intent := BuildIntentBody(domain, opts, c.walletAddress)
	key := opts.IdempotencyKey
	if key == "" {
		var err error
		if key, err = DeriveIdempotencyKey(intent); err != nil {
			return orderRequest{}, &Error{Code: CodeInvalidRequest, Status: http.StatusBadRequest, Message: err.Error(), Err: err}
		}
	}
	return orderRequest{PurchaseIntent: intent, IdempotencyKey: key}, nil
}

func (c *Client) validate(ctx context.Context, body orderRequest) (*ValidationResult, error) {
	var out ValidationResult
	err := c.do(ctx, request{
		endpoint: "order_validate",
		method:   http.MethodPost,
		path:     "/orders/validate",
		body:     body,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// findExistingOrder re-sends body without payment. A 2xx means the key
// matched an existing order; a structured 402 means no order exists under
// the key. An unreadable 402 body propagates as invalid_response.
func (c *Client) findExistingOrder(ctx context.Context, body orderRequest) (*Order, bool, error) {
	var order Order
	err := c.do(ctx, request{
		endpoint: "order_probe",
		method:   http.MethodPost,
		path:     "/orders",
		body:     body,
	}, &order)
	if err == nil {
		return &order, true, nil
	}
	if ce, ok := AsError(err); ok && ce.Status == http.StatusPaymentRequired && ce.Code != CodeInvalidResponse {
		return nil, false, nil
	}
	return nil, false, err
}

// validationError reports the first issue in list order, never an aggregate.
func validationError(issues []ValidationIssue) *Error {
	e := &Error{
		Code:    CodeValidationError,
		Status:  http.StatusBadRequest,
		Message: "Order validation failed",
		Details: append([]ValidationIssue{}, issues...),
	}
	if len(issues) > 0 {
		if issues[0].Code != "" {
			e.Code = issues[0].Code
		}
		if issues[0].Message != "" {
			e.Message = issues[0].Message
		}
	}
	return e
}
