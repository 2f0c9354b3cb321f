package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Error codes produced locally. Remote business-rule codes (for example
// "domain_already_registered") pass through unchanged.
const (
	CodeNetworkError            = "network_error"
	CodeInvalidResponse         = "invalid_response"
	CodePaymentError            = "payment_error"
	CodeValidationError         = "validation_error"
	CodeMissingField            = "missing_field"
	CodeInvalidRequest          = "invalid_request"
	CodeUnknown                 = "unknown"
	CodeDomainAlreadyRegistered = "domain_already_registered"
)

// Error is the only error type returned by Client methods.
//
// Status is the HTTP status of the response that produced the error, 0 when
// no response was received, 402 for payment failures, 400 for local
// validation failures.
type Error struct {
	Code       string
	Status     int
	Message    string
	Details    any
	RetryAfter time.Duration

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func missingField(field, message string) *Error {
	return &Error{
		Code:    CodeMissingField,
		Status:  http.StatusBadRequest,
		Message: message,
		Details: map[string]string{"field": field},
	}
}

// networkError classifies a transport failure that happened before any
// response was received.
func networkError(err error) error {
	if ce, ok := AsError(err); ok {
		return ce
	}
	return &Error{
		Code:    CodeNetworkError,
		Status:  0,
		Message: "Network request failed: " + reason(err),
		Err:     err,
	}
}

var paymentKeywords = []string{"insufficient", "balance", "allowance", "signature", "payment", "402"}

// paymentError classifies a failure of the payment-bearing transport.
// Payment-related causes become payment_error (402); anything else is a
// plain network error.
func paymentError(err error) error {
	if ce, ok := AsError(err); ok {
		return ce
	}
	msg := reason(err)
	lower := strings.ToLower(msg)
	for _, kw := range paymentKeywords {
		if strings.Contains(lower, kw) {
			return &Error{
				Code:    CodePaymentError,
				Status:  http.StatusPaymentRequired,
				Message: "Payment failed: " + msg,
				Err:     err,
			}
		}
	}
	return networkError(err)
}

// reason describes err without the request URL that *url.Error prepends;
// the URL (ports in particular) must not take part in keyword matching.
// Payment failures raised by the x402 transport carry an "x402:" prefix and
// so always classify as payment_error; its other failures are unprefixed.
func reason(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		err = ue.Err
	}
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return "unknown error"
	}
	return err.Error()
}
