package client

import (
	"bytes"
	"encoding/json"
	"time"
)

type Price struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type Availability struct {
	Domain       string `json:"domain"`
	Available    bool   `json:"available"`
	Premium      bool   `json:"premium,omitempty"`
	Price        *Price `json:"price,omitempty"`
	RenewalPrice *Price `json:"renewal_price,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

type SuggestOptions struct {
	Query string   `json:"query"`
	TLDs  []string `json:"tlds,omitempty"`
	Limit int      `json:"limit,omitempty"`
}

type Suggestion struct {
	Domain    string `json:"domain"`
	Available bool   `json:"available"`
	Premium   bool   `json:"premium,omitempty"`
	Price     *Price `json:"price,omitempty"`
}

// Registrant is the contact record sent with a purchase. It is passed to the
// remote service verbatim; field order here is the serialization order.
type Registrant struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// BuyOptions controls a single BuyDomain call.
type BuyOptions struct {
	Years       int
	SourceChain string
	Registrant  Registrant
	Nameservers []string

	// IdempotencyKey is trusted verbatim when set. Otherwise a key is derived
	// from the purchase intent.
	IdempotencyKey string

	// SkipValidation disables the pre-payment dry run, and with it recovery
	// of an order that already exists under the same key.
	SkipValidation bool
}

// PurchaseIntent is the canonical pre-payment body. Field order is fixed by
// the struct and Nameservers is omitted entirely when empty; both feed the
// derived idempotency key.
type PurchaseIntent struct {
	Domain        string     `json:"domain"`
	Years         int        `json:"years"`
	WalletAddress string     `json:"wallet_address"`
	SourceChain   string     `json:"source_chain"`
	Registrant    Registrant `json:"registrant"`
	Nameservers   []string   `json:"nameservers,omitempty"`
}

// orderRequest is the submitted body: the intent plus its idempotency key.
type orderRequest struct {
	PurchaseIntent
	IdempotencyKey string `json:"idempotency_key"`
}

type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

func (r *ValidationResult) hasCode(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UnmarshalJSON accepts either an object or a bare message string.
func (v *ValidationIssue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var msg string
		if err := json.Unmarshal(b, &msg); err != nil {
			return err
		}
		*v = ValidationIssue{Message: msg}
		return nil
	}
	type plain ValidationIssue
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = ValidationIssue(p)
	return nil
}

type OrderStatus string

const (
	OrderPendingPayment OrderStatus = "pending_payment"
	OrderPaid           OrderStatus = "paid"
	OrderProcessing     OrderStatus = "processing"
	OrderCompleted      OrderStatus = "completed"
	OrderFailed         OrderStatus = "failed"
	OrderExpired        OrderStatus = "expired"
	OrderCredited       OrderStatus = "credited"
)

func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderCompleted, OrderFailed, OrderExpired, OrderCredited:
		return true
	default:
		return false
	}
}

// Order is a snapshot of the remote order record. The library never stores it.
type Order struct {
	ID            string        `json:"id"`
	Domain        string        `json:"domain"`
	Status        OrderStatus   `json:"status"`
	Amount        string        `json:"amount,omitempty"`
	Currency      string        `json:"currency,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Registration  *Registration `json:"registration,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Credit        *Credit       `json:"credit,omitempty"`
}

type Registration struct {
	Registrar    string     `json:"registrar,omitempty"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Nameservers  []string   `json:"nameservers,omitempty"`
}

type Credit struct {
	Status string `json:"status"`
	Amount string `json:"amount,omitempty"`
	Reason string `json:"reason,omitempty"`
}
