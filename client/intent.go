package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultYears       = 1
	DefaultSourceChain = "base"

	IdempotencyKeyPrefix = "dotbuy_"
	idempotencyHexLen    = 48
)

// BuildIntentBody shapes the purchase body for domain. walletAddress is used
// as given; NewClient lower-cases it once.
func BuildIntentBody(domain string, opts BuyOptions, walletAddress string) PurchaseIntent {
	years := opts.Years
	if years <= 0 {
		years = DefaultYears
	}
	chain := strings.TrimSpace(opts.SourceChain)
	if chain == "" {
		chain = DefaultSourceChain
	}

	intent := PurchaseIntent{
		Domain:        domain,
		Years:         years,
		WalletAddress: walletAddress,
		SourceChain:   chain,
		Registrant:    opts.Registrant,
	}
	if len(opts.Nameservers) > 0 {
		intent.Nameservers = append([]string(nil), opts.Nameservers...)
	}
	return intent
}

// DeriveIdempotencyKey returns IdempotencyKeyPrefix followed by the first 48
// hex characters of the SHA-256 of the intent's JSON encoding.
func DeriveIdempotencyKey(intent PurchaseIntent) (string, error) {
	b, err := json.Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("encode purchase intent: %w", err)
	}
	sum := sha256.Sum256(b)
	return IdempotencyKeyPrefix + hex.EncodeToString(sum[:])[:idempotencyHexLen], nil
}
