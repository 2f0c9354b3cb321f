// Package wallet defines the signing capabilities used to pay for and prove
// ownership of a purchase, plus a private-key backed implementation.
package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Signer is the capability every paying wallet must provide: an address and
// EIP-712 typed-data signatures (used for payment authorizations).
type Signer interface {
	Address() string
	SignTypedData(ctx context.Context, data TypedData) (string, error)
}

// MessageSigner is optional. Wallets that implement it can sign plain
// personal messages, which unlocks the ownership proof sent with orders.
type MessageSigner interface {
	SignMessage(ctx context.Context, message string) (string, error)
}

// TypedData is an EIP-712 payload.
type TypedData struct {
	Types       map[string][]TypedField `json:"types"`
	PrimaryType string                  `json:"primaryType"`
	Domain      TypedDomain             `json:"domain"`
	Message     map[string]any          `json:"message"`
}

type TypedField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type TypedDomain struct {
	Name              string `json:"name,omitempty"`
	Version           string `json:"version,omitempty"`
	ChainID           int64  `json:"chainId,omitempty"`
	VerifyingContract string `json:"verifyingContract,omitempty"`
}

var chainIDs = map[string]int64{
	"base":         8453,
	"base-sepolia": 84532,
	"ethereum":     1,
	"sepolia":      11155111,
}

// ChainID maps a network tag (as used by source_chain and x402 requirements)
// to its EVM chain id.
func ChainID(network string) (int64, bool) {
	id, ok := chainIDs[strings.ToLower(strings.TrimSpace(network))]
	return id, ok
}

// NormalizeAddress validates a hex address and returns its lower-cased form.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("wallet: invalid address %q", addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// ChecksumAddress returns the EIP-55 mixed-case form of addr.
func ChecksumAddress(addr string) string {
	return common.HexToAddress(addr).Hex()
}
