package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// KeySigner signs with an in-memory secp256k1 private key. It implements both
// Signer and MessageSigner.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner parses a hex private key (with or without 0x prefix).
func NewKeySigner(hexKey string) (*KeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("wallet: empty private key")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: parse private key: %w", err)
	}
	return NewKeySignerFromKey(key), nil
}

func NewKeySignerFromKey(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

func (s *KeySigner) Address() string { return s.address.Hex() }

// SignMessage produces an EIP-191 personal_sign signature.
func (s *KeySigner) SignMessage(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.sign(accounts.TextHash([]byte(message)))
}

func (s *KeySigner) SignTypedData(ctx context.Context, data TypedData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	hash, _, err := apitypes.TypedDataAndHash(data.apiTypedData())
	if err != nil {
		return "", fmt.Errorf("wallet: hash typed data: %w", err)
	}
	return s.sign(hash)
}

func (s *KeySigner) sign(hash []byte) (string, error) {
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", fmt.Errorf("wallet: signature failed: %w", err)
	}
	// Ethereum wallets report v as 27/28.
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

func (d TypedData) apiTypedData() apitypes.TypedData {
	types := make(apitypes.Types, len(d.Types))
	for name, fields := range d.Types {
		out := make([]apitypes.Type, 0, len(fields))
		for _, f := range fields {
			out = append(out, apitypes.Type{Name: f.Name, Type: f.Type})
		}
		types[name] = out
	}

	domain := apitypes.TypedDataDomain{
		Name:              d.Domain.Name,
		Version:           d.Domain.Version,
		VerifyingContract: d.Domain.VerifyingContract,
	}
	if d.Domain.ChainID != 0 {
		domain.ChainId = math.NewHexOrDecimal256(d.Domain.ChainID)
	}

	return apitypes.TypedData{
		Types:       types,
		PrimaryType: d.PrimaryType,
		Domain:      domain,
		Message:     apitypes.TypedDataMessage(d.Message),
	}
}
