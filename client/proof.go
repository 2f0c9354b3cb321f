package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benithors/dotbuy/wallet"
	"github.com/google/uuid"
)

// Ownership proof headers attached to order creation. The message header is
// base64 because a sign-in message spans several lines.
const (
	HeaderSIWESignature = "X-SIWE-Signature"
	HeaderSIWEMessage   = "X-SIWE-Message"
)

const (
	proofStatement = "Prove ownership of this wallet to prioritize its domain order payment."
	proofTTL       = 5 * time.Minute
)

// walletProof signs an EIP-4361 message binding the wallet address to the
// current time. It never fails: without a message signer, or when signing
// errors or panics, the order is simply sent without proof headers.
func (c *Client) walletProof(ctx context.Context, sourceChain string) (h http.Header) {
	ms, ok := c.signer.(wallet.MessageSigner)
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			c.log.Debug().Interface("panic", r).Msg("wallet proof skipped")
			h = nil
		}
	}()

	msg := c.proofMessage(sourceChain, c.now())
	sig, err := ms.SignMessage(ctx, msg)
	if err != nil || strings.TrimSpace(sig) == "" {
		c.log.Debug().Err(err).Msg("wallet proof skipped")
		return nil
	}

	h = http.Header{}
	h.Set(HeaderSIWESignature, sig)
	h.Set(HeaderSIWEMessage, base64.StdEncoding.EncodeToString([]byte(msg)))
	return h
}

func (c *Client) proofMessage(sourceChain string, now time.Time) string {
	host := c.baseURL
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	chainID, ok := wallet.ChainID(sourceChain)
	if !ok {
		chainID, _ = wallet.ChainID(DefaultSourceChain)
	}
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")

	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", host)
	fmt.Fprintf(&b, "%s\n\n", wallet.ChecksumAddress(c.walletAddress))
	fmt.Fprintf(&b, "%s\n\n", proofStatement)
	fmt.Fprintf(&b, "URI: %s\n", c.baseURL)
	b.WriteString("Version: 1\n")
	fmt.Fprintf(&b, "Chain ID: %d\n", chainID)
	fmt.Fprintf(&b, "Nonce: %s\n", nonce)
	fmt.Fprintf(&b, "Issued At: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Expiration Time: %s", now.Add(proofTTL).UTC().Format(time.RFC3339))
	return b.String()
}
