package client

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^dotbuy_[0-9a-f]{48}$`)

func mustKey(t *testing.T, intent PurchaseIntent) string {
	t.Helper()
	key, err := DeriveIdempotencyKey(intent)
	require.NoError(t, err)
	return key
}

func TestBuildIntentBody_Defaults(t *testing.T) {
	t.Parallel()

	intent := BuildIntentBody("example.com", BuyOptions{Registrant: registrant}, "0xabc")
	assert.Equal(t, "example.com", intent.Domain)
	assert.Equal(t, DefaultYears, intent.Years)
	assert.Equal(t, DefaultSourceChain, intent.SourceChain)
	assert.Equal(t, "0xabc", intent.WalletAddress)
	assert.Equal(t, registrant, intent.Registrant)
	assert.Nil(t, intent.Nameservers)
}

func TestBuildIntentBody_FieldOrderAndOmission(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(BuildIntentBody("example.com", BuyOptions{Years: 2, Nameservers: []string{}}, "0xabc"))
	require.NoError(t, err)
	s := string(b)
	assert.Regexp(t, `^\{"domain":"example.com","years":2,"wallet_address":"0xabc","source_chain":"base","registrant":\{`, s)
	assert.NotContains(t, s, "nameservers", "an empty list must be omitted, not sent as []")

	b, err = json.Marshal(BuildIntentBody("example.com", BuyOptions{Nameservers: []string{"ns1.example.net"}}, "0xabc"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"nameservers":["ns1.example.net"]}`)
}

func TestBuildIntentBody_CopiesNameservers(t *testing.T) {
	t.Parallel()

	ns := []string{"ns1.example.net"}
	intent := BuildIntentBody("example.com", BuyOptions{Nameservers: ns}, "0xabc")
	ns[0] = "changed"
	assert.Equal(t, "ns1.example.net", intent.Nameservers[0])
}

func TestDeriveIdempotencyKey_Deterministic(t *testing.T) {
	t.Parallel()

	opts := BuyOptions{Years: 1, Registrant: registrant, Nameservers: []string{"ns1.example.net", "ns2.example.net"}}
	a := mustKey(t, BuildIntentBody("example.com", opts, "0xabc"))
	b := mustKey(t, BuildIntentBody("example.com", opts, "0xabc"))

	assert.Equal(t, a, b)
	assert.Regexp(t, keyPattern, a)
}

func TestDeriveIdempotencyKey_SensitiveToEveryField(t *testing.T) {
	t.Parallel()

	base := BuyOptions{Years: 1, Registrant: registrant}
	baseKey := mustKey(t, BuildIntentBody("example.com", base, "0xabc"))

	otherEmail := registrant
	otherEmail.Email = "lovelace@example.com"

	variants := map[string]PurchaseIntent{
		"domain":      BuildIntentBody("example.net", base, "0xabc"),
		"years":       BuildIntentBody("example.com", BuyOptions{Years: 2, Registrant: registrant}, "0xabc"),
		"wallet":      BuildIntentBody("example.com", base, "0xdef"),
		"chain":       BuildIntentBody("example.com", BuyOptions{Registrant: registrant, SourceChain: "base-sepolia"}, "0xabc"),
		"email":       BuildIntentBody("example.com", BuyOptions{Registrant: otherEmail}, "0xabc"),
		"nameservers": BuildIntentBody("example.com", BuyOptions{Registrant: registrant, Nameservers: []string{"ns1.example.net"}}, "0xabc"),
	}
	for name, intent := range variants {
		key := mustKey(t, intent)
		assert.NotEqual(t, baseKey, key, "changing %s must change the key", name)
		assert.Regexp(t, keyPattern, key)
	}
}

func TestDeriveIdempotencyKey_DefaultsMatchExplicit(t *testing.T) {
	t.Parallel()

	implicit := mustKey(t, BuildIntentBody("example.com", BuyOptions{Registrant: registrant}, "0xabc"))
	explicit := mustKey(t, BuildIntentBody("example.com", BuyOptions{Years: 1, SourceChain: "base", Registrant: registrant}, "0xabc"))
	assert.Equal(t, implicit, explicit)
}

func TestOrderRequest_FlattensKey(t *testing.T) {
	t.Parallel()

	body := orderRequest{
		PurchaseIntent: BuildIntentBody("example.com", BuyOptions{}, "0xabc"),
		IdempotencyKey: "k1",
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "k1", m["idempotency_key"])
	assert.Equal(t, "example.com", m["domain"])
	_, nested := m["PurchaseIntent"]
	assert.False(t, nested)
}
