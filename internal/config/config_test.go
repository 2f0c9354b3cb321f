package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benithors/dotbuy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
api_url: https://staging.example.test/v1
years: 2
nameservers:
  - ns1.example.net
  - ns2.example.net
max_payment: "25.5"
registrant:
  first_name: Ada
  last_name: Lovelace
  email: ada@example.com
  phone: "+44.2071234567"
  address1: 12 St James's Square
  city: London
  state: London
  postal_code: SW1Y 4JH
  country: gb
`

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "https://staging.example.test/v1", cfg.APIURL)
	assert.Equal(t, 2, cfg.Years)
	assert.Equal(t, client.DefaultSourceChain, cfg.SourceChain)
	assert.Equal(t, []string{"ns1.example.net", "ns2.example.net"}, cfg.Nameservers)

	reg := cfg.Registrant.ToRegistrant()
	assert.Equal(t, "Ada", reg.FirstName)
	assert.Equal(t, "GB", reg.Country)
	assert.NoError(t, cfg.Registrant.Validate())

	units, err := cfg.MaxPaymentUnits()
	require.NoError(t, err)
	assert.Equal(t, "25500000", units.String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, sampleYAML)
	cfg, err := Load("", env(map[string]string{
		EnvConfig:     path,
		EnvAPIURL:     "http://localhost:8787",
		EnvPrivateKey: " 0xabc ",
		EnvMaxPayment: "1",
		EnvYears:      "3",
		EnvChain:      "base-sepolia",
	}))
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, "http://localhost:8787", cfg.APIURL)
	assert.Equal(t, "0xabc", cfg.PrivateKey)
	assert.Equal(t, "1", cfg.MaxPayment)
	assert.Equal(t, 3, cfg.Years)
	assert.Equal(t, "base-sepolia", cfg.SourceChain)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing, env(nil))
	assert.Error(t, err, "an explicit path must exist")

	_, err = Load("", env(map[string]string{EnvConfig: missing}))
	assert.Error(t, err, "a path from the environment is explicit too")
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "registrant: {}\n"), env(nil))
	require.NoError(t, err)
	assert.Equal(t, client.DefaultBaseURL, cfg.APIURL)
	assert.Equal(t, client.DefaultYears, cfg.Years)
	assert.Equal(t, client.DefaultSourceChain, cfg.SourceChain)

	units, err := cfg.MaxPaymentUnits()
	require.NoError(t, err)
	assert.Nil(t, units)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Load(writeConfig(t, "years: [1"), env(nil))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "years: 11\n"), env(nil))
	assert.ErrorContains(t, err, "between 1 and 10")

	_, err = Load(writeConfig(t, ""), env(map[string]string{EnvYears: "two"}))
	assert.ErrorContains(t, err, EnvYears)
}

func TestProfile_Validate(t *testing.T) {
	t.Parallel()

	err := Profile{FirstName: "Ada"}.Validate()
	ce, ok := client.AsError(err)
	require.True(t, ok)
	assert.Equal(t, client.CodeMissingField, ce.Code)
	assert.Equal(t, 400, ce.Status)
	assert.Equal(t, "registrant.last_name is required", ce.Message)
	assert.Equal(t, map[string]string{"field": "registrant.last_name"}, ce.Details)
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"0": "0", "1": "1000000", "0.000001": "1", "12.34": "12340000"} {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
	for _, bad := range []string{"abc", "-1", "0.0000001"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, bad)
	}
}
