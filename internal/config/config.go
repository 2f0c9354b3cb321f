// Package config loads CLI defaults from a YAML profile and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benithors/dotbuy/client"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIURL     = "DOTBUY_API_URL"
	EnvPrivateKey = "DOTBUY_PRIVATE_KEY"
	EnvConfig     = "DOTBUY_CONFIG"
	EnvMaxPayment = "DOTBUY_MAX_PAYMENT"
	EnvYears      = "DOTBUY_YEARS"
	EnvChain      = "DOTBUY_SOURCE_CHAIN"
)

// usdcDecimals scales a max_payment such as "25.50" to atomic token units.
const usdcDecimals = 6

type Config struct {
	APIURL      string   `yaml:"api_url,omitempty"`
	SourceChain string   `yaml:"source_chain,omitempty"`
	Years       int      `yaml:"years,omitempty"`
	Nameservers []string `yaml:"nameservers,omitempty"`
	MaxPayment  string   `yaml:"max_payment,omitempty"`
	Registrant  Profile  `yaml:"registrant"`

	// PrivateKey is only ever read from the environment.
	PrivateKey string `yaml:"-"`
	// Path is the file the config was read from, empty when none existed.
	Path string `yaml:"-"`
}

// Profile is the registrant contact block of the config file.
type Profile struct {
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Organization string `yaml:"organization,omitempty"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	Address1     string `yaml:"address1"`
	Address2     string `yaml:"address2,omitempty"`
	City         string `yaml:"city"`
	State        string `yaml:"state"`
	PostalCode   string `yaml:"postal_code"`
	Country      string `yaml:"country"`
}

func (p Profile) ToRegistrant() client.Registrant {
	return client.Registrant{
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		Organization: strings.TrimSpace(p.Organization),
		Email:        strings.TrimSpace(p.Email),
		Phone:        strings.TrimSpace(p.Phone),
		Address1:     strings.TrimSpace(p.Address1),
		Address2:     strings.TrimSpace(p.Address2),
		City:         strings.TrimSpace(p.City),
		State:        strings.TrimSpace(p.State),
		PostalCode:   strings.TrimSpace(p.PostalCode),
		Country:      strings.ToUpper(strings.TrimSpace(p.Country)),
	}
}

// Validate reports the first required registrant field that is blank.
func (p Profile) Validate() error {
	required := []struct{ field, value string }{
		{"registrant.first_name", p.FirstName},
		{"registrant.last_name", p.LastName},
		{"registrant.email", p.Email},
		{"registrant.phone", p.Phone},
		{"registrant.address1", p.Address1},
		{"registrant.city", p.City},
		{"registrant.state", p.State},
		{"registrant.postal_code", p.PostalCode},
		{"registrant.country", p.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &client.Error{
				Code:    client.CodeMissingField,
				Status:  400,
				Message: r.field + " is required",
				Details: map[string]string{"field": r.field},
			}
		}
	}
	return nil
}

// DefaultPath is <user config dir>/dotbuy/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dotbuy", "config.yaml")
}

// Load reads the YAML file at path and applies environment overrides.
// An empty path falls back to $DOTBUY_CONFIG, then DefaultPath. A missing
// file is not an error unless the path was given explicitly.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	explicit := path != ""
	if !explicit {
		if path = getenv(EnvConfig); path != "" {
			explicit = true
		} else {
			path = DefaultPath()
		}
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
			cfg.Path = path
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if cfg.APIURL == "" {
		cfg.APIURL = client.DefaultBaseURL
	}
	if cfg.SourceChain == "" {
		cfg.SourceChain = client.DefaultSourceChain
	}
	if cfg.Years == 0 {
		cfg.Years = client.DefaultYears
	}
	if cfg.Years < 1 || cfg.Years > 10 {
		return nil, fmt.Errorf("years must be between 1 and 10 (got %d)", cfg.Years)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(getenv(EnvChain)); v != "" {
		c.SourceChain = v
	}
	if v := strings.TrimSpace(getenv(EnvMaxPayment)); v != "" {
		c.MaxPayment = v
	}
	if v := strings.TrimSpace(getenv(EnvYears)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvYears, err)
		}
		c.Years = n
	}
	c.PrivateKey = strings.TrimSpace(getenv(EnvPrivateKey))
	return nil
}

// MaxPaymentUnits converts MaxPayment, a decimal USDC amount, to atomic
// units. It returns nil when no cap is configured.
func (c *Config) MaxPaymentUnits() (*big.Int, error) {
	return ParseAmount(c.MaxPayment)
}

// ParseAmount converts a decimal USDC amount to atomic units. A blank
// string means no cap and yields nil.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || r.Sign() < 0 {
		return nil, fmt.Errorf("invalid max payment %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(usdcDecimals), nil)))
	if !r.IsInt() {
		return nil, fmt.Errorf("max payment %q has more than %d decimals", s, usdcDecimals)
	}
	return new(big.Int).Set(r.Num()), nil
}
