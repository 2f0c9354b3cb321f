package main

import (
	"fmt"
	"io"
	"math/big"
	"runtime"
	"strings"
	"time"

	"github.com/benithors/dotbuy/client"
	appconfig "github.com/benithors/dotbuy/internal/config"
	"github.com/benithors/dotbuy/wallet"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

type config struct {
	Version string
	getenv  func(string) string

	// Global flags.
	VersionFlag bool
	Format      string
	JSON        bool
	NDJSON      bool
	Plain       bool
	Timeout     time.Duration
	APIURL      string
	ConfigPath  string
	Rate        float64
	Concurrency int
	Quiet       bool
	Verbose     bool

	// Derived runtime state.
	settings  *appconfig.Config
	outFormat outputFormat
	log       zerolog.Logger
}

func newRootCmd(ver string, getenv func(string) string) *cobra.Command {
	cfg := &config{Version: ver, getenv: getenv}

	root := &cobra.Command{
		Use:           "dotbuy",
		Short:         "Check, suggest and buy domains paid in USDC",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErr(cmd, fmt.Errorf("unknown command %q", args[0]))
			}
			return &cliError{Code: exitUsage, ShowUsage: true, Cmd: cmd}
		},
	}
	root.SetFlagErrorFunc(usageErr)

	pf := root.PersistentFlags()
	pf.BoolVar(&cfg.VersionFlag, "version", false, "Print version and exit")
	pf.StringVar(&cfg.Format, "format", "auto", "Output format: auto|table|ndjson|json|plain")
	pf.BoolVar(&cfg.JSON, "json", false, "Alias for --format json")
	pf.BoolVar(&cfg.NDJSON, "ndjson", false, "Alias for --format ndjson (one JSON object per line)")
	pf.BoolVar(&cfg.Plain, "plain", false, "Alias for --format plain (stable tab-separated)")
	pf.DurationVar(&cfg.Timeout, "timeout", 60*time.Second, "Per-request timeout")
	pf.StringVar(&cfg.APIURL, "api-url", "", "API base URL (default $"+appconfig.EnvAPIURL+" or config file)")
	pf.StringVar(&cfg.ConfigPath, "config", "", "Config file (default $"+appconfig.EnvConfig+" or "+appconfig.DefaultPath()+")")
	pf.Float64Var(&cfg.Rate, "rate", 0, "Max API requests per second (0 = unlimited)")
	pf.IntVar(&cfg.Concurrency, "concurrency", 4, "Max concurrent bulk requests")
	pf.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Only log errors to stderr")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Debug logging to stderr")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cfg.VersionFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "dotbuy %s (%s/%s)\n", cfg.Version, runtime.GOOS, runtime.GOARCH)
			return errExit0
		}

		formatStr, err := pickFormat(cfg)
		if err != nil {
			return usageErr(cmd, err)
		}
		cfg.outFormat = resolveFormat(formatStr, cmd.OutOrStdout())
		cfg.log = newLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.Quiet)

		settings, err := appconfig.Load(cfg.ConfigPath, cfg.getenv)
		if err != nil {
			return &cliError{Code: exitFailure, Err: err, Cmd: cmd}
		}
		if v := strings.TrimSpace(cfg.APIURL); v != "" {
			settings.APIURL = v
		}
		cfg.settings = settings
		if settings.Path != "" {
			cfg.log.Debug().Str("path", settings.Path).Msg("loaded config")
		}
		return nil
	}

	root.AddCommand(newCheckCmd(cfg))
	root.AddCommand(newSuggestCmd(cfg))
	root.AddCommand(newBuyCmd(cfg))
	root.AddCommand(newOrderCmd(cfg))

	return root
}

func pickFormat(cfg *config) (string, error) {
	formatStr := strings.ToLower(strings.TrimSpace(cfg.Format))
	if formatStr == "" {
		formatStr = "auto"
	}

	aliases := 0
	for _, set := range []bool{cfg.JSON, cfg.NDJSON, cfg.Plain} {
		if set {
			aliases++
		}
	}
	if aliases > 1 {
		return "", fmt.Errorf("flags are mutually exclusive: --json, --ndjson, --plain")
	}
	if formatStr != "auto" && aliases == 1 {
		return "", fmt.Errorf("do not combine --format with --json/--ndjson/--plain")
	}

	switch {
	case cfg.JSON:
		formatStr = "json"
	case cfg.NDJSON:
		formatStr = "ndjson"
	case cfg.Plain:
		formatStr = "plain"
	}
	switch formatStr {
	case "auto", "table", "ndjson", "json", "plain":
		return formatStr, nil
	}
	return "", fmt.Errorf("unknown format %q (use auto|table|ndjson|json|plain)", cfg.Format)
}

func newLogger(w io.Writer, verbose, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case quiet:
		level = zerolog.ErrorLevel
	case verbose:
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// newClient builds an API client. A signer is attached when
// DOTBUY_PRIVATE_KEY is set. maxPayment and network constrain what the x402
// transport will pay; both are ignored by read-only commands.
func (cfg *config) newClient(maxPayment *big.Int, network string) (*client.Client, error) {
	opts := client.Options{
		BaseURL:        cfg.settings.APIURL,
		Timeout:        cfg.Timeout,
		UserAgent:      "dotbuy-cli/" + cfg.Version,
		MaxPayment:     maxPayment,
		PaymentNetwork: network,
		Logger:         &cfg.log,
	}
	if cfg.Rate > 0 {
		opts.RateLimit = rate.Limit(cfg.Rate)
		opts.RateBurst = 1
	}
	if key := cfg.settings.PrivateKey; key != "" {
		signer, err := wallet.NewKeySigner(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", appconfig.EnvPrivateKey, err)
		}
		opts.Signer = signer
	}
	return client.NewClient(opts)
}
