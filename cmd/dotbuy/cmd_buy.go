package main

import (
	"fmt"
	"strings"

	"github.com/benithors/dotbuy/client"
	appconfig "github.com/benithors/dotbuy/internal/config"
	"github.com/benithors/dotbuy/internal/domain"
	"github.com/spf13/cobra"
)

func newBuyCmd(cfg *config) *cobra.Command {
	var (
		years          int
		sourceChain    string
		nameservers    []string
		idempotencyKey string
		skipValidation bool
		maxPayment     string
		yes            bool
	)

	cmd := &cobra.Command{
		Use:   "buy <domain>",
		Short: "Buy a domain, paying in USDC from DOTBUY_PRIVATE_KEY",
		Long: "Without --yes the order is only validated; nothing is paid.\n" +
			"Re-running an identical purchase is safe: it derives the same idempotency key\n" +
			"and returns the existing order instead of paying twice.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErr(cmd, fmt.Errorf("expected exactly one domain, got %d", len(args)))
			}
			name, err := domain.Normalize(args[0])
			if err != nil {
				return usageErr(cmd, err)
			}

			s := cfg.settings
			if !cmd.Flags().Changed("years") {
				years = s.Years
			}
			if years < 1 || years > 10 {
				return usageErr(cmd, fmt.Errorf("--years must be between 1 and 10"))
			}
			if sourceChain == "" {
				sourceChain = s.SourceChain
			}
			if !cmd.Flags().Changed("nameserver") {
				nameservers = s.Nameservers
			}
			ns := make([]string, 0, len(nameservers))
			for _, n := range nameservers {
				ns = append(ns, splitCommaList(n)...)
			}

			if err := s.Registrant.Validate(); err != nil {
				return &cliError{Code: exitFailure, Err: fmt.Errorf("%w (set it in the config file)", err), Cmd: cmd}
			}

			if maxPayment == "" {
				maxPayment = s.MaxPayment
			}
			limit, err := appconfig.ParseAmount(maxPayment)
			if err != nil {
				return usageErr(cmd, err)
			}

			sourceChain = strings.ToLower(strings.TrimSpace(sourceChain))
			c, err := cfg.newClient(limit, sourceChain)
			if err != nil {
				return &cliError{Code: exitFailure, Err: err, Cmd: cmd}
			}

			opts := client.BuyOptions{
				Years:          years,
				SourceChain:    sourceChain,
				Registrant:     s.Registrant.ToRegistrant(),
				Nameservers:    ns,
				IdempotencyKey: strings.TrimSpace(idempotencyKey),
				SkipValidation: skipValidation,
			}

			out := cmd.OutOrStdout()
			if !yes {
				res, err := c.ValidateOrder(cmd.Context(), name, opts)
				if err != nil {
					return apiErr(cmd, err)
				}
				if err := writeValidation(out, cfg.outFormat, name, res); err != nil {
					return &cliError{Code: exitFailure, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
				}
				if !res.Valid {
					return &cliError{Code: exitFailure, Cmd: cmd}
				}
				cfg.log.Info().Str("domain", name).Msg("validated only; re-run with --yes to purchase")
				return nil
			}

			if c.WalletAddress() == "" {
				return &cliError{Code: exitUsage, Err: fmt.Errorf("%s is required to buy", appconfig.EnvPrivateKey), Cmd: cmd}
			}
			cfg.log.Debug().Str("wallet", c.WalletAddress()).Str("domain", name).Msg("buying")

			order, err := c.BuyDomain(cmd.Context(), name, opts)
			if err != nil {
				return apiErr(cmd, err)
			}
			if err := writeOrders(out, cfg.outFormat, []client.Order{*order}); err != nil {
				return &cliError{Code: exitFailure, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	f := cmd.Flags()
	f.IntVar(&years, "years", client.DefaultYears, "Registration period in years (1-10)")
	f.StringVar(&sourceChain, "source-chain", "", "Chain the payment is made on (default from config, else base)")
	f.StringSliceVar(&nameservers, "nameserver", nil, "Nameserver to set (repeatable or comma-separated)")
	f.StringVar(&idempotencyKey, "idempotency-key", "", "Use this key instead of deriving one from the order")
	f.BoolVar(&skipValidation, "skip-validation", false, "Pay without the validation dry run (disables order recovery)")
	f.StringVar(&maxPayment, "max-payment", "", "Refuse to pay more than this many USDC (e.g. 25.00)")
	f.BoolVarP(&yes, "yes", "y", false, "Actually purchase; without it the order is only validated")

	return cmd
}
