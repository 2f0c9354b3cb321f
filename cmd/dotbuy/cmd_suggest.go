package main

import (
	"fmt"
	"strings"

	"github.com/benithors/dotbuy/client"
	"github.com/spf13/cobra"
)

func newSuggestCmd(cfg *config) *cobra.Command {
	var tlds string
	var limit int
	var availableOnly bool

	cmd := &cobra.Command{
		Use:   "suggest <query...>",
		Short: "Suggest domain names for a keyword or phrase",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return &cliError{Code: exitUsage, ShowUsage: true, Cmd: cmd}
			}
			if limit < 1 || limit > 100 {
				return usageErr(cmd, fmt.Errorf("--limit must be between 1 and 100"))
			}

			c, err := cfg.newClient(nil, "")
			if err != nil {
				return &cliError{Code: exitFailure, Err: err, Cmd: cmd}
			}

			opts := client.SuggestOptions{Query: query, Limit: limit}
			for _, t := range splitCommaList(tlds) {
				opts.TLDs = append(opts.TLDs, strings.TrimPrefix(t, "."))
			}

			results, err := c.SuggestDomains(cmd.Context(), opts)
			if err != nil {
				return apiErr(cmd, err)
			}
			if availableOnly {
				filtered := results[:0]
				for _, s := range results {
					if s.Available {
						filtered = append(filtered, s)
					}
				}
				results = filtered
			}

			if err := writeSuggestions(cmd.OutOrStdout(), cfg.outFormat, results); err != nil {
				return &cliError{Code: exitFailure, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	cmd.Flags().StringVar(&tlds, "tlds", "", "Comma-separated TLDs to consider (e.g. com,io,dev)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Max suggestions")
	cmd.Flags().BoolVar(&availableOnly, "available-only", false, "Only output available suggestions")

	return cmd
}
