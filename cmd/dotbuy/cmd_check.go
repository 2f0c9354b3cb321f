package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/benithors/dotbuy/client"
	"github.com/benithors/dotbuy/internal/domain"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newCheckCmd(cfg *config) *cobra.Command {
	var availableOnly bool
	var sortBy string

	cmd := &cobra.Command{
		Use:   "check [domain...]",
		Short: "Check availability and price for domains (args and/or stdin)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readDomainsFromArgsAndStdin(args, cmd.InOrStdin())
			if err != nil {
				return &cliError{Code: exitFailure, Err: fmt.Errorf("failed to read domains: %w", err), Cmd: cmd}
			}
			if len(input) == 0 {
				return &cliError{Code: exitUsage, ShowUsage: true, Cmd: cmd}
			}
			names, err := domain.NormalizeAll(input)
			if err != nil {
				return usageErr(cmd, err)
			}

			sortVal := strings.ToLower(strings.TrimSpace(sortBy))
			switch sortVal {
			case "", "input", "domain", "status":
			default:
				return usageErr(cmd, fmt.Errorf("invalid --sort %q (use input|domain|status)", sortBy))
			}

			c, err := cfg.newClient(nil, "")
			if err != nil {
				return &cliError{Code: exitFailure, Err: err, Cmd: cmd}
			}

			results, err := checkAll(cmd.Context(), c, names, cfg.Concurrency)
			if err != nil {
				return apiErr(cmd, err)
			}

			if availableOnly {
				filtered := results[:0]
				for _, r := range results {
					if r.Available {
						filtered = append(filtered, r)
					}
				}
				results = filtered
			}

			switch sortVal {
			case "domain":
				sort.SliceStable(results, func(i, j int) bool { return results[i].Domain < results[j].Domain })
			case "status":
				sort.SliceStable(results, func(i, j int) bool {
					if results[i].Available != results[j].Available {
						return results[i].Available
					}
					return results[i].Domain < results[j].Domain
				})
			}

			if err := writeAvailability(cmd.OutOrStdout(), cfg.outFormat, results); err != nil {
				return &cliError{Code: exitFailure, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	cmd.Flags().BoolVar(&availableOnly, "available-only", false, "Only output available domains")
	cmd.Flags().StringVar(&sortBy, "sort", "input", "Sort output: input|domain|status")

	return cmd
}

// checkAll uses the single-name endpoint for one domain and bulk requests of
// up to client.MaxBulkDomains otherwise. Results keep input chunk order.
func checkAll(ctx context.Context, c *client.Client, names []string, concurrency int) ([]client.Availability, error) {
	if len(names) == 1 {
		r, err := c.CheckDomain(ctx, names[0])
		if err != nil {
			return nil, err
		}
		return []client.Availability{*r}, nil
	}

	chunks := domain.Chunk(names, client.MaxBulkDomains)
	parts := make([][]client.Availability, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, concurrency))
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			res, err := c.CheckDomains(ctx, chunk)
			if err != nil {
				return err
			}
			parts[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]client.Availability, 0, len(names))
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
