package main

import (
	"context"
	"fmt"
	"time"

	"github.com/benithors/dotbuy/client"
	"github.com/spf13/cobra"
)

func newOrderCmd(cfg *config) *cobra.Command {
	var wait bool
	var interval time.Duration
	var waitTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "order <order-id>",
		Short: "Show the status of an order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErr(cmd, fmt.Errorf("expected exactly one order id, got %d", len(args)))
			}
			if wait && interval <= 0 {
				return usageErr(cmd, fmt.Errorf("--interval must be positive"))
			}

			c, err := cfg.newClient(nil, "")
			if err != nil {
				return &cliError{Code: exitFailure, Err: err, Cmd: cmd}
			}

			var order *client.Order
			if wait {
				ctx, cancel := context.WithTimeout(cmd.Context(), waitTimeout)
				defer cancel()
				order, err = waitForOrder(ctx, cfg, c, args[0], interval)
			} else {
				order, err = c.GetOrder(cmd.Context(), args[0])
			}
			if err != nil {
				return apiErr(cmd, err)
			}

			if err := writeOrders(cmd.OutOrStdout(), cfg.outFormat, []client.Order{*order}); err != nil {
				return &cliError{Code: exitFailure, Err: fmt.Errorf("failed to write output: %w", err), Cmd: cmd}
			}
			if wait && order.Status != client.OrderCompleted {
				return &cliError{Code: exitFailure, Cmd: cmd}
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(usageErr)
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the order reaches a final status; exit 1 unless completed")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Polling interval for --wait")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 10*time.Minute, "Give up waiting after this long")

	return cmd
}

func waitForOrder(ctx context.Context, cfg *config, c *client.Client, id string, interval time.Duration) (*client.Order, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last client.OrderStatus
	for {
		order, err := c.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		if order.Status != last {
			cfg.log.Info().Str("order_id", order.ID).Str("status", string(order.Status)).Msg("order status")
			last = order.Status
		}
		if order.Status.Terminal() {
			return order, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("order %s still %s: %w", id, order.Status, ctx.Err())
		case <-ticker.C:
		}
	}
}
