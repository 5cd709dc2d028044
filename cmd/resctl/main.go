// Command resctl is a terminal client for the reservation service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	server  string
	as      string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintln(os.Stderr, apiErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var c *client

	root := &cobra.Command{
		Use:           "resctl",
		Short:         "Reserve grid equipment from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c = newClient(opts.server, opts.timeout)
			if opts.as == "" {
				return nil
			}
			_, err := c.login(cmd.Context(), opts.as)
			return err
		},
	}

	defaultServer := os.Getenv("RESCTL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8000"
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "reservation service base URL")
	root.PersistentFlags().StringVar(&opts.as, "as", os.Getenv("RESCTL_USER"), "act as this registered user")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	get := func() *client { return c }
	root.AddCommand(
		newReserveCmd(get),
		newCancelCmd(get),
		newListCmd(get),
		newAllCmd(get),
		newFinancialCmd(get),
		newEquipmentCmd(get),
		newUserCmd(get),
	)
	return root
}
