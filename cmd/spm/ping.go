package main

import (
	"github.com/spf13/cobra"
)

func newPingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping <uri>",
		Short: "Check that an instance is reachable and accepts the credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient(args[0])
			if err != nil {
				return err
			}
			if err := c.Ping(cmd.Context()); err != nil {
				return err
			}
			success(opts.out, c.BaseURL()+" is up")
			return nil
		},
	}
}
