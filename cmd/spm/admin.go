package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errAborted = errors.New("aborted")

// confirmed returns nil when yes is set or the user agrees to title.
func confirmed(yes bool, title string) error {
	if yes {
		return nil
	}
	ok, err := confirm(title)
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	return nil
}

func newDeploymentServerCmd(opts *rootOptions) *cobra.Command {
	ds := &cobra.Command{
		Use:   "deployment-server",
		Short: "Manage the deployment client of an instance",
	}

	var yes, restart bool
	set := &cobra.Command{
		Use:   "set <uri> [target-uri]",
		Short: "Point the instance at a deployment server, or disable the client when no target is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 2 {
				target = args[1]
			}
			c, err := opts.newClient(args[0])
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Point %s at deployment server %s?", c.BaseURL(), target)
			if target == "" {
				title = fmt.Sprintf("Disable the deployment client on %s?", c.BaseURL())
			}
			if err := confirmed(yes, title); err != nil {
				return err
			}
			if err := c.SetDeploymentServer(cmd.Context(), target); err != nil {
				return err
			}
			if !restart {
				success(opts.out, "Deployment client updated. Restart splunkd to apply.")
				return nil
			}
			if err := c.Restart(cmd.Context()); err != nil {
				return err
			}
			success(opts.out, "Deployment client updated, restart requested.")
			return nil
		},
	}
	set.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	set.Flags().BoolVar(&restart, "restart", false, "restart splunkd afterwards")
	ds.AddCommand(set)
	return ds
}

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	var windows bool

	cmd := &cobra.Command{
		Use:   "refresh <uri>",
		Short: "Reload every admin endpoint, like /debug/refresh in Splunk Web",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient(args[0])
			if err != nil {
				return err
			}
			results, err := c.RefreshConfig(cmd.Context(), windows)
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(opts.out, "%s %s: %v\n", errorStyle.Render("ERR"), r.Endpoint, r.Err)
					continue
				}
				fmt.Fprintf(opts.out, "%s %s\n", successStyle.Render("OK "), r.Endpoint)
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d endpoints failed to reload", failed, len(results))
			}
			success(opts.out, fmt.Sprintf("Reloaded %d endpoints", len(results)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&windows, "windows", false, "the instance runs on Windows (skips the fifo endpoint)")
	return cmd
}

func newRestartCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restart <uri>",
		Short: "Restart splunkd",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient(args[0])
			if err != nil {
				return err
			}
			if err := confirmed(yes, "Restart splunkd on "+c.BaseURL()+"?"); err != nil {
				return err
			}
			if err := c.Restart(cmd.Context()); err != nil {
				return err
			}
			success(opts.out, "Restart requested for "+c.BaseURL())
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
