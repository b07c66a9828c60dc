package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dm/spm-go/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect spm configuration and splunkd .conf files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration (to stdout without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return config.WriteDefault(opts.out)
			}
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := config.WriteDefault(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			success(opts.out, "Wrote "+path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if used := opts.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(opts.out, "# %s\n", used)
			}
			return config.Write(opts.out, redacted(opts.cfg))
		},
	}

	dump := &cobra.Command{
		Use:   "dump <uri> <conf-file>",
		Short: "Print the effective stanzas of a .conf file, e.g. outputs or inputs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.newClient(args[0])
			if err != nil {
				return err
			}
			out, err := c.ConfigKVPairs(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(opts.out, out)
			return nil
		},
	}

	cmd.AddCommand(initCmd, show, dump)
	return cmd
}
