package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// parseParams turns key=value arguments into url.Values. Repeated keys
// accumulate.
func parseParams(args []string) (url.Values, error) {
	params := url.Values{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", a)
		}
		params.Add(k, v)
	}
	return params, nil
}

func newRestCmd(opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "rest <uri> <method> <path> [key=value...]",
		Short: "Call an arbitrary splunkd REST endpoint",
		Example: `  spm rest sh1 GET /services/server/info
  spm rest sh1 POST /services/saved/searches name=test search="index=_internal"`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[3:])
			if err != nil {
				return err
			}
			c, err := opts.newClient(args[0])
			if err != nil {
				return err
			}
			res, err := c.RestCall(cmd.Context(), args[1], args[2], params)
			if err != nil {
				return err
			}
			if raw || res.Feed == nil {
				fmt.Fprintln(opts.out, res.Text)
				return nil
			}
			enc := json.NewEncoder(opts.out)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Feed)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the response body as received")
	return cmd
}
