package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dm/spm-go/internal/engine"
	"github.com/dm/spm-go/internal/export"
)

func newTopologyCmd(opts *rootOptions) *cobra.Command {
	var (
		co      candidateOptions
		outPath string
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "topology [uri...]",
		Short: "Poll a batch of instances and draw the deployment as a D2 diagram",
		Example: `  spm topology -i instances.yml -o deployment.d2
  d2 deployment.d2 deployment.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cands, err := co.candidates(args, opts.cfg)
			if err != nil {
				return err
			}
			toStdout := outPath == "" || outPath == "-"
			snaps, err := opts.runDiscovery(cmd.Context(), cands, quiet || toStdout)
			if err != nil && !errors.Is(err, engine.ErrCancelled) && !errors.Is(err, context.Canceled) {
				return err
			}

			var resolver engine.Resolver
			if opts.cfg.Topology.ResolveDNS {
				resolver = engine.SystemResolver{}
			}
			g, err := engine.BuildTopology(snaps, opts.cfg.Topology, resolver)
			if err != nil {
				return err
			}

			if toStdout {
				return export.WriteD2(opts.out, g)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			if err := export.WriteD2(f, g); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", outPath, err)
			}
			success(opts.out, fmt.Sprintf("Wrote %s (%s)", outPath, engine.GraphSummary(g)))
			return nil
		},
	}
	co.bind(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "D2 output file (default: stdout)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print per-instance progress")
	return cmd
}
