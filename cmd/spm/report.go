package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dm/spm-go/internal/engine"
	"github.com/dm/spm-go/internal/export"
	"github.com/dm/spm-go/internal/model"
)

func newReportCmd(opts *rootOptions) *cobra.Command {
	var csvPath, section string

	cmd := &cobra.Command{
		Use:   "report <uri>",
		Short: "Poll one instance and print its health report",
		Long:  "Poll one instance and print its health report, or one detail table with --section: " + strings.Join(engine.SectionNames, ", ") + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if section != "" && !slices.Contains(engine.SectionNames, section) {
				return fmt.Errorf("%w %q (want one of %s)", engine.ErrUnknownSection, section, strings.Join(engine.SectionNames, ", "))
			}
			c, err := opts.newClient(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			snap, err := engine.Poll(ctx, c, opts.logger)
			if err != nil {
				return err
			}
			if section != "" {
				return writeSection(opts, snap, section, csvPath)
			}
			r := engine.BuildReport(snap, opts.cfg.Healthchecks, time.Now())

			if csvPath == "" {
				printReport(opts.out, r)
				return nil
			}
			return writeReportCSV(csvPath, opts.out, func(w io.Writer) error {
				return export.WriteCSV(w, r,
					"Generated by spm at "+r.GeneratedAt.Format(time.RFC3339),
					"Instance: "+r.Instance,
				)
			})
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the report as CSV to this file (- for stdout)")
	cmd.Flags().StringVar(&section, "section", "", "print one detail table instead of the report")
	return cmd
}

func writeSection(opts *rootOptions, snap *model.InstanceSnapshot, section, csvPath string) error {
	t, err := engine.BuildSection(snap, section)
	if err != nil {
		return err
	}
	if csvPath == "" {
		printSection(opts.out, snap.Address(), t)
		return nil
	}
	return writeReportCSV(csvPath, opts.out, func(w io.Writer) error {
		return export.WriteTable(w, t,
			"Generated by spm at "+time.Now().Format(time.RFC3339),
			"Instance: "+snap.Address(),
			"Section: "+t.Title,
		)
	})
}

// writeReportCSV runs write against path, or against stdout when path is "-".
func writeReportCSV(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	success(stdout, "Wrote "+path)
	return nil
}
