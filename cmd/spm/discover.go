package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/engine"
	"github.com/dm/spm-go/internal/export"
	"github.com/dm/spm-go/internal/model"
	"github.com/dm/spm-go/internal/tui"
)

// candidateOptions selects the instances a batch command polls.
type candidateOptions struct {
	instancesFile string
}

func (c *candidateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&c.instancesFile, "instances", "i", "", "YAML file with an instances list (default: instances from the config)")
}

// candidates resolves the batch from URIs on the command line, then the
// instances file, then the config file.
func (c *candidateOptions) candidates(args []string, cfg *config.Config) ([]model.Candidate, error) {
	if len(args) > 0 {
		out := make([]model.Candidate, 0, len(args))
		for _, a := range args {
			cand, err := candidateFromURI(a)
			if err != nil {
				return nil, err
			}
			out = append(out, cand)
		}
		return out, nil
	}
	if c.instancesFile != "" {
		f, err := os.Open(c.instancesFile)
		if err != nil {
			return nil, fmt.Errorf("open instances: %w", err)
		}
		defer f.Close()
		return config.LoadCandidates(f)
	}
	if len(cfg.Instances) == 0 {
		return nil, fmt.Errorf("%w: no instances given on the command line, with --instances or in the config", config.ErrInvalidConfig)
	}
	return cfg.Instances, nil
}

func candidateFromURI(uri string) (model.Candidate, error) {
	baseURL, user, pass, err := parseSplunkURI(uri)
	if err != nil {
		return model.Candidate{}, err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return model.Candidate{}, err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return model.Candidate{}, fmt.Errorf("invalid port in %q: %w", uri, err)
	}
	return model.Candidate{Address: u.Hostname(), Port: port, Username: user, Password: pass}, nil
}

func (o *rootOptions) discoverer() *engine.Discoverer {
	return &engine.Discoverer{
		NewClient:    o.clientFactory(o.cfg.Discovery),
		Healthchecks: o.cfg.Healthchecks,
		Logger:       o.logger,
	}
}

// runDiscovery polls cands, printing one line per candidate unless quiet.
// A cancelled run still returns what was polled.
func (o *rootOptions) runDiscovery(ctx context.Context, cands []model.Candidate, quiet bool) (map[string]*model.InstanceSnapshot, error) {
	d := o.discoverer()
	ctx, stop := signalContext(ctx, d)
	defer stop()

	return d.Run(ctx, cands, func(ev model.ProgressEvent) {
		if !quiet {
			printEvent(o.out, ev)
		}
	})
}

// runDiscoveryTUI runs the batch under the progress screen.
func (o *rootOptions) runDiscoveryTUI(ctx context.Context, cands []model.Candidate) (map[string]*model.InstanceSnapshot, error) {
	m := tui.NewDiscoveryModel(ctx, o.discoverer(), cands)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return nil, fmt.Errorf("discovery screen: %w", err)
	}
	results, err := m.Results()
	if !m.Done() {
		return results, engine.ErrCancelled
	}
	return results, err
}

func newDiscoverCmd(opts *rootOptions) *cobra.Command {
	var (
		co     candidateOptions
		useTUI bool
		csvDir string
	)

	cmd := &cobra.Command{
		Use:   "discover [uri...]",
		Short: "Poll a batch of instances and report each one's outcome",
		Example: `  spm discover -i instances.yml --csv-dir reports/
  spm discover admin:changeme@idx1 admin:changeme@idx2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cands, err := co.candidates(args, opts.cfg)
			if err != nil {
				return err
			}

			var results map[string]*model.InstanceSnapshot
			if useTUI {
				results, err = opts.runDiscoveryTUI(cmd.Context(), cands)
			} else {
				results, err = opts.runDiscovery(cmd.Context(), cands, false)
			}
			if err != nil && !errors.Is(err, engine.ErrCancelled) && !errors.Is(err, context.Canceled) {
				return err
			}
			if err != nil {
				warn(opts.out, "discovery cancelled")
			}

			if csvDir != "" {
				if werr := writeCSVDir(csvDir, results, opts.cfg.Healthchecks); werr != nil {
					return werr
				}
			}
			fmt.Fprintf(opts.out, "%d of %d instances polled\n", len(results), len(cands))
			return err
		},
	}
	co.bind(cmd)
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show an interactive progress screen")
	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "write one CSV report per polled instance into this directory")
	return cmd
}

// writeCSVDir writes <dir>/<address>_<port>.csv for every snapshot.
func writeCSVDir(dir string, results map[string]*model.InstanceSnapshot, hc config.Healthchecks) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	now := time.Now()
	for key, snap := range results {
		r := engine.BuildReport(snap, hc, now)
		name := filepath.Join(dir, export.SanitizeID(key)+".csv")
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		err = export.WriteCSV(f, r, "Generated by spm at "+now.Format(time.RFC3339), "Instance: "+key)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
