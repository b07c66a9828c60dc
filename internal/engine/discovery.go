package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/dm/spm-go/internal/client"
	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/model"
)

// ErrCancelled is returned by Run when Cancel was called before every
// candidate was polled.
var ErrCancelled = errors.New("discovery cancelled")

// ErrNoClientFactory is returned by Run when NewClient is nil.
var ErrNoClientFactory = errors.New("discoverer has no client factory")

// ClientFactory builds the REST client used to poll one candidate.
type ClientFactory func(model.Candidate) (client.SplunkClient, error)

// Discoverer polls a list of candidates one at a time.
type Discoverer struct {
	NewClient    ClientFactory // required
	Healthchecks config.Healthchecks
	Logger       log.Logger
	// Now defaults to time.Now.
	Now func() time.Time

	mu        sync.Mutex
	cancelled bool
}

// Cancel stops Run before the next candidate. The candidate being polled is
// finished first.
func (d *Discoverer) Cancel() {
	d.mu.Lock()
	d.cancelled = true
	d.mu.Unlock()
}

// Cancelled reports whether Cancel has been called.
func (d *Discoverer) Cancelled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelled
}

// Run polls each candidate in order and returns the successful snapshots
// keyed by Candidate.Key. Per-candidate failures are reported through
// progress and do not stop the batch. Every candidate receives exactly one
// event, in order; candidates not reached after cancellation are reported as
// Skipped and Run returns the partial map with ErrCancelled (or the context
// error). Without a NewClient nothing is polled and no event is sent.
func (d *Discoverer) Run(ctx context.Context, candidates []model.Candidate, progress func(model.ProgressEvent)) (map[string]*model.InstanceSnapshot, error) {
	if d.NewClient == nil {
		return nil, ErrNoClientFactory
	}
	logger := d.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	if progress == nil {
		progress = func(model.ProgressEvent) {}
	}

	results := make(map[string]*model.InstanceSnapshot, len(candidates))
	total := len(candidates)
	for i, cand := range candidates {
		stop := ctx.Err()
		if stop == nil && d.Cancelled() {
			stop = ErrCancelled
		}
		if stop != nil {
			for j := i; j < total; j++ {
				progress(model.ProgressEvent{Index: j, Total: total, Candidate: candidates[j], Status: model.StatusSkipped, Err: stop})
			}
			level.Info(logger).Log("msg", "discovery stopped", "polled", i, "total", total, "err", stop)
			return results, stop
		}

		ev := d.pollOne(ctx, cand, logger, now)
		ev.Index, ev.Total, ev.Candidate = i, total, cand
		if ev.Status == model.StatusOK {
			results[cand.Key()] = ev.snap
		}
		progress(ev.ProgressEvent)
	}
	level.Info(logger).Log("msg", "discovery finished", "ok", len(results), "total", total)
	return results, nil
}

type pollOutcome struct {
	model.ProgressEvent
	snap *model.InstanceSnapshot
}

func (d *Discoverer) pollOne(ctx context.Context, cand model.Candidate, logger log.Logger, now func() time.Time) pollOutcome {
	logger = log.With(logger, "candidate", cand.Key())
	c, err := d.NewClient(cand)
	if err != nil {
		level.Warn(logger).Log("msg", "cannot build client", "err", err)
		return pollOutcome{ProgressEvent: model.ProgressEvent{Status: model.StatusConnectFailed, Err: err}}
	}

	snap, err := Poll(ctx, c, logger)
	switch {
	case client.IsAuthError(err):
		level.Warn(logger).Log("msg", "authentication failed", "err", err)
		return pollOutcome{ProgressEvent: model.ProgressEvent{Status: model.StatusAuthFailed, Err: err}}
	case client.IsConnectionError(err):
		level.Warn(logger).Log("msg", "connection failed", "err", err)
		return pollOutcome{ProgressEvent: model.ProgressEvent{Status: model.StatusConnectFailed, Err: err}}
	case err != nil:
		level.Warn(logger).Log("msg", "poll failed", "err", err)
		return pollOutcome{ProgressEvent: model.ProgressEvent{Status: model.StatusPollFailed, Err: err}}
	}

	report := BuildReport(snap, d.Healthchecks, now())
	level.Debug(logger).Log("msg", "polled", "rows", len(report.Rows), "worst", report.Worst())
	return pollOutcome{
		ProgressEvent: model.ProgressEvent{Status: model.StatusOK, Report: &report},
		snap:          snap,
	}
}
