package tui

import (
	"time"

	"github.com/dm/spm-go/internal/model"
)

// ReportMsg delivers a successful poll and the report built from it.
type ReportMsg struct {
	Snapshot *model.InstanceSnapshot
	Report   model.Report
}

// FetchErrorMsg signals a poll failure.
type FetchErrorMsg struct{ Err error }

// TickMsg triggers the next scheduled poll.
type TickMsg time.Time

// RestartResultMsg reports the outcome of a restart request.
type RestartResultMsg struct{ Err error }

// DiscoveryEventMsg carries one progress event from a discovery run.
type DiscoveryEventMsg struct{ Event model.ProgressEvent }

// DiscoveryDoneMsg is sent once the discovery run returns.
type DiscoveryDoneMsg struct {
	Results map[string]*model.InstanceSnapshot
	Err     error
}
