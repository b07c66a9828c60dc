package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log"

	"github.com/dm/spm-go/internal/client"
	"github.com/dm/spm-go/internal/config"
	"github.com/dm/spm-go/internal/engine"
	"github.com/dm/spm-go/internal/model"
)

type connState int

const (
	stateConnected connState = iota
	stateDisconnected
)

// App is the root Bubble Tea model of the single-instance monitor.
type App struct {
	client       client.SplunkClient
	healthchecks config.Healthchecks
	pollInterval time.Duration
	logger       log.Logger

	fetching bool
	current  *model.InstanceSnapshot
	report   model.Report
	history  *model.ResourceHistory
	table    ReportTable
	view     int // 0 is the report, i > 0 is engine.SectionNames[i-1]
	sections SectionTable

	connState        connState
	consecutiveFails int
	lastError        error
	lastUpdated      time.Time

	width, height  int
	showHelp       bool
	confirmRestart bool
	status         string
}

// NewApp creates an App polling c every interval. A nil logger discards
// output.
func NewApp(c client.SplunkClient, hc config.Healthchecks, interval time.Duration, logger log.Logger) *App {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &App{
		client:       c,
		healthchecks: hc,
		pollInterval: interval,
		logger:       logger,
		history:      model.NewResourceHistory(0),
		table:        NewReportTable(),
		connState:    stateDisconnected,
		fetching:     true,
	}
}

// Init starts the first poll.
func (app *App) Init() tea.Cmd {
	return fetchCmd(app.client, app.healthchecks, app.pollInterval, app.logger)
}

// Update implements tea.Model.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case ReportMsg:
		app.fetching = false
		app.current = msg.Snapshot
		app.report = msg.Report
		app.history.PushSnapshot(msg.Snapshot)
		app.table.SetRows(msg.Report.Rows)
		app.refreshSection()
		app.consecutiveFails = 0
		app.lastError = nil
		app.connState = stateConnected
		app.lastUpdated = msg.Snapshot.FetchedAt
		return app, tickCmd(app.pollInterval)

	case FetchErrorMsg:
		app.fetching = false
		app.consecutiveFails++
		app.lastError = msg.Err
		app.connState = stateDisconnected
		if client.IsAuthError(msg.Err) {
			// Retrying with the same credentials cannot succeed.
			return app, nil
		}
		return app, tea.Tick(backoffDuration(app.consecutiveFails), func(t time.Time) tea.Msg {
			return TickMsg(t)
		})

	case TickMsg:
		if app.fetching {
			return app, nil
		}
		app.fetching = true
		return app, fetchCmd(app.client, app.healthchecks, app.pollInterval, app.logger)

	case RestartResultMsg:
		if msg.Err != nil {
			app.status = "Restart failed: " + msg.Err.Error()
		} else {
			app.status = "Restart requested"
		}

	case tea.KeyMsg:
		return app.handleKey(msg)
	}

	return app, nil
}

func (app *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if app.confirmRestart {
		switch {
		case key.Matches(msg, keys.Confirm):
			app.confirmRestart = false
			if r, ok := app.client.(Restarter); ok {
				app.status = "Restarting..."
				return app, restartCmd(r)
			}
			app.status = "Restart is not supported by this client"
		case key.Matches(msg, keys.Cancel):
			app.confirmRestart = false
		}
		return app, nil
	}

	if app.searching() {
		return app.updateTable(msg)
	}

	app.status = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return app, tea.Quit
	case key.Matches(msg, keys.Refresh):
		if app.fetching {
			return app, nil
		}
		app.fetching = true
		return app, fetchCmd(app.client, app.healthchecks, app.pollInterval, app.logger)
	case key.Matches(msg, keys.Restart):
		if app.client != nil {
			app.confirmRestart = true
		}
		return app, nil
	case key.Matches(msg, keys.Help):
		app.showHelp = !app.showHelp
		return app, nil
	case key.Matches(msg, keys.NextView):
		app.setView(app.view + 1)
		return app, nil
	case key.Matches(msg, keys.PrevView):
		app.setView(app.view - 1)
		return app, nil
	}

	return app.updateTable(msg)
}

// ViewName returns "report" or the name of the section on screen.
func (app *App) ViewName() string {
	if app.view == 0 {
		return "report"
	}
	return engine.SectionNames[app.view-1]
}

func (app *App) setView(v int) {
	n := len(engine.SectionNames) + 1
	app.view = ((v % n) + n) % n
	app.refreshSection()
}

// refreshSection rebuilds the section on screen from the latest snapshot.
func (app *App) refreshSection() {
	if app.view == 0 || app.current == nil {
		return
	}
	t, err := engine.BuildSection(app.current, app.ViewName())
	if err != nil {
		app.status = err.Error()
		return
	}
	app.sections.SetTable(t)
}

func (app *App) searching() bool {
	if app.view == 0 {
		return app.table.Searching()
	}
	return app.sections.Searching()
}

func (app *App) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if app.view == 0 {
		app.table, cmd = app.table.Update(msg)
	} else {
		app.sections, cmd = app.sections.Update(msg)
	}
	return app, cmd
}

// View implements tea.Model.
func (app *App) View() string {
	parts := []string{renderHeader(app)}
	if app.confirmRestart {
		parts = append(parts, renderRestartConfirm(app))
	} else {
		if o := renderOverview(app); o != "" {
			parts = append(parts, o)
		}
		if h := renderHistoryRow(app); h != "" {
			parts = append(parts, h)
		}
		switch {
		case app.current == nil:
		case app.view == 0:
			parts = append(parts, app.table.View(app.width))
		default:
			parts = append(parts, app.sections.View(app.width))
		}
	}
	parts = append(parts, renderFooter(app))
	return strings.Join(parts, "\n")
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchCmd polls the instance and builds its report. The poll is bounded by
// the interval so a slow instance never overlaps the next tick.
func fetchCmd(c client.SplunkClient, hc config.Healthchecks, interval time.Duration, logger log.Logger) tea.Cmd {
	return func() tea.Msg {
		timeout := max(interval-500*time.Millisecond, 5*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		snap, err := engine.Poll(ctx, c, logger)
		if err != nil {
			return FetchErrorMsg{Err: err}
		}
		return ReportMsg{Snapshot: snap, Report: engine.BuildReport(snap, hc, time.Now())}
	}
}

// backoffDuration returns min(2^fails seconds, 60s).
func backoffDuration(fails int) time.Duration {
	const maxBackoff = 60 * time.Second
	if fails <= 0 {
		return time.Second
	}
	if fails >= 6 {
		return maxBackoff
	}
	return time.Duration(1<<fails) * time.Second
}
