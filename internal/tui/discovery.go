package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/spm-go/internal/model"
)

// Runner runs a discovery batch. *engine.Discoverer implements it.
type Runner interface {
	Run(ctx context.Context, candidates []model.Candidate, progress func(model.ProgressEvent)) (map[string]*model.InstanceSnapshot, error)
	Cancel()
}

// DiscoveryModel shows the progress of a discovery run. The run executes on
// its own goroutine and feeds the model through a channel.
type DiscoveryModel struct {
	runner     Runner
	candidates []model.Candidate
	ctx        context.Context
	msgs       chan tea.Msg

	spinner  spinner.Model
	progress progress.Model
	events   []model.ProgressEvent

	results    map[string]*model.InstanceSnapshot
	err        error
	done       bool
	cancelling bool
	quitting   bool
	width      int
}

// NewDiscoveryModel prepares a run over candidates. Nothing is polled until
// Init.
func NewDiscoveryModel(ctx context.Context, r Runner, candidates []model.Candidate) *DiscoveryModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorBlue)
	return &DiscoveryModel{
		runner:     r,
		candidates: candidates,
		ctx:        ctx,
		msgs:       make(chan tea.Msg, len(candidates)+1),
		spinner:    sp,
		progress:   progress.New(progress.WithDefaultGradient()),
		events:     make([]model.ProgressEvent, 0, len(candidates)),
	}
}

// Init starts the run and the spinner.
func (m *DiscoveryModel) Init() tea.Cmd {
	go func() {
		results, err := m.runner.Run(m.ctx, m.candidates, func(ev model.ProgressEvent) {
			m.msgs <- DiscoveryEventMsg{Event: ev}
		})
		m.msgs <- DiscoveryDoneMsg{Results: results, Err: err}
	}()
	return tea.Batch(m.spinner.Tick, waitForDiscovery(m.msgs))
}

// waitForDiscovery blocks until the run produces its next message.
func waitForDiscovery(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Update implements tea.Model.
func (m *DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(msg.Width-4, 10)

	case DiscoveryEventMsg:
		m.events = append(m.events, msg.Event)
		return m, waitForDiscovery(m.msgs)

	case DiscoveryDoneMsg:
		m.done = true
		m.results = msg.Results
		m.err = msg.Err
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			// The first quit of a running batch waits for the runner so the
			// snapshots polled so far are kept. A second one leaves at once.
			if m.done || m.quitting {
				return m, tea.Quit
			}
			m.quitting = true
			if !m.cancelling {
				m.cancelling = true
				m.runner.Cancel()
			}
			return m, nil
		case key.Matches(msg, keys.Escape):
			if !m.done && !m.cancelling {
				m.cancelling = true
				m.runner.Cancel()
			}
		}
	}
	return m, nil
}

// Results returns the snapshots collected and the run error. Both are nil
// until the run is done.
func (m *DiscoveryModel) Results() (map[string]*model.InstanceSnapshot, error) {
	return m.results, m.err
}

// Done reports whether the run has returned.
func (m *DiscoveryModel) Done() bool {
	return m.done
}

// View implements tea.Model.
func (m *DiscoveryModel) View() string {
	total := len(m.candidates)
	var b strings.Builder

	switch {
	case m.done:
		ok := 0
		for _, ev := range m.events {
			if ev.Status == model.StatusOK {
				ok++
			}
		}
		summary := fmt.Sprintf("Discovery finished: %d of %d instances polled", ok, total)
		if m.err != nil {
			summary += "  " + StyleYellow.Render("("+m.err.Error()+")")
		}
		b.WriteString(summary)
	case m.cancelling:
		fmt.Fprintf(&b, "%s Cancelling after the current instance...", m.spinner.View())
	default:
		current := ""
		if n := len(m.events); n < total {
			current = m.candidates[n].Key()
		}
		fmt.Fprintf(&b, "%s Polling %d/%d %s", m.spinner.View(), min(len(m.events)+1, total), total, current)
	}
	b.WriteString("\n")

	pct := 1.0
	if total > 0 {
		pct = float64(len(m.events)) / float64(total)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	for _, ev := range m.events {
		b.WriteString(renderEventLine(ev))
		b.WriteString("\n")
	}

	hint := "esc: cancel  q: quit"
	switch {
	case m.done:
		hint = "q: quit"
	case m.quitting:
		hint = "q: quit now, discarding results"
	}
	b.WriteString(StyleDim.Render(hint))
	return b.String()
}

func renderEventLine(ev model.ProgressEvent) string {
	line := fmt.Sprintf("  %-28s %s", ev.Candidate.Key(), StatusStyle(ev.Status).Render(ev.Status.String()))
	switch {
	case ev.Report != nil:
		worst := ev.Report.Worst()
		line += "  " + HealthStyle(worst).Render(worst.String())
		if n := ev.Report.Count(model.HealthWarning); n > 0 {
			line += StyleDim.Render(fmt.Sprintf("  %d warning(s)", n))
		}
	case ev.Err != nil && ev.Status != model.StatusSkipped:
		line += "  " + StyleDim.Render(truncate(ev.Err.Error(), 60))
	}
	return line
}
