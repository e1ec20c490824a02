package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/CosmoTheDev/vulnbyhost/internal/history"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

const historyLimit = 20

// historyLoadedMsg carries loaded report runs.
type historyLoadedMsg struct {
	runs []models.ReportRun
	err  error
}

// HistoryModel lists earlier report runs with the change against the run
// before each one.
type HistoryModel struct {
	store   *history.Store
	runs    []models.ReportRun
	err     error
	width   int
	height  int
	loading bool
}

// NewHistoryModel creates a HistoryModel. A nil store disables loading.
func NewHistoryModel(store *history.Store) HistoryModel {
	return HistoryModel{store: store, loading: store != nil}
}

func (h HistoryModel) Init() tea.Cmd {
	if h.store == nil {
		return nil
	}
	return h.loadCmd()
}

func (h HistoryModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		runs, err := h.store.Runs(ctx, historyLimit)
		return historyLoadedMsg{runs: runs, err: err}
	}
}

func (h HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		h.runs = msg.runs
		h.err = msg.err
		h.loading = false
	case tea.KeyMsg:
		if msg.String() == "r" && h.store != nil {
			h.loading = true
			return h, h.loadCmd()
		}
	}
	return h, nil
}

func (h *HistoryModel) SetSize(w, height int) {
	h.width = w
	h.height = height
}

func (h HistoryModel) View() string {
	width := max(20, h.width-2)
	switch {
	case h.store == nil:
		return panelStyle.Width(width).Render(dimStyle.Render("Report history is disabled."))
	case h.loading && len(h.runs) == 0:
		return panelStyle.Width(width).Render("Loading report history...")
	case h.err != nil:
		return panelStyle.Width(width).Render(dimStyle.Render("Could not load history: " + h.err.Error()))
	}

	rows := ""
	limit := max(5, h.height-8)
	for i, run := range h.runs {
		if i >= limit {
			break
		}
		var prev *models.ReportRun
		if i+1 < len(h.runs) {
			prev = &h.runs[i+1]
		}
		rows += renderRun(run, prev) + "\n"
	}
	if rows == "" {
		rows = dimStyle.Render("No reports recorded yet. Run: vulnbyhost report -i <file.nessus> -c <customer>\n")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			panelHeaderStyle.Render("Recent Reports"),
			dimStyle.Render("   #  Generated        Customer            Hosts  Crit  High   Med   Low"),
			rows,
			lipgloss.JoinHorizontal(lipgloss.Left, keycapStyle.Render("r"), " ", dimStyle.Render("refresh")),
		),
	)
}

func renderRun(run models.ReportRun, prev *models.ReportRun) string {
	when := run.GeneratedAt
	if t, err := time.Parse(time.RFC3339, run.GeneratedAt); err == nil {
		when = humanize.Time(t)
	}
	counts := run.Counts()
	cells := ""
	for _, s := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		cells += severityStyle(s).Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%d", counts[s]))
	}
	trend := ""
	if prev != nil {
		d := history.Delta(*prev, run)
		worse := d[models.SeverityCritical] + d[models.SeverityHigh]
		switch {
		case worse > 0:
			trend = severityStyle(models.SeverityCritical).Render(fmt.Sprintf("  ▲%d", worse))
		case worse < 0:
			trend = lipgloss.NewStyle().Foreground(green).Render(fmt.Sprintf("  ▼%d", -worse))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		lipgloss.NewStyle().Width(5).Align(lipgloss.Right).Foreground(slate).Render(fmt.Sprintf("%d", run.ID)),
		"  ",
		lipgloss.NewStyle().Width(17).Foreground(slate).Render(when),
		lipgloss.NewStyle().Width(20).Foreground(ink).Render(truncateRight(run.CustomerName, 18)),
		lipgloss.NewStyle().Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%d", run.HostCount)),
		cells,
		trend,
	)
}
