package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/vulnbyhost/internal/history"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

// Tab represents a TUI navigation tab.
type Tab int

const (
	TabDashboard Tab = iota
	TabHosts
	TabFindings
	TabHistory
)

var tabNames = []string{"Dashboard", "Hosts", "Findings", "History"}
var tabCompactNames = []string{"Dash", "Hosts", "Finds", "Hist"}
var tabTinyNames = []string{"D", "H", "F", "R"}

// App is the root bubbletea model for browsing one scan.
type App struct {
	source    string
	width     int
	height    int
	activeTab Tab
	dashboard DashboardModel
	hosts     HostsModel
	findings  FindingsModel
	history   HistoryModel
}

// NewApp creates the browser for scan. store may be nil, in which case the
// History tab explains that history is disabled.
func NewApp(source string, scan models.ScanAggregate, store *history.Store) *App {
	return &App{
		source:    source,
		dashboard: NewDashboardModel(scan),
		hosts:     NewHostsModel(scan.Hosts),
		findings:  NewFindingsModel(),
		history:   NewHistoryModel(store),
	}
}

// Run starts the bubbletea program.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.history.Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentW := max(20, msg.Width-2)
		contentH := max(8, msg.Height-7)
		a.dashboard.SetSize(contentW, contentH)
		a.hosts.SetSize(contentW, contentH)
		a.findings.SetSize(contentW, contentH)
		a.history.SetSize(contentW, contentH)

	case hostSelectedMsg:
		a.findings = a.findings.ShowHost(msg.host)
		a.activeTab = TabFindings
		return a, nil

	case historyLoadedMsg:
		newHist, cmd := a.history.Update(msg)
		a.history = newHist.(HistoryModel)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "1":
			a.activeTab = TabDashboard
			return a, nil
		case "2":
			a.activeTab = TabHosts
			return a, nil
		case "3":
			a.activeTab = TabFindings
			return a, nil
		case "4":
			a.activeTab = TabHistory
			return a, nil
		case "tab":
			a.activeTab = (a.activeTab + 1) % Tab(len(tabNames))
			return a, nil
		case "shift+tab":
			a.activeTab--
			if a.activeTab < 0 {
				a.activeTab = Tab(len(tabNames) - 1)
			}
			return a, nil
		}
	}

	// Delegate to active view.
	switch a.activeTab {
	case TabHosts:
		newHosts, cmd := a.hosts.Update(msg)
		a.hosts = newHosts.(HostsModel)
		cmds = append(cmds, cmd)
	case TabFindings:
		newFindings, cmd := a.findings.Update(msg)
		a.findings = newFindings.(FindingsModel)
		cmds = append(cmds, cmd)
	case TabHistory:
		newHist, cmd := a.history.Update(msg)
		a.history = newHist.(HistoryModel)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var content string
	switch a.activeTab {
	case TabDashboard:
		content = a.dashboard.View()
	case TabHosts:
		content = a.hosts.View()
	case TabFindings:
		content = a.findings.View()
	case TabHistory:
		content = a.history.View()
	}

	contentBox := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		MaxHeight(max(1, a.height-4)).
		Render(content)

	status := lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(slateDim).
		Render("tab next  shift+tab prev  1-4 jump  q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		a.renderTabs(),
		contentBox,
		status,
	)
}

func (a *App) renderHeader() string {
	row := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("vulnbyhost"),
		"  ",
		dimStyle.Render(truncate(a.source, 48)),
		"  ",
		mutedBadgeStyle.Render(" "+tabNames[a.activeTab]+" "),
	)
	return lipgloss.NewStyle().
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(line).
		Width(a.width).
		Padding(0, 1).
		Render(row)
}

func (a *App) renderTabs() string {
	rendered := a.renderTabLabels(tabNames)
	maxWidth := max(10, a.width-2)
	if lipgloss.Width(rendered) > maxWidth {
		rendered = a.renderTabLabels(tabCompactNames)
	}
	if lipgloss.Width(rendered) > maxWidth {
		rendered = a.renderTabLabels(tabTinyNames)
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(slate).
		Render(rendered)
}

func (a *App) renderTabLabels(labels []string) string {
	parts := make([]string, 0, len(labels))
	for i, name := range labels {
		label := fmt.Sprintf("%d:%s", i+1, name)
		if Tab(i) == a.activeTab {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(accent).Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
		if i < len(labels)-1 {
			parts = append(parts, dimStyle.Render("  ·  "))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}
