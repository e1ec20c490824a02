package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

// hostSelectedMsg asks the app to open a host's findings.
type hostSelectedMsg struct{ host models.Host }

// HostsModel lists scanned hosts with their per-level counts.
type HostsModel struct {
	hosts  []models.Host
	width  int
	height int
	cursor int
	offset int
}

// NewHostsModel creates a HostsModel.
func NewHostsModel(hosts []models.Host) HostsModel {
	return HostsModel{hosts: hosts}
}

func (m HostsModel) Init() tea.Cmd { return nil }

func (m HostsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "j", "down":
		m.cursor++
	case "k", "up":
		m.cursor--
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.hosts) - 1
	case "enter":
		if len(m.hosts) > 0 {
			h := m.hosts[m.cursor]
			return m, func() tea.Msg { return hostSelectedMsg{host: h} }
		}
	}
	m = m.clamp()
	return m, nil
}

func (m *HostsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m HostsModel) pageSize() int {
	return max(5, m.height-8)
}

func (m HostsModel) clamp() HostsModel {
	if len(m.hosts) == 0 {
		m.cursor, m.offset = 0, 0
		return m
	}
	m.cursor = min(max(m.cursor, 0), len(m.hosts)-1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize() {
		m.offset = m.cursor - m.pageSize() + 1
	}
	return m
}

func (m HostsModel) View() string {
	rows := ""
	end := min(len(m.hosts), m.offset+m.pageSize())
	for i := m.offset; i < end; i++ {
		rows += m.renderRow(i, m.hosts[i])
	}
	if len(m.hosts) == 0 {
		rows = dimStyle.Render("No hosts in this scan.\n")
	}
	return panelStyle.Width(max(20, m.width-2)).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			panelHeaderStyle.Render(fmt.Sprintf("Hosts (%d)", len(m.hosts))),
			dimStyle.Render("  Worst      Hostname                        IP                Crit  High   Med   Low  Info"),
			rows,
			dimStyle.Render("j/k navigate  enter open findings"),
		),
	)
}

func (m HostsModel) renderRow(idx int, h models.Host) string {
	cursor := " "
	if idx == m.cursor {
		cursor = "▌"
	}
	counts := ""
	for _, s := range models.DrawOrder {
		counts += severityStyle(s).Width(6).Align(lipgloss.Right).Render(fmt.Sprintf("%d", h.Count(s)))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Left,
		lipgloss.NewStyle().Width(2).Foreground(accent).Render(cursor),
		severityBadge(aggregate.DominantSeverity(h)),
		" ",
		lipgloss.NewStyle().Width(32).Foreground(ink).Render(truncateRight(h.Hostname, 30)),
		lipgloss.NewStyle().Width(16).Foreground(slate).Render(h.IPAddress),
		counts,
	)
	if idx == m.cursor {
		return selectedRowStyle.Width(max(20, m.width-6)).Render(line) + "\n"
	}
	return line + "\n"
}
