package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

// DashboardModel shows scan totals and which hosts carry each level.
type DashboardModel struct {
	scan   models.ScanAggregate
	bySev  map[models.Severity][]models.Host
	width  int
	height int
}

// NewDashboardModel creates a DashboardModel.
func NewDashboardModel(scan models.ScanAggregate) DashboardModel {
	return DashboardModel{scan: scan, bySev: aggregate.HostsBySeverity(scan)}
}

func (d *DashboardModel) SetSize(w, h int) {
	d.width = w
	d.height = h
}

func (d DashboardModel) View() string {
	cardW := 14
	if d.width >= 100 {
		cardW = 16
	}
	cards := make([]string, 0, models.NumSeverities)
	for _, s := range models.DrawOrder {
		cards = append(cards, renderCounter(s.Label(), d.scan.Counts[s], severityStyle(s), cardW))
	}
	summary := lipgloss.JoinHorizontal(lipgloss.Top, cards...)

	nameW := max(20, d.width-20)
	rows := make([]string, 0, models.NumSeverities)
	for _, s := range models.DrawOrder {
		hosts := d.bySev[s]
		names := make([]string, 0, len(hosts))
		for _, h := range hosts {
			names = append(names, h.Hostname)
		}
		list := dimStyle.Render("none")
		if len(names) > 0 {
			list = lipgloss.NewStyle().Foreground(ink).Render(truncateRight(strings.Join(names, ", "), nameW))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left, severityBadge(s), "  ", list))
	}

	header := fmt.Sprintf("%d hosts  %d findings", len(d.scan.Hosts), d.scan.Total())
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Padding(0, 1).Render(summary),
		panelStyle.Width(max(20, d.width-2)).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				panelHeaderStyle.Render("Hosts by Severity"),
				dimStyle.Render(header),
				"",
				strings.Join(rows, "\n"),
			),
		),
	)
}

func renderCounter(label string, count int, style lipgloss.Style, width int) string {
	return boxStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Center,
			style.Bold(true).Render(fmt.Sprintf("%d", count)),
			dimStyle.Render(strings.ToUpper(label)),
		),
	) + " "
}

func truncateRight(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
