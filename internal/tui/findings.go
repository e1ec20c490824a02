package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

var filterKeys = map[string]models.Severity{
	"c": models.SeverityCritical,
	"h": models.SeverityHigh,
	"m": models.SeverityMedium,
	"l": models.SeverityLow,
	"i": models.SeverityInfo,
}

// FindingsModel displays one host's findings with a severity filter and a
// detail pane for the selected finding.
type FindingsModel struct {
	host     *models.Host
	findings []models.Finding // sorted most severe first
	filter   *models.Severity
	width    int
	height   int
	cursor   int
	detail   bool
}

// NewFindingsModel creates an empty FindingsModel.
func NewFindingsModel() FindingsModel {
	return FindingsModel{}
}

// ShowHost switches the view to h and resets the cursor and filter.
func (f FindingsModel) ShowHost(h models.Host) FindingsModel {
	f.host = &h
	f.findings = aggregate.SortFindingsForDisplay(h.Findings)
	f.filter = nil
	f.cursor = 0
	f.detail = false
	return f
}

func (f FindingsModel) Init() tea.Cmd { return nil }

func (f FindingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}
	switch k := key.String(); k {
	case "j", "down":
		f.cursor++
	case "k", "up":
		f.cursor--
	case "enter", " ":
		f.detail = !f.detail
	case "esc":
		f.detail = false
	case "0":
		f.filter = nil
		f.cursor = 0
	default:
		if s, ok := filterKeys[k]; ok {
			f.filter = &s
			f.cursor = 0
		}
	}
	f.cursor = min(max(f.cursor, 0), max(0, len(f.visible())-1))
	return f, nil
}

func (f *FindingsModel) SetSize(w, h int) {
	f.width = w
	f.height = h
}

func (f FindingsModel) visible() []models.Finding {
	if f.filter == nil {
		return f.findings
	}
	out := make([]models.Finding, 0, len(f.findings))
	for _, fd := range f.findings {
		if fd.Severity == *f.filter {
			out = append(out, fd)
		}
	}
	return out
}

// Selected returns the finding under the cursor.
func (f FindingsModel) Selected() (models.Finding, bool) {
	v := f.visible()
	if len(v) == 0 {
		return models.Finding{}, false
	}
	return v[f.cursor], true
}

func (f FindingsModel) View() string {
	width := max(20, f.width-2)
	if f.host == nil {
		return panelStyle.Width(width).Render(
			dimStyle.Render("Pick a host on the Hosts tab and press enter."),
		)
	}

	if f.detail {
		if fd, ok := f.Selected(); ok {
			return f.renderDetail(fd, width)
		}
	}

	visible := f.visible()
	limit := max(5, f.height-10)
	start := max(0, f.cursor-limit+1)
	rows := ""
	for i := start; i < len(visible) && i < start+limit; i++ {
		rows += f.renderRow(i, visible[i])
	}
	if rows == "" {
		rows = dimStyle.Render("No findings at this level.\n")
	}

	chips := []string{f.filterChip("All", nil, len(f.findings), "0")}
	for _, s := range models.DrawOrder {
		chips = append(chips, " ", f.filterChip(s.Label(), &s, f.host.Count(s), strings.ToLower(s.Label()[:1])))
	}

	title := f.host.Hostname
	if f.host.IPAddress != "" && f.host.IPAddress != f.host.Hostname {
		title += " (" + f.host.IPAddress + ")"
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			panelHeaderStyle.Render(title),
			lipgloss.JoinHorizontal(lipgloss.Left, chips...),
			"",
			dimStyle.Render("  Severity   Port          Finding"),
			rows,
			"",
			dimStyle.Render("j/k navigate  enter details  c/h/m/l/i filter  0 all"),
		),
	)
}

func (f FindingsModel) renderRow(idx int, fd models.Finding) string {
	cursor := " "
	if idx == f.cursor {
		cursor = "▌"
	}
	port := fd.Port + "/" + fd.Protocol
	line := lipgloss.JoinHorizontal(lipgloss.Left,
		lipgloss.NewStyle().Width(2).Foreground(accent).Render(cursor),
		severityBadge(fd.Severity),
		" ",
		lipgloss.NewStyle().Width(14).Foreground(slate).Render(port),
		lipgloss.NewStyle().Foreground(ink).Render(truncateRight(fd.PluginName, max(20, f.width-34))),
	)
	if idx == f.cursor {
		return selectedRowStyle.Width(max(20, f.width-6)).Render(line) + "\n"
	}
	return line + "\n"
}

func (f FindingsModel) renderDetail(fd models.Finding, width int) string {
	textW := max(20, width-6)
	field := func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			panelHeaderStyle.Render(label),
			lipgloss.NewStyle().Width(textW).Foreground(ink).Render(cleanText(value)),
			"",
		)
	}
	score := "n/a"
	if fd.CVSS3Score != nil {
		score = fmt.Sprintf("%.1f", *fd.CVSS3Score)
	}
	meta := fmt.Sprintf("%s/%s/%s  CVSSv3 %s  plugin %s", fd.Port, fd.Protocol, fd.ServiceName, score, fd.PluginID)
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Left, severityBadge(fd.Severity), " ", panelHeaderStyle.Render(fd.PluginName)),
			dimStyle.Render(meta),
			"",
			field("Synopsis", fd.Synopsis),
			field("Solution", fd.Solution),
			field("Description", fd.Description),
			field("Output", fd.PluginOutput),
			dimStyle.Render("enter/esc back"),
		),
	)
}

func (f FindingsModel) filterChip(label string, sev *models.Severity, count int, key string) string {
	text := fmt.Sprintf("%s %d", label, count)
	active := (sev == nil && f.filter == nil) || (sev != nil && f.filter != nil && *sev == *f.filter)
	if active {
		return activeTabStyle.Render(text)
	}
	return tabStyle.Render(text + " [" + key + "]")
}

// cleanText turns the literal "`n" line breaks found in scanner output into
// real ones.
func cleanText(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "`n", "\n")
}
