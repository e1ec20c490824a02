// Package report assembles scan aggregates into dashboard and per-host HTML
// pages. It produces placeholder values and page content; writing files is
// left to the output package.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/internal/chart"
	"github.com/CosmoTheDev/vulnbyhost/internal/nessus"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

// Placeholder tokens understood by the page templates.
const (
	TokenTotalFindings = "|||TOTALFINDINGS|||"
	TokenCritical      = "|||TOTALCRITICAL|||"
	TokenHigh          = "|||TOTALHIGH|||"
	TokenMedium        = "|||TOTALMEDIUM|||"
	TokenLow           = "|||TOTALLOW|||"
	TokenInfo          = "|||TOTALINFORMATION|||"
	TokenCompany       = "|||COMPANYNAME|||"
	TokenFindings      = "|||REPLACEME|||"
	TokenHostname      = "|||HOSTNAME_IP|||"
	TokenPieChart      = "|||PIE-CHART|||"
	TokenCreated       = "|||TIMECREATED|||"
	TokenHostTable     = "|||TABLEREPLACE|||"
)

// infoSummaryLine is the dashboard list entry dropped when Info is hidden.
const infoSummaryLine = `<li style="font-size: 14px;">Total Info:&nbsp;<span class="spanFindings" style="font-size: 14px;">|||TOTALINFORMATION|||</span></li>`

// HostReportsDir is the folder, relative to the dashboard, that host pages
// are written to.
const HostReportsDir = "host_reports"

// CreatedLayout formats the scan creation time on the dashboard.
const CreatedLayout = "02/01/2006, 15:04:05"

var severityTokens = [models.NumSeverities]string{
	models.SeverityInfo:     TokenInfo,
	models.SeverityLow:      TokenLow,
	models.SeverityMedium:   TokenMedium,
	models.SeverityHigh:     TokenHigh,
	models.SeverityCritical: TokenCritical,
}

// Options carries run-level settings that are opaque to the core.
type Options struct {
	CustomerName  string
	CreatedAt     time.Time
	ShowInfo      bool
	ColumnsPerRow int
}

// Page is one rendered HTML document and its path relative to the report
// root.
type Page struct {
	Path    string
	Content string
}

// Report is the full set of pages for one scan.
type Report struct {
	Scan      models.ScanAggregate
	Dashboard Page
	Hosts     []Page
}

// Slug turns a hostname into a filename-safe stem.
func Slug(hostname string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(hostname)
}

// HostReportPath is the dashboard-relative link to a host's page.
func HostReportPath(hostname string) string {
	return HostReportsDir + "/" + Slug(hostname) + ".html"
}

// Collect aggregates every parsed host under policy. Errors for skipped
// findings are returned next to the aggregate.
func Collect(raw []nessus.RawHost, policy aggregate.Policy) (models.ScanAggregate, []error, error) {
	hosts := make([]models.Host, 0, len(raw))
	var skipped []error
	for _, rh := range raw {
		h, bad, err := aggregate.AggregateHost(rh.Name, rh.IP(), rh.Records(), policy)
		if err != nil {
			return models.ScanAggregate{}, nil, err
		}
		h.StartedAt = rh.StartedAt()
		h.EndedAt = rh.EndedAt()
		skipped = append(skipped, bad...)
		hosts = append(hosts, h)
	}
	return aggregate.AggregateScan(hosts), skipped, nil
}

// Build renders the dashboard and one page per host.
func Build(scan models.ScanAggregate, opts Options) (*Report, error) {
	scan.Hosts = slices.Clone(scan.Hosts)
	for i := range scan.Hosts {
		scan.Hosts[i].ReportPath = HostReportPath(scan.Hosts[i].Hostname)
	}

	hostTmpl, err := readTemplate(hostTemplate)
	if err != nil {
		return nil, err
	}
	// Host pages live one level down from the shared assets folder.
	hostTmpl = strings.ReplaceAll(hostTmpl, "assets/", "../assets/")
	dashTmpl, err := readTemplate(dashboardTemplate)
	if err != nil {
		return nil, err
	}

	rep := &Report{Scan: scan, Hosts: make([]Page, 0, len(scan.Hosts))}
	owners := make(map[string]string, len(scan.Hosts))
	for _, h := range scan.Hosts {
		if prev, ok := owners[h.ReportPath]; ok {
			slog.Warn("Host page path collision, later host overwrites earlier page",
				"path", h.ReportPath, "host", h.Hostname, "previous", prev)
		}
		owners[h.ReportPath] = h.Hostname

		values, err := HostValues(h, opts)
		if err != nil {
			return nil, err
		}
		rep.Hosts = append(rep.Hosts, Page{Path: h.ReportPath, Content: Substitute(values, hostTmpl)})
	}

	values, err := DashboardValues(scan, opts)
	if err != nil {
		return nil, err
	}
	rep.Dashboard = Page{Path: "index.html", Content: Substitute(values, dashTmpl)}
	return rep, nil
}

// HostValues returns the placeholder mapping for one host page.
func HostValues(h models.Host, opts Options) (map[string]string, error) {
	markup, err := FindingsMarkup(h)
	if err != nil {
		return nil, err
	}
	values := countValues(h.Counts)
	values[TokenCompany] = template.HTMLEscapeString(opts.CustomerName)
	values[TokenHostname] = template.HTMLEscapeString(strings.ToUpper(h.Hostname))
	values[TokenFindings] = markup
	values[TokenPieChart] = pieOrPlaceholder(h.Hostname, h.Counts)
	return values, nil
}

// DashboardValues returns the placeholder mapping for the scan dashboard.
func DashboardValues(scan models.ScanAggregate, opts Options) (map[string]string, error) {
	table, err := HostTableMarkup(scan.Hosts, opts.ColumnsPerRow)
	if err != nil {
		return nil, err
	}

	display := scan.Counts
	values := countValues(display)
	if !opts.ShowInfo {
		display = scan.WithoutInfo()
		values[infoSummaryLine] = ""
	}
	values[TokenTotalFindings] = strconv.Itoa(display.Total())
	values[TokenCompany] = template.HTMLEscapeString(opts.CustomerName)
	values[TokenCreated] = opts.CreatedAt.Format(CreatedLayout)
	values[TokenHostTable] = table
	values[TokenPieChart] = pieOrPlaceholder("dashboard", display)
	return values, nil
}

func countValues(c models.Counts) map[string]string {
	values := make(map[string]string, 16)
	for _, s := range models.Severities {
		values[severityTokens[s]] = strconv.Itoa(c[s])
	}
	values[TokenTotalFindings] = strconv.Itoa(c.Total())
	return values
}

// pieOrPlaceholder never asks the renderer to chart an all-zero set, and
// degrades to the placeholder image rather than failing the page.
func pieOrPlaceholder(subject string, c models.Counts) string {
	if c.Total() == 0 {
		return chart.Placeholder()
	}
	svg, err := chart.RenderPie(c)
	if err != nil {
		slog.Warn("Pie chart render failed, using placeholder", "subject", subject, "error", err)
		return chart.Placeholder()
	}
	return svg
}

type findingView struct {
	ID           int
	Severity     string
	Label        string
	PluginName   string
	Synopsis     string
	Solution     string
	Description  string
	PluginOutput string
	IPAddress    string
	Port         string
	Protocol     string
	ServiceName  string
	Score        string
}

// FindingsMarkup renders the host's findings, most severe first.
func FindingsMarkup(h models.Host) (string, error) {
	var buf bytes.Buffer
	for i, f := range aggregate.SortFindingsForDisplay(h.Findings) {
		v := findingView{
			ID:           i,
			Severity:     f.Severity.String(),
			Label:        strings.ToUpper(f.Severity.Label()),
			PluginName:   f.PluginName,
			Synopsis:     f.Synopsis,
			Solution:     f.Solution,
			Description:  f.Description,
			PluginOutput: strings.ReplaceAll(f.PluginOutput, "`n", "\n"),
			IPAddress:    h.IPAddress,
			Port:         f.Port,
			Protocol:     f.Protocol,
			ServiceName:  f.ServiceName,
		}
		if f.CVSS3Score != nil {
			v.Score = strconv.FormatFloat(*f.CVSS3Score, 'f', 1, 64)
		}
		if err := fragments.ExecuteTemplate(&buf, "finding", v); err != nil {
			return "", fmt.Errorf("rendering finding %q: %w", f.PluginName, err)
		}
	}
	return buf.String(), nil
}

type cellView struct {
	Class      string
	Hostname   string
	ReportPath string
}

// HostTableMarkup renders the dashboard host grid, each cell styled by the
// host's dominant severity.
func HostTableMarkup(hosts []models.Host, columnsPerRow int) (string, error) {
	rows, err := aggregate.Tabulate(hosts, columnsPerRow)
	if err != nil {
		return "", err
	}
	views := make([][]cellView, len(rows))
	for i, row := range rows {
		views[i] = make([]cellView, len(row))
		for j, c := range row {
			views[i][j] = cellView{
				Class:      c.Severity.String() + "bg",
				Hostname:   c.Hostname,
				ReportPath: c.ReportPath,
			}
		}
	}
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, "hosttable", views); err != nil {
		return "", fmt.Errorf("rendering host table: %w", err)
	}
	return buf.String(), nil
}
