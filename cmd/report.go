package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/internal/config"
	"github.com/CosmoTheDev/vulnbyhost/internal/database"
	"github.com/CosmoTheDev/vulnbyhost/internal/history"
	"github.com/CosmoTheDev/vulnbyhost/internal/nessus"
	"github.com/CosmoTheDev/vulnbyhost/internal/notify"
	"github.com/CosmoTheDev/vulnbyhost/internal/output"
	"github.com/CosmoTheDev/vulnbyhost/internal/report"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

var (
	reportInput     string
	reportCustomer  string
	reportOutputDir string
	reportShowInfo  bool
	reportColumns   int
	reportFormat    string
	reportNoHistory bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an HTML report from a Nessus export",
	Long: `Parses a .nessus file, reclassifies each finding (anything scoring above
8.9 on CVSSv3 is treated as Critical) and writes a report folder containing
index.html, host_reports/ and assets/.

Examples:
  vulnbyhost report -i scan.nessus -c "Acme Corp"
  vulnbyhost report -i scan.nessus -c Acme -o ./reports --show-info
  vulnbyhost report -i scan.nessus -c Acme --format json`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportInput, "input-file", "i", "", "Nessus export to read (required)")
	reportCmd.Flags().StringVarP(&reportCustomer, "customer-name", "c", "", "Customer name shown on every page")
	reportCmd.Flags().StringVarP(&reportOutputDir, "output-dir", "o", "", "Directory the report folder is created in (overrides config)")
	reportCmd.Flags().BoolVar(&reportShowInfo, "show-info", false, "Keep informational findings on the dashboard")
	reportCmd.Flags().IntVar(&reportColumns, "columns", 0, "Hosts per row in the dashboard table (overrides config)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "table", "Summary format: table|json|yaml")
	reportCmd.Flags().BoolVar(&reportNoHistory, "no-history", false, "Do not record this run in the history database")
	_ = reportCmd.MarkFlagRequired("input-file")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyReportFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !validFormat(reportFormat) {
		return fmt.Errorf("unknown format %q (want table, json or yaml)", reportFormat)
	}

	mode, err := aggregate.ParseMode(cfg.Report.OnInvalidFinding)
	if err != nil {
		return err
	}
	policy := aggregate.Policy{OnInvalid: mode, RequireFindings: cfg.Report.RequireFindings}

	info, err := os.Stat(reportInput)
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	slog.Info("Parsing scan", "file", reportInput, "customer", cfg.Report.CustomerName)
	raw, err := nessus.ParseFile(reportInput)
	if err != nil {
		return err
	}

	scan, skipped, err := report.Collect(raw, policy)
	if err != nil {
		return fmt.Errorf("aggregating findings: %w", err)
	}

	rep, err := report.Build(scan, report.Options{
		CustomerName:  cfg.Report.CustomerName,
		CreatedAt:     info.ModTime(),
		ShowInfo:      cfg.Report.ShowInfo,
		ColumnsPerRow: cfg.Report.ColumnsPerRow,
	})
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	dir, err := output.NewWriter(cfg.Report.OutputDir).Write(rep, cfg.Report.CustomerName)
	if err != nil {
		return err
	}

	if !reportNoHistory {
		recordHistory(ctx, cfg.Database, history.Entry{
			InputFile:    reportInput,
			CustomerName: cfg.Report.CustomerName,
			ReportDir:    dir,
			ScanCreated:  info.ModTime(),
			Skipped:      len(skipped),
			Scan:         rep.Scan,
		})
	}

	if d := notify.NewDispatcher(cfg.Notify); d.IsAnyConfigured() {
		d.Notify(ctx, notify.ReportEvent(rep.Scan, cfg.Report.CustomerName, dir))
	}

	sum := newRunSummary(reportInput, cfg.Report.CustomerName, dir, rep.Scan, len(skipped))
	return writeSummary(cmd.OutOrStdout(), sum, reportFormat)
}

// applyReportFlags lets explicitly set flags win over the config file.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("customer-name") {
		cfg.Report.CustomerName = reportCustomer
	}
	if f.Changed("output-dir") {
		cfg.Report.OutputDir = reportOutputDir
	}
	if f.Changed("show-info") {
		cfg.Report.ShowInfo = reportShowInfo
	}
	if f.Changed("columns") {
		cfg.Report.ColumnsPerRow = reportColumns
	}
}

// recordHistory stores the run. Failures are logged, never fatal: the report
// is already on disk.
func recordHistory(ctx context.Context, dbCfg config.DatabaseConfig, e history.Entry) {
	db, err := database.New(dbCfg)
	if err != nil {
		slog.Warn("History disabled", "error", err)
		return
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Warn("History disabled", "error", err)
		return
	}
	if _, err := history.NewStore(db).Record(ctx, e); err != nil {
		slog.Warn("Recording history failed", "error", err)
	}
}

func validFormat(f string) bool {
	return f == "table" || f == "json" || f == "yaml"
}

type hostLine struct {
	Hostname  string         `json:"hostname"    yaml:"hostname"`
	IPAddress string         `json:"ip_address"  yaml:"ip_address"`
	Worst     string         `json:"worst"       yaml:"worst"`
	Counts    map[string]int `json:"counts"      yaml:"counts"`
	Total     int            `json:"total"       yaml:"total"`
	Page      string         `json:"report_path" yaml:"report_path"`
}

type runSummary struct {
	InputFile string         `json:"input_file"  yaml:"input_file"`
	Customer  string         `json:"customer"    yaml:"customer"`
	ReportDir string         `json:"report_dir"  yaml:"report_dir"`
	Counts    map[string]int `json:"counts"      yaml:"counts"`
	Total     int            `json:"total"       yaml:"total"`
	Skipped   int            `json:"skipped"     yaml:"skipped"`
	Hosts     []hostLine     `json:"hosts"       yaml:"hosts"`

	scan models.ScanAggregate
}

func newRunSummary(input, customer, dir string, scan models.ScanAggregate, skipped int) runSummary {
	s := runSummary{
		InputFile: input,
		Customer:  customer,
		ReportDir: dir,
		Counts:    countsMap(scan.Counts),
		Total:     scan.Total(),
		Skipped:   skipped,
		Hosts:     make([]hostLine, 0, len(scan.Hosts)),
		scan:      scan,
	}
	for _, h := range scan.Hosts {
		s.Hosts = append(s.Hosts, hostLine{
			Hostname:  h.Hostname,
			IPAddress: h.IPAddress,
			Worst:     aggregate.DominantSeverity(h).String(),
			Counts:    countsMap(h.Counts),
			Total:     h.Total,
			Page:      h.ReportPath,
		})
	}
	return s
}

func countsMap(c models.Counts) map[string]int {
	m := make(map[string]int, models.NumSeverities)
	for _, s := range models.Severities {
		m[s.String()] = c[s]
	}
	return m
}

func writeSummary(w io.Writer, s runSummary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(s)
	}

	fmt.Fprintln(w, headerStyle.Render("=== Report Generated ==="))
	fmt.Fprintf(w, "Input:    %s\n", s.InputFile)
	if s.Customer != "" {
		fmt.Fprintf(w, "Customer: %s\n", s.Customer)
	}
	fmt.Fprintf(w, "Hosts:    %d\n\n", len(s.Hosts))

	fmt.Fprintln(w, hostTable(s.scan))

	totals := make([]string, 0, models.NumSeverities)
	for _, sev := range models.DrawOrder {
		totals = append(totals, severityText(sev).Render(fmt.Sprintf("%s: %d", sev.Label(), s.scan.Counts[sev])))
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Left, joinWith(totals, "  ")...))
	if s.Skipped > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d findings skipped (run with -v for details)", s.Skipped)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render("Report written to "+s.ReportDir))
	return nil
}

func hostTable(scan models.ScanAggregate) string {
	headers := []string{"Host", "IP"}
	for _, sev := range models.DrawOrder {
		headers = append(headers, sev.Label())
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...)
	for _, h := range scan.Hosts {
		row := []string{h.Hostname, h.IPAddress}
		for _, sev := range models.DrawOrder {
			row = append(row, fmt.Sprintf("%d", h.Count(sev)))
		}
		t.Row(row...)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		st := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return st.Bold(true)
		}
		if col >= 2 {
			return st.Inherit(severityText(models.DrawOrder[col-2])).Align(lipgloss.Right)
		}
		return st
	})
	return t.Render()
}

func joinWith(parts []string, sep string) []string {
	out := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
