package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/CosmoTheDev/vulnbyhost/internal/config"
	"github.com/CosmoTheDev/vulnbyhost/internal/database"
	"github.com/CosmoTheDev/vulnbyhost/internal/history"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

var (
	historyLimit  int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List earlier reports, or the hosts of one report",
	Long: `Without arguments lists the most recent report runs. With a run id prints
that run's per-host summary, worst hosts first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
	historyCmd.Flags().StringVar(&historyFormat, "format", "table", "Output format: table|json|yaml")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if !validFormat(historyFormat) {
		return fmt.Errorf("unknown format %q (want table, json or yaml)", historyFormat)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	store := history.NewStore(db)
	w := cmd.OutOrStdout()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		run, err := store.Run(ctx, id)
		if err != nil {
			return err
		}
		hosts, err := store.Hosts(ctx, id)
		if err != nil {
			return err
		}
		if historyFormat != "table" {
			return encode(w, historyFormat, struct {
				Run   models.ReportRun     `json:"run"   yaml:"run"`
				Hosts []models.HostSummary `json:"hosts" yaml:"hosts"`
			}{run, hosts})
		}
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Run %d · %s", run.ID, run.InputFile)))
		fmt.Fprintln(w, dimStyle.Render(run.ReportDir))
		fmt.Fprintln(w, hostSummaryTable(hosts))
		return nil
	}

	runs, err := store.Runs(ctx, historyLimit)
	if err != nil {
		return err
	}
	if historyFormat != "table" {
		return encode(w, historyFormat, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No reports recorded yet. Run: vulnbyhost report -i <file.nessus> -c <customer>"))
		return nil
	}
	fmt.Fprintln(w, runsTable(runs))
	return nil
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runsTable(runs []models.ReportRun) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Generated", "Customer", "Hosts", "Critical", "High", "Medium", "Low", "Skipped")
	for _, r := range runs {
		when := r.GeneratedAt
		if ts, err := time.Parse(time.RFC3339, r.GeneratedAt); err == nil {
			when = humanize.Time(ts)
		}
		t.Row(
			strconv.FormatInt(r.ID, 10), when, r.CustomerName, strconv.Itoa(r.HostCount),
			strconv.Itoa(r.TotalCritical), strconv.Itoa(r.TotalHigh),
			strconv.Itoa(r.TotalMedium), strconv.Itoa(r.TotalLow), strconv.Itoa(r.Skipped),
		)
	}
	sevCols := map[int]models.Severity{
		4: models.SeverityCritical, 5: models.SeverityHigh, 6: models.SeverityMedium, 7: models.SeverityLow,
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		st := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return st.Bold(true)
		}
		if sev, ok := sevCols[col]; ok {
			return st.Inherit(severityText(sev))
		}
		return st
	})
	return t.Render()
}

func hostSummaryTable(hosts []models.HostSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("Host", "IP", "Worst", "Critical", "High", "Medium", "Low", "Info")
	for _, h := range hosts {
		t.Row(h.Hostname, h.IPAddress, h.Dominant,
			strconv.Itoa(h.TotalCritical), strconv.Itoa(h.TotalHigh), strconv.Itoa(h.TotalMedium),
			strconv.Itoa(h.TotalLow), strconv.Itoa(h.TotalInfo))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		st := lipgloss.NewStyle().Padding(0, 1)
		switch {
		case row == table.HeaderRow:
			return st.Bold(true)
		case col == 2 && row < len(hosts):
			if sev, err := models.ParseSeverity(hosts[row].Dominant); err == nil {
				return st.Inherit(severityText(sev))
			}
		}
		return st
	})
	return t.Render()
}
