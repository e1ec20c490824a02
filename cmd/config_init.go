package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/vulnbyhost/internal/config"
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard for vulnbyhost",
	Long: `Walks you through the report defaults, where history is stored and
where "report generated" notifications are sent, then writes the config file.`,
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(headerStyle.Render("  vulnbyhost · setup"))

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// --- Step 1: Report defaults ---
	fmt.Println(headerStyle.Render("  Step 1/3 · Report defaults"))
	columns := strconv.Itoa(cfg.Report.ColumnsPerRow)
	reportForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default customer name").
				Description("Shown on every page. The -c flag overrides it.").
				Value(&cfg.Report.CustomerName),
			huh.NewInput().
				Title("Output directory").
				Description("Report folders are created inside this directory.").
				Value(&cfg.Report.OutputDir),
			huh.NewInput().
				Title("Hosts per table row").
				Value(&columns).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return fmt.Errorf("enter a whole number of at least 1")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Show informational findings on the dashboard?").
				Value(&cfg.Report.ShowInfo),
			huh.NewSelect[string]().
				Title("When a finding cannot be read or classified").
				Options(
					huh.NewOption("Skip it and log a warning", "skip"),
					huh.NewOption("Abort the report", "abort"),
				).
				Value(&cfg.Report.OnInvalidFinding),
		),
	)
	if err := reportForm.Run(); err != nil {
		return err
	}
	cfg.Report.ColumnsPerRow, _ = strconv.Atoi(strings.TrimSpace(columns))

	// --- Step 2: History ---
	fmt.Println(headerStyle.Render("\n  Step 2/3 · Report history"))
	historyForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("History database").
				Options(
					huh.NewOption("SQLite file (local)", "sqlite"),
					huh.NewOption("MySQL (shared)", "mysql"),
				).
				Value(&cfg.Database.Driver),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SQLite path").
				Value(&cfg.Database.Path),
		).WithHideFunc(func() bool { return cfg.Database.Driver != "sqlite" }),
		huh.NewGroup(
			huh.NewInput().
				Title("MySQL DSN").
				Placeholder("user:pass@tcp(db:3306)/vulnbyhost").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Database.DSN),
		).WithHideFunc(func() bool { return cfg.Database.Driver != "mysql" }),
	)
	if err := historyForm.Run(); err != nil {
		return err
	}

	// --- Step 3: Notifications ---
	fmt.Println(headerStyle.Render("\n  Step 3/3 · Notifications (optional)"))
	notifyForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Slack incoming webhook URL").
				Placeholder("https://hooks.slack.com/services/...  (optional)").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Notify.Slack.WebhookURL),
			huh.NewInput().
				Title("Generic webhook URL").
				Placeholder("https://example.com/hooks/vulnbyhost  (optional)").
				Value(&cfg.Notify.Webhook.URL),
			huh.NewInput().
				Title("Webhook signing secret").
				Description("Deliveries carry an X-Vulnbyhost-Signature HMAC-SHA256 header when set.").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Notify.Webhook.Secret),
			huh.NewSelect[string]().
				Title("Only notify when the scan has findings at or above").
				Options(
					huh.NewOption("Always notify", ""),
					huh.NewOption("Critical", "critical"),
					huh.NewOption("High", "high"),
					huh.NewOption("Medium", "medium"),
					huh.NewOption("Low", "low"),
				).
				Value(&cfg.Notify.MinSeverity),
		),
	)
	if err := notifyForm.Run(); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := config.ConfigPath(cfgFile)
	if err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println(successStyle.Render("\n  Saved " + path))
	fmt.Println(dimStyle.Render("  Next: vulnbyhost report -i scan.nessus -c \"" + cfg.Report.CustomerName + "\""))
	return nil
}
