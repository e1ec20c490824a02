package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/vulnbyhost/internal/aggregate"
	"github.com/CosmoTheDev/vulnbyhost/internal/config"
	"github.com/CosmoTheDev/vulnbyhost/internal/database"
	"github.com/CosmoTheDev/vulnbyhost/internal/history"
	"github.com/CosmoTheDev/vulnbyhost/internal/nessus"
	"github.com/CosmoTheDev/vulnbyhost/internal/report"
	"github.com/CosmoTheDev/vulnbyhost/internal/tui"
)

var browseInput string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Explore a Nessus export in the terminal",
	Long:  `Opens an interactive terminal browser over a scan's hosts and findings, plus the report history.`,
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVarP(&browseInput, "input-file", "i", "", "Nessus export to read (required)")
	_ = browseCmd.MarkFlagRequired("input-file")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	raw, err := nessus.ParseFile(browseInput)
	if err != nil {
		return err
	}
	// Browsing never aborts on a bad finding; skipped ones are logged.
	scan, _, err := report.Collect(raw, aggregate.Policy{OnInvalid: aggregate.SkipInvalid})
	if err != nil {
		return err
	}

	var store *history.Store
	db, err := database.New(cfg.Database)
	if err != nil {
		slog.Warn("History unavailable", "error", err)
	} else {
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			slog.Warn("History unavailable", "error", err)
		} else {
			store = history.NewStore(db)
		}
	}

	app := tui.NewApp(browseInput, scan, store)
	return app.Run()
}
