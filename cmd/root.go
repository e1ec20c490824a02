package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vulnbyhost",
	Short: "Turn Nessus scan exports into per-host HTML vulnerability reports",
	Long: `vulnbyhost reads a Nessus (.nessus) export, reclassifies every finding,
and writes a static HTML report: a dashboard with a severity pie chart and a
host table, plus one page per host listing its findings.

Get started:
  vulnbyhost report -i scan.nessus -c "Acme Corp"   Generate a report
  vulnbyhost browse -i scan.nessus                  Explore a scan in the terminal
  vulnbyhost history                                List earlier reports
  vulnbyhost config init                            Interactive setup`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ~/.vulnbyhost/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")

	rootCmd.Version = Version
	rootCmd.AddCommand(
		reportCmd,
		browseCmd,
		historyCmd,
		configCmd,
	)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("Verbose logging enabled")
	}
}
