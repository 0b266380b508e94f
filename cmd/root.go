package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fxreport/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "fxreport",
	Short: "fxreport - multi-currency invoice FX reporting",
	Long: `fxreport ingests a spreadsheet of multi-currency invoices, converts
every amount to USD using historical foreign-exchange rates, derives payment
status and aging, and renders the result as JSON, a CSV report, or a KPI
summary.

Input comes from a local CSV file or a Google Sheets worksheet. Historical
rates come from a Frankfurter-style HTTP source and fall back to a neutral
rate of 1 when the source is unreachable, so a batch always completes.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("fxreport executed")

		fmt.Println("Welcome to fxreport!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
