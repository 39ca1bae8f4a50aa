package cmd

import (
	"fmt"
	"os"

	"predicta/cmd/handlers"
	"predicta/internal/config"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "predicta",
	Short: "Predicta is an AI-driven geopolitical and financial intelligence service.",
	Long: `Predicta generates structured intelligence reports from a schema-constrained
LLM backend and serves them alongside market, news and prediction data.

Run 'predicta serve' to start the dashboard API, 'predicta scan' for a
one-shot intelligence feed, or 'predicta simulate' to run a hypothetical
scenario.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.predicta.yaml)")

	rootCmd.AddCommand(handlers.NewServeCmd())
	rootCmd.AddCommand(handlers.NewScanCmd())
	rootCmd.AddCommand(handlers.NewSimulateCmd())
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
