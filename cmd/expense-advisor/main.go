package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagPort    string
	flagConfig  string
	flagEnvFile string
)

var rootCmd = &cobra.Command{
	Use:           "expense-advisor",
	Short:         "Expense Advisor web app",
	Long:          "Serve the Expense Advisor: log expenses per browser session, compare them with a monthly budget, chart and export them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file (default $CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.Flags().StringVarP(&flagPort, "port", "p", "", "listen port, overrides PORT")

	rootCmd.AddCommand(configCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("expense-advisor: " + err.Error() + "\n")
		os.Exit(1)
	}
}
