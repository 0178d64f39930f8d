package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "reportreel",
	Short:         "Turn financial reports into structured facts and short video scripts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the reportreel version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("reportreel version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		startCmd,
		stopCmd,
		statusCmd,
		versionCmd,
		configCmd,
		processCmd,
		runsCmd,
		runCmd,
		factsCmd,
		scriptsCmd,
		pauseCmd,
		resumeCmd,
		retryCmd,
		cancelCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
