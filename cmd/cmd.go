package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "projecthub",
	Short:        "Project management backend",
	Long:         "projecthub serves the project, task, payment and notification API and ships the\nmaintenance commands that run against the same database.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; values in it override the process environment.
		if err := godotenv.Overload(); err != nil {
			slog.Debug("No .env file loaded", slog.Any("error", err))
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
