// Package main provides the CLI entry point for visor.
// All command logic lives in cmd/visor/commands.
package main

import (
	"fmt"
	"os"

	"github.com/codcod/visor/cmd/visor/commands/review"

	"github.com/spf13/cobra"
)

var (
	// Version information - set via build flags, with environment variable
	// fallback, the same two-stage scheme the teacher's cmd/repos uses.
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func init() {
	if version == "dev" {
		version = getEnvOrDefault("VERSION", version)
	}
	if commit == "unknown" {
		commit = getEnvOrDefault("COMMIT", commit)
	}
	if date == "unknown" {
		date = getEnvOrDefault("BUILD_DATE", date)
	}
}

var rootCmd = &cobra.Command{
	Use:   "visor",
	Short: "An AI-assisted code review pipeline",
	Long:  `Runs a configured check graph against a triggering event and reports issues.`,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "visor.yaml", "config file path")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(review.NewCommand())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("visor %s (%s) built on %s\n", version, commit, date)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
