package main

import (
	"github.com/spf13/cobra"

	"github.com/dukerupert/notepad/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:     "notepad",
	Short:   "Passkey-protected note pad web app",
	Long:    "Serves a note pad backed by a remote notes API.\n\nEnvironment:\n" + config.Usage(),
	Version: version,
	// Running with no subcommand serves.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, hashPasskeyCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
