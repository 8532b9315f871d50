// Package main provides the medcontent CLI: the HTTP API server plus local compliance,
// auto-fix and scoring tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "medcontent",
	Short: "Medical blog content generation and advertising-law checks",
	Long: "medcontent rewrites raw medical information into blog posts in a clinic's voice, " +
		"checks them against medical advertising rules, auto-fixes violations and scores persuasiveness.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
