// Package main provides the portfolio_agent CLI: it ingests a user's sources, runs portfolio
// generation and serves the generation API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio_agent",
	Short: "Portfolio generation pipeline",
	Long:  "portfolio_agent turns a developer's GitHub repositories, resume and LinkedIn export into generated portfolio content, scores it and coaches on the gaps.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
