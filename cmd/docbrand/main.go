// Package main provides the entry point for the docbrand CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docbrand",
	Short: "Brand documents with a template's headers, footers, and styles",
	Long:  "docbrand composes branded documents by transplanting a template's headers, footers, styles, theme, and media into content documents, producing packages that open correctly in standard word-processing readers.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
