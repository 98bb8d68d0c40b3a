// Package main is the qccli command: it runs QC analyses, category
// detection and key normalization from the terminal using the same
// components as the HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sneha-Offi/qc-backend-engine/config"
	"github.com/Sneha-Offi/qc-backend-engine/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "qccli",
	Short: "Quality-check B2B product listings from the command line",
	Long: `qccli runs the product QC engine without the HTTP server. It scrapes a
product page, parses vendor PDFs and spreadsheets, detects the category and
prints the conflict evaluation and QC report as JSON.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log progress to stderr")
}

// loadEngine reads the configuration named by --config and wires the engine
func loadEngine(cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.New(cfg)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	log.SetFlags(log.Ltime)
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
