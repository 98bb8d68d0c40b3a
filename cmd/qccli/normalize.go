package main

import (
	"github.com/spf13/cobra"

	"github.com/Sneha-Offi/qc-backend-engine/internal/usecase"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize KEY...",
	Short: "Show the canonical form of raw attribute names",
	Long: `Normalize prints each raw attribute name with its canonical key. Names
the engine discards (navigation text, prices, URLs) map to null.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalizer := usecase.NewKeyNormalizer(false)

		out := make(map[string]interface{}, len(args))
		for _, raw := range args {
			if key, ok := normalizer.Normalize(raw); ok {
				out[raw] = key
			} else {
				out[raw] = nil
			}
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}
