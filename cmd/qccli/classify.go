package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Detect the product category of a title and description",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		if strings.TrimSpace(title+description) == "" {
			return fmt.Errorf("--title or --description is required")
		}

		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		category := engine.QC.Categorize(&domain.MergedProduct{
			Title:          title,
			Description:    description,
			Specifications: map[string]domain.SpecValue{},
		}, nil)
		if category == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "null")
			return nil
		}
		return printJSON(cmd.OutOrStdout(), category)
	},
}

func init() {
	classifyCmd.Flags().String("title", "", "product title")
	classifyCmd.Flags().String("description", "", "product description")

	rootCmd.AddCommand(classifyCmd)
}
