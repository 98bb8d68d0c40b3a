package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sneha-Offi/qc-backend-engine/internal/domain"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full QC analysis and print the result",
	Long: `Analyze scrapes the product page, parses any vendor files given with
--file and prints the complete analysis (merged product, category,
conflicts and QC report) as JSON. With --screenshot the product data comes
from an image file instead of the page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		productURL, _ := cmd.Flags().GetString("url")
		vendor, _ := cmd.Flags().GetString("vendor")
		paths, _ := cmd.Flags().GetStringSlice("file")
		screenshot, _ := cmd.Flags().GetBool("screenshot")

		files, err := readFiles(paths)
		if err != nil {
			return err
		}

		engine, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer engine.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		result, err := engine.QC.Analyze(ctx, &domain.AnalysisRequest{
			ProductURL:     productURL,
			VendorName:     vendor,
			ScreenshotMode: screenshot,
			Files:          files,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	analyzeCmd.Flags().String("url", "", "product page URL")
	analyzeCmd.Flags().String("vendor", "", "vendor name (required)")
	analyzeCmd.Flags().StringSlice("file", nil, "vendor PDF, spreadsheet, CSV or screenshot (repeatable)")
	analyzeCmd.Flags().Bool("screenshot", false, "read product data from an image file instead of the page")

	rootCmd.AddCommand(analyzeCmd)
}

// readFiles loads local files as uploads, guessing the MIME type from the extension
func readFiles(paths []string) ([]domain.UploadedFile, error) {
	files := make([]domain.UploadedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = mimeType[:i]
		}
		files = append(files, domain.UploadedFile{
			Filename: filepath.Base(p),
			MimeType: mimeType,
			Data:     data,
		})
	}
	return files, nil
}
