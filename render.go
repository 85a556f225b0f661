package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/qtmuniao/bookwish/book"
	"github.com/qtmuniao/bookwish/cover"
	"github.com/qtmuniao/bookwish/log"
	"github.com/qtmuniao/bookwish/render"
	"github.com/qtmuniao/bookwish/store"
)

func renderCmd() *cobra.Command {
	var (
		output       string
		columns      int
		imgDir       string
		skipDownload bool
		palette      render.Palette
	)

	cmd := &cobra.Command{
		Use:   "render <json_path>",
		Short: "Render a wishlist JSON file into a styled markdown table with local covers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonPath := args[0]
			logger := log.NewLogger("render")

			records, err := book.Load(jsonPath)
			if err != nil {
				return err
			}

			downloader := cover.NewDownloader(store.NewImageStore(imgDir))
			result, err := downloader.Run(cmd.Context(), records, skipDownload)
			if err != nil {
				return err
			}

			if result.Reused > 0 {
				logger.Info().Int("covers", result.Reused).Str("dir", imgDir).Msg("Reused existing covers")
			}
			if result.Downloaded > 0 {
				logger.Info().Int("covers", result.Downloaded).Str("dir", imgDir).Msg("Downloaded covers")
			}
			for _, rec := range result.Failed {
				logger.Warn().Str("title", rec.Title).Str("url", rec.URL).Msg("Cover failed to download")
			}

			doc, err := render.Document(records, result.Local, render.Config{
				Columns:  columns,
				ImageDir: imgDir,
				Palette:  palette,
			})
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = strings.TrimSuffix(jsonPath, ".json") + ".md"
			}
			if err := render.WriteDocument(path, doc); err != nil {
				return err
			}

			logger.Info().
				Str("path", path).
				Int("books", len(records)).
				Int("localCovers", len(result.Local)).
				Int("failed", len(result.Failed)).
				Msg("Saved markdown")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output markdown path. Defaults to the JSON basename with .md.")
	cmd.Flags().IntVar(&columns, "columns", 3, "Number of columns in the table.")
	cmd.Flags().StringVar(&imgDir, "img-dir", "img", "Directory to store downloaded covers.")
	cmd.Flags().BoolVar(&skipDownload, "skip-download", false, "Skip downloading covers; cells without a local file render the placeholder.")
	cmd.Flags().StringVar(&palette.Primary, "primary-color", render.DefaultPalette.Primary, "Primary accent color.")
	cmd.Flags().StringVar(&palette.Background, "bg-color", render.DefaultPalette.Background, "Page background color.")
	cmd.Flags().StringVar(&palette.CardBackground, "card-bg", render.DefaultPalette.CardBackground, "Card background color.")
	cmd.Flags().StringVar(&palette.Text, "text-color", render.DefaultPalette.Text, "Text color.")
	cmd.Flags().StringVar(&palette.Muted, "muted-color", render.DefaultPalette.Muted, "Muted text color.")

	return cmd
}
