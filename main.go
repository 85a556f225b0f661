package main

import (
	"github.com/spf13/cobra"

	"github.com/qtmuniao/bookwish/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bookwish",
		Short:         "Scrape a want-to-read book list and render it as a markdown shelf",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(fetchCmd(), renderCmd())

	if err := rootCmd.Execute(); err != nil {
		// Fatal exits non-zero.
		logger := log.NewLogger("main")
		logger.Fatal().Err(err).Msg("Run failed")
	}
}
