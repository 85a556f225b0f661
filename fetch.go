package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qtmuniao/bookwish/book"
	"github.com/qtmuniao/bookwish/log"
	"github.com/qtmuniao/bookwish/scrape"
)

func fetchCmd() *cobra.Command {
	var (
		output    string
		maxPages  int
		summaries bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <user_id>",
		Short: "Scrape a user's want-to-read list into a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			logger := log.NewLogger("fetch")

			scraper := scrape.NewScraper(scrape.Options{
				MaxPages:      maxPages,
				WithSummaries: summaries,
			})

			records, err := scraper.FetchWishlist(cmd.Context(), userID)
			if err != nil {
				if len(records) == 0 {
					return err
				}
				// Partial runs still produce output; the pages that failed
				// are already logged by the scraper.
				logger.Warn().Err(err).Int("books", len(records)).Msg("Saving partial results")
			}

			path := output
			if path == "" {
				path = fmt.Sprintf("douban_wish_%s.json", userID)
			}
			if err := book.Save(path, records); err != nil {
				return err
			}

			logger.Info().Int("books", len(records)).Str("path", path).Msg("Saved wishlist")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path to save JSON data. Defaults to douban_wish_<user_id>.json.")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Maximum number of listing pages to fetch (15 books per page). 0 fetches all.")
	cmd.Flags().BoolVar(&summaries, "summaries", false, "Visit each book's detail page for a fuller synopsis.")

	return cmd
}
