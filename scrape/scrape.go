package scrape

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/qtmuniao/bookwish/book"
	"github.com/qtmuniao/bookwish/log"
)

// PageSize is how many items the site puts on one wish-list page; offsets
// advance by this much.
const PageSize = 15

const defaultBaseURL = "https://book.douban.com"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0 Safari/537.36"

type Options struct {
	// BaseURL overrides the site root, mainly for tests.
	BaseURL string
	// MaxPages caps the number of listing pages requested. Zero means no cap.
	MaxPages int
	// WithSummaries visits each item's detail page for a fuller synopsis.
	WithSummaries bool
	// MaxConsecutiveFailures aborts the run once this many listing pages fail
	// in a row. Zero means the default of 3.
	MaxConsecutiveFailures int
}

// Scraper walks a user's want-to-read listing pages and extracts one record
// per item.
type Scraper struct {
	client *resty.Client
	log    zerolog.Logger
	opts   Options
}

func NewScraper(opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = 3
	}

	client := resty.New()
	client.SetTimeout(15 * time.Second)
	client.SetHeader("User-Agent", userAgent)

	return &Scraper{
		client: client,
		log:    log.NewLogger("scrape"),
		opts:   opts,
	}
}

// FetchWishlist paginates through the user's listing pages until a page
// yields no items, the last page is reached, or the page cap is hit. A
// single bad page only loses that page's items; the run aborts when too
// many pages fail back to back.
func (s *Scraper) FetchWishlist(ctx context.Context, userID string) ([]book.Record, error) {
	var records []book.Record
	start, page, failures := 0, 0, 0

	for {
		pageURL := fmt.Sprintf("%s/people/%s/wish?start=%d", s.opts.BaseURL, userID, start)
		page++

		items, hasNext, err := s.fetchListing(ctx, pageURL)
		if err != nil {
			failures++
			s.log.Error().Err(err).Str("url", pageURL).Int("page", page).Msg("Listing page failed, skipping")
			if failures >= s.opts.MaxConsecutiveFailures {
				if len(records) == 0 {
					return nil, errors.Wrapf(err, "no readable listing pages for user %q", userID)
				}
				return records, errors.Wrapf(err, "aborting after %d consecutive page failures", failures)
			}
			if s.maxPagesReached(page) {
				break
			}
			start += PageSize
			continue
		}
		failures = 0

		if len(items) == 0 {
			break
		}

		if s.opts.WithSummaries {
			for i := range items {
				s.attachSummary(ctx, &items[i])
			}
		}
		records = append(records, items...)

		s.log.Info().Int("page", page).Int("items", len(items)).Msg("Parsed listing page")

		if s.maxPagesReached(page) {
			break
		}
		if !hasNext {
			break
		}
		start += PageSize
	}

	return records, nil
}

func (s *Scraper) maxPagesReached(page int) bool {
	return s.opts.MaxPages > 0 && page >= s.opts.MaxPages
}

func (s *Scraper) fetchListing(ctx context.Context, pageURL string) ([]book.Record, bool, error) {
	resp, err := s.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, false, errors.Wrap(err, "request failed")
	}
	if !resp.IsSuccess() {
		return nil, false, errors.Errorf("unexpected status %s", resp.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to parse listing markup")
	}

	items, hasNext := parseListing(doc)
	return items, hasNext, nil
}

// attachSummary replaces the compact listing summary with the detail page's
// synopsis. Any failure here keeps whatever the listing page gave us.
func (s *Scraper) attachSummary(ctx context.Context, rec *book.Record) {
	if rec.URL == "" {
		return
	}

	resp, err := s.client.R().SetContext(ctx).Get(rec.URL)
	if err != nil || !resp.IsSuccess() {
		s.log.Debug().Str("title", rec.Title).Msg("Detail page unavailable, keeping listing summary")
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return
	}

	if summary := parseSummary(doc); summary != nil {
		rec.Summary = summary
	}
}
