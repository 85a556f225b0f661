package scrape

import (
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"

	"github.com/qtmuniao/bookwish/book"
	"github.com/qtmuniao/bookwish/util"
)

var (
	subjectIDRegex = regexp.MustCompile(`/subject/(\d+)/`)
	numberRegex    = regexp.MustCompile(`(\d+)`)
)

// parseListing extracts one record per item entry in a listing page, plus
// whether the page links to a next page. Items without both a title and a
// catalog ID are dropped.
func parseListing(doc *goquery.Document) ([]book.Record, bool) {
	var records []book.Record

	doc.Find("li.subject-item").Each(func(_ int, item *goquery.Selection) {
		titleTag := item.Find("h2 a").First()
		title := util.CleanText(titleTag.Text())

		link, _ := titleTag.Attr("href")
		link = strings.SplitN(link, "?", 2)[0]

		id := extractBookID(link)
		if title == "" || id == "" {
			return
		}

		rec := book.Record{
			Title:  title,
			URL:    link,
			BookID: id,
		}

		if src, ok := item.Find(".pic img").First().Attr("src"); ok && src != "" {
			rec.Cover = &src
		}

		pubTag := item.Find(".pub").First()
		if len(pubTag.Nodes) > 0 {
			if pubText := util.CleanText(util.NodeText(pubTag.Nodes[0])); pubText != "" {
				rec.RawPubInfo = &pubText
				rec.Author, rec.Publisher, rec.PubDate = parsePubInfo(pubText)
			}
		}

		if text := util.CleanText(item.Find(".rating-info .rating_nums, .rating_nums").First().Text()); text != "" {
			if rating, err := strconv.ParseFloat(text, 64); err == nil {
				rec.Rating = &rating
			}
		}

		if m := numberRegex.FindStringSubmatch(item.Find(".rating-info .pl, .rating_people .pl").First().Text()); m != nil {
			if count, err := strconv.Atoi(m[1]); err == nil {
				rec.RatingCount = &count
			}
		}

		if date := util.CleanText(item.Find(".short-note .date, .ft .date, .oper-date, span.date").First().Text()); date != "" {
			rec.MarkTime = &date
		}

		rec.Summary = listingSummary(item)

		records = append(records, rec)
	})

	hasNext := doc.Find("span.next a").Length() > 0
	return records, hasNext
}

// listingSummary takes the first paragraph that isn't the publication line
// or the rating block. Most listings have none; the detail page is the real
// source of a synopsis.
func listingSummary(item *goquery.Selection) *string {
	var summary *string
	item.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if p.HasClass("rating-info") || p.HasClass("pub") || p.HasClass("subject-abstract") {
			return true
		}
		if text := util.CleanText(p.Text()); text != "" {
			summary = &text
			return false
		}
		return true
	})
	return summary
}

// parseSummary pulls the synopsis block out of a detail page and converts
// its markup to markdown text.
func parseSummary(doc *goquery.Document) *string {
	intro := doc.Find("#link-report .intro").First()
	if intro.Length() == 0 {
		intro = doc.Find(".intro").First()
	}
	if intro.Length() == 0 {
		return nil
	}

	raw, err := intro.Html()
	if err != nil {
		return nil
	}

	converted, err := md.ConvertString(raw)
	if err != nil {
		// Fall back to the plain text when conversion chokes on the markup.
		if text := util.CleanText(intro.Text()); text != "" {
			return &text
		}
		return nil
	}

	text := strings.TrimSpace(converted)
	if text == "" {
		return nil
	}
	return &text
}

// extractBookID pulls the catalog ID out of a detail URL.
func extractBookID(link string) string {
	m := subjectIDRegex.FindStringSubmatch(link)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// parsePubInfo splits the compact publication line the site renders under
// each title. Parts are slash-separated; with three or more parts everything
// before the last two is author names, which keep the site's own " / "
// separator when joined back together.
func parsePubInfo(text string) (author, publisher, pubDate *string) {
	var parts []string
	for _, part := range strings.Split(text, "/") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	switch {
	case len(parts) >= 3:
		joined := strings.Join(parts[:len(parts)-2], " / ")
		return &joined, &parts[len(parts)-2], &parts[len(parts)-1]
	case len(parts) == 2:
		return &parts[0], &parts[1], nil
	case len(parts) == 1:
		return nil, &parts[0], nil
	}
	return nil, nil, nil
}
