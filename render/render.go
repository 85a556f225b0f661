package render

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/qtmuniao/bookwish/book"
	"github.com/qtmuniao/bookwish/util"
)

// Palette holds the colors substituted into the document's inline styles.
// Purely presentational.
type Palette struct {
	Primary        string
	Background     string
	CardBackground string
	Text           string
	Muted          string
}

var DefaultPalette = Palette{
	Primary:        "#1f6feb",
	Background:     "#0d1117",
	CardBackground: "#161b22",
	Text:           "#e6edf3",
	Muted:          "#8b949e",
}

// Config is supplied per invocation; nothing here outlives the process.
type Config struct {
	Columns  int
	ImageDir string
	Palette  Palette
}

// bodyLimit caps the card body text, in runes.
const bodyLimit = 160

const noInfoText = "暂无信息"

type frontMatter struct {
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Books       int    `yaml:"books"`
	LocalCovers int    `yaml:"localCovers"`
}

// Document lays the records into an N-column card table and returns the full
// markdown document, YAML front matter included. local maps catalog IDs to
// cover file names inside cfg.ImageDir; records without one get the
// placeholder block. Remote URLs are never referenced.
func Document(records []book.Record, local map[string]string, cfg Config) (string, error) {
	if cfg.Columns < 1 {
		cfg.Columns = 1
	}

	fm, err := yaml.Marshal(frontMatter{
		Title:       "Want to Read",
		Date:        time.Now().Format("2006-01-02 15:04:05"),
		Books:       len(records),
		LocalCovers: len(local),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal front matter")
	}

	var builder strings.Builder
	builder.WriteString("---\n")
	builder.Write(fm)
	builder.WriteString("---\n\n")
	builder.WriteString(buildTable(records, local, cfg))
	builder.WriteString("\n")

	return builder.String(), nil
}

func buildTable(records []book.Record, local map[string]string, cfg Config) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "<table style=\"width:100%%; border-collapse:separate; border-spacing:0 10px; background:%s;\">\n", cfg.Palette.Background)

	builder.WriteString("  <colgroup>\n")
	colWidth := fmt.Sprintf("%.2f%%", 100/float64(cfg.Columns))
	for i := 0; i < cfg.Columns; i++ {
		fmt.Fprintf(&builder, "    <col style=\"width:%s;\" />\n", colWidth)
	}
	builder.WriteString("  </colgroup>\n")

	builder.WriteString("  <tbody>\n")
	for i := 0; i < len(records); i += cfg.Columns {
		end := i + cfg.Columns
		if end > len(records) {
			end = len(records)
		}

		builder.WriteString("    <tr>")
		for _, rec := range records[i:end] {
			builder.WriteString("<td style=\"padding:10px; vertical-align:top;\">")
			builder.WriteString(renderCell(rec, local[rec.BookID], cfg))
			builder.WriteString("</td>")
		}
		builder.WriteString("</tr>\n")
	}
	builder.WriteString("  </tbody>\n")
	builder.WriteString("</table>")

	return builder.String()
}

// renderCell produces one card. localName is the cover file inside the image
// directory, empty when none exists.
func renderCell(rec book.Record, localName string, cfg Config) string {
	pal := cfg.Palette

	body := rec.Body()
	if body == "" {
		body = noInfoText
	}
	body = html.EscapeString(util.Truncate(body, bodyLimit))

	var coverBlock string
	if localName != "" {
		src := filepath.ToSlash(filepath.Join(cfg.ImageDir, localName))
		coverBlock = fmt.Sprintf(
			"<a href=\"%s\" target=\"_blank\" rel=\"noopener noreferrer\">"+
				"<img src=\"%s\" alt=\"cover\" style=\"width:160px; height:220px; object-fit:cover; border-radius:10px; border:1px solid %s20;\" />"+
				"</a>",
			rec.URL, src, pal.Primary,
		)
	} else {
		coverBlock = fmt.Sprintf(
			"<div style=\"width:160px; height:220px; margin:0 auto; background:%s20; border-radius:10px;\"></div>",
			pal.Primary,
		)
	}

	return fmt.Sprintf(
		"<div style=\"background:%s; border:1px solid %s30; border-radius:12px; padding:12px; color:%s; font-family:'Segoe UI','Helvetica Neue',Arial,sans-serif; box-shadow:0 8px 24px -12px #000; text-align:center;\">"+
			"<div style=\"margin-bottom:10px;\">%s</div>"+
			"<div style=\"font-size:13px; color:%s; line-height:1.5;\">%s</div>"+
			"</div>",
		pal.CardBackground, pal.Primary, pal.Text, coverBlock, pal.Muted, body,
	)
}

// WriteDocument writes the markdown once, fully formed, via a temp file and
// rename so an interrupted run leaves no partial document.
func WriteDocument(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to write document")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to move document into place")
	}
	return nil
}
