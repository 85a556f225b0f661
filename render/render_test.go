package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/qtmuniao/bookwish/book"
)

func strPtr(s string) *string { return &s }

func sampleRecords() []book.Record {
	return []book.Record{
		{
			Title:      "第一本",
			URL:        "https://book.douban.com/subject/100001/",
			BookID:     "100001",
			Cover:      strPtr("https://img.example.com/s1.jpg"),
			Summary:    strPtr("一段简介"),
			RawPubInfo: strPtr("作者 / 出版社 / 2020"),
		},
		{
			Title:      "第二本",
			URL:        "https://book.douban.com/subject/100002/",
			BookID:     "100002",
			RawPubInfo: strPtr("另一位作者 / 另一家出版社 / 2021"),
		},
		{
			Title:  "第三本",
			URL:    "https://book.douban.com/subject/100003/",
			BookID: "100003",
		},
	}
}

func defaultConfig() Config {
	return Config{Columns: 2, ImageDir: "img", Palette: DefaultPalette}
}

func TestDocumentFrontMatter(t *testing.T) {
	doc, err := Document(sampleRecords(), map[string]string{"100001": "100001.jpg"}, defaultConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(doc, "---\n"))

	parts := strings.SplitN(doc, "---\n", 3)
	require.Len(t, parts, 3)

	var fm struct {
		Title       string `yaml:"title"`
		Books       int    `yaml:"books"`
		LocalCovers int    `yaml:"localCovers"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	require.Equal(t, 3, fm.Books)
	require.Equal(t, 1, fm.LocalCovers)
	require.NotEmpty(t, fm.Title)
}

func TestDocumentLocalCoversOnly(t *testing.T) {
	doc, err := Document(sampleRecords(), map[string]string{"100001": "100001.jpg"}, defaultConfig())
	require.NoError(t, err)

	// The one local cover resolves to a relative path; nothing hot-links the
	// remote cover URL.
	require.Contains(t, doc, `src="img/100001.jpg"`)
	require.NotContains(t, doc, `src="http`)
	require.Equal(t, 1, strings.Count(doc, "<img "))

	// The two coverless records get the placeholder block.
	require.Equal(t, 2, strings.Count(doc, "margin:0 auto; background:"+DefaultPalette.Primary+"20"))
}

func TestDocumentSkipDownloadAllPlaceholders(t *testing.T) {
	doc, err := Document(sampleRecords(), map[string]string{}, defaultConfig())
	require.NoError(t, err)
	require.NotContains(t, doc, "<img ")
	require.Equal(t, 3, strings.Count(doc, "margin:0 auto; background:"))
}

func TestDocumentColumnsWrap(t *testing.T) {
	doc, err := Document(sampleRecords(), nil, defaultConfig())
	require.NoError(t, err)

	// 3 records in 2 columns is 2 rows.
	require.Equal(t, 2, strings.Count(doc, "<tr>"))
	require.Equal(t, 2, strings.Count(doc, `<col style="width:50.00%;" />`))
}

func TestDocumentBodyFallback(t *testing.T) {
	doc, err := Document(sampleRecords(), nil, defaultConfig())
	require.NoError(t, err)

	// Synopsis when present, raw pub info otherwise, fixed text when neither.
	require.Contains(t, doc, "一段简介")
	require.NotContains(t, doc, "作者 / 出版社 / 2020")
	require.Contains(t, doc, "另一位作者 / 另一家出版社 / 2021")
	require.Contains(t, doc, noInfoText)
}

func TestDocumentTruncatesBody(t *testing.T) {
	long := strings.Repeat("很长的简介", 100)
	records := []book.Record{{Title: "t", URL: "u", BookID: "1", Summary: &long}}

	doc, err := Document(records, nil, defaultConfig())
	require.NoError(t, err)
	require.NotContains(t, doc, long)
	require.Contains(t, doc, "…")
}

func TestDocumentPaletteSubstitution(t *testing.T) {
	cfg := defaultConfig()
	cfg.Palette = Palette{
		Primary:        "#111111",
		Background:     "#222222",
		CardBackground: "#333333",
		Text:           "#444444",
		Muted:          "#555555",
	}

	doc, err := Document(sampleRecords(), nil, cfg)
	require.NoError(t, err)
	for _, color := range []string{"#111111", "#222222", "#333333", "#444444", "#555555"} {
		require.Contains(t, doc, color)
	}
}

func TestWriteDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shelf.md")

	require.NoError(t, WriteDocument(path, "content"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "content", string(data))

	// Rewriting replaces in place and leaves no temp files behind.
	require.NoError(t, WriteDocument(path, "newer content"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
