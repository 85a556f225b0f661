package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSaveLoadRoundTrip(t *testing.T) {
	rating := 9.7
	count := 1503
	records := []Record{
		{
			Title:       "设计数据密集型应用",
			URL:         "https://book.douban.com/subject/26912767/",
			Cover:       strPtr("https://img9.example.com/s29195878.jpg"),
			Author:      strPtr("Martin Kleppmann / 赵军平"),
			Publisher:   strPtr("中国电力出版社"),
			PubDate:     strPtr("2018-9"),
			Rating:      &rating,
			RatingCount: &count,
			RawPubInfo:  strPtr("Martin Kleppmann / 赵军平 / 中国电力出版社 / 2018-9"),
			BookID:      "26912767",
			MarkTime:    strPtr("2023-05-01"),
		},
		{
			Title:  "只有标题的书",
			URL:    "https://book.douban.com/subject/1000000/",
			BookID: "1000000",
		},
	}

	path := filepath.Join(t.TempDir(), "wish.json")
	require.NoError(t, Save(path, records))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Order and identity survive the trip.
	for i := range records {
		require.Equal(t, records[i].Title, loaded[i].Title)
		require.Equal(t, records[i].BookID, loaded[i].BookID)
	}

	// Optional fields come back as values or nil, never empty-string stand-ins.
	require.Equal(t, records[0], loaded[0])
	require.Nil(t, loaded[1].Cover)
	require.Nil(t, loaded[1].Rating)
	require.Nil(t, loaded[1].Summary)
}

func TestSaveEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, Save(path, nil))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, "wish.json"), []Record{{Title: "t", BookID: "1"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "wish.json", entries[0].Name())
}

func TestLoadTreatsNullAndAbsentAlike(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wish.json")
	raw := `[
		{"title": "a", "book_id": "1", "publisher": null},
		{"title": "b", "book_id": "2"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Nil(t, loaded[0].Publisher)
	require.Nil(t, loaded[1].Publisher)
}

func TestBodyFallsBackToRawPubInfo(t *testing.T) {
	rec := Record{Title: "t", BookID: "1", RawPubInfo: strPtr("作者 / 出版社 / 2020")}
	require.Equal(t, "作者 / 出版社 / 2020", rec.Body())

	rec.Summary = strPtr("一段简介")
	require.Equal(t, "一段简介", rec.Body())

	require.Empty(t, Record{Title: "t", BookID: "1"}.Body())
}
