package book

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Record is a single entry of a user's want-to-read list. Title and BookID
// are always present; everything else is best-effort and serializes as null
// when missing. The JSON keys are the contract between `fetch` and `render`,
// so they never change independently of each other.
type Record struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Cover       *string  `json:"cover"`
	Author      *string  `json:"author"`
	Publisher   *string  `json:"publisher"`
	PubDate     *string  `json:"pub_date"`
	Rating      *float64 `json:"rating"`
	RatingCount *int     `json:"rating_count"`
	Summary     *string  `json:"summary"`
	RawPubInfo  *string  `json:"raw_pub_info"`
	BookID      string   `json:"book_id"`
	MarkTime    *string  `json:"mark_time"`
}

// Body returns the text used as the card body downstream: the synopsis when
// present, otherwise the raw publication info.
func (r Record) Body() string {
	if r.Summary != nil && *r.Summary != "" {
		return *r.Summary
	}
	if r.RawPubInfo != nil {
		return *r.RawPubInfo
	}
	return ""
}

// Save writes the records as a pretty-printed JSON array. The file is
// written to a temp file in the target directory first and renamed into
// place, so a crashed run never leaves a partial JSON behind.
func Save(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal records")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to write records")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed to move records into place")
	}
	return nil
}

// Load reads a JSON array of records back. Unknown keys are ignored, and
// null and absent optional fields both come back as nil.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return records, nil
}
