package store

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ImageStore manages the local cover directory. Files are keyed by name, and
// lookups by stem let a rerun pick up covers downloaded earlier even when
// the remote extension changed in between.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) *ImageStore {
	return &ImageStore{
		dir: dir,
	}
}

func (s *ImageStore) Dir() string {
	return s.dir
}

// EnsureDir creates the image directory if it does not exist yet.
func (s *ImageStore) EnsureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *ImageStore) Contains(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Find returns the name of an existing file whose name without extension
// equals stem.
func (s *ImageStore) Find(stem string) (string, bool) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			return name, true
		}
	}
	return "", false
}

// Store writes content to a file with the given name, replacing any previous
// file of the same name.
func (s *ImageStore) Store(name string, content io.Reader) error {
	file, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, content)
	return err
}
