package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileReportStore writes one JSON file per completed report.
type FileReportStore struct {
	dir string
}

func NewFileReportStore(dir string) *FileReportStore {
	return &FileReportStore{dir: dir}
}

func (f *FileReportStore) path(id string) (string, error) {
	// ids are uuids; anything else could escape the directory
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid report id %q", id)
	}
	return filepath.Join(f.dir, id+".json"), nil
}

func (f *FileReportStore) SaveReport(_ context.Context, rec ReportRecord) error {
	if len(rec.Payload) == 0 {
		return fmt.Errorf("empty report payload")
	}
	p, err := f.path(rec.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// GetReport returns nil, nil when the report does not exist.
func (f *FileReportStore) GetReport(_ context.Context, id string) (*ReportRecord, error) {
	p, err := f.path(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var rec ReportRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
