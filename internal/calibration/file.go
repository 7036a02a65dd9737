package calibration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/synheart/synheart-breath/internal/breath"
)

type fileDocument struct {
	Thresholds breath.Thresholds `yaml:"thresholds"`
	UpdatedAt  string            `yaml:"updated_at"`
}

// FileStore keeps thresholds in a YAML file
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(ctx context.Context) (breath.Thresholds, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return breath.DefaultThresholds(), nil
	}
	if err != nil {
		return breath.Thresholds{}, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return breath.Thresholds{}, fmt.Errorf("failed to parse calibration file: %w", err)
	}
	if err := Validate(doc.Thresholds); err != nil {
		return breath.Thresholds{}, fmt.Errorf("invalid calibration in %s: %w", f.path, err)
	}
	return doc.Thresholds, nil
}

func (f *FileStore) Save(ctx context.Context, th breath.Thresholds) error {
	if err := Validate(th); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create calibration dir: %w", err)
	}

	data, err := yaml.Marshal(fileDocument{
		Thresholds: th,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to encode calibration: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace calibration file: %w", err)
	}
	return nil
}

func (f *FileStore) Reset(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove calibration file: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
