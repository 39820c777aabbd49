package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalDir stores blobs as plain files under a base directory.
type LocalDir struct {
	base string
}

var _ Blobs = (*LocalDir)(nil)

// NewLocalDir creates the directory if needed.
func NewLocalDir(base string) (*LocalDir, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: criando diretório %q: %w", base, err)
	}
	return &LocalDir{base: base}, nil
}

func (l *LocalDir) Save(_ context.Context, name string, data []byte) (string, error) {
	// Keep only the base name so callers cannot escape the directory.
	name = filepath.Base(name)
	dest := filepath.Join(l.base, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("filestore: gravando %q: %w", dest, err)
	}
	return "file://" + dest, nil
}

func (l *LocalDir) Fetch(_ context.Context, uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("filestore: lendo %q: %w", path, err)
	}
	return data, nil
}
