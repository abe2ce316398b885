package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/vitecommerce/internal/logging"
)

// LocalStore writes uploads below a directory served at baseURL.
type LocalStore struct {
	basePath string
	baseURL  string
}

func NewLocalStore(basePath, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Upload(ctx context.Context, folder, name string, data []byte) (string, error) {
	_, ext, err := DetectImage(data)
	if err != nil {
		return "", err
	}

	key := objectKey(folder, name, ext)
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	logging.Debug().Str("path", fullPath).Msg("file stored")
	return s.baseURL + "/" + key, nil
}

func (s *LocalStore) Delete(ctx context.Context, publicURL string) error {
	key, ok := keyFromURL(publicURL, s.baseURL)
	if !ok {
		return fmt.Errorf("cannot derive file path from %q", publicURL)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// resolve keeps key inside basePath.
func (s *LocalStore) resolve(key string) (string, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.basePath, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return fullPath, nil
}
