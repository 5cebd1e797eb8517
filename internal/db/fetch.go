package db

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxDatabaseSize bounds a fetched database blob.
const maxDatabaseSize = 512 * 1024 * 1024

// IsRemote reports whether source names an HTTP(S) location.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load opens source as a database. A remote source is fetched once into
// cacheDir first.
func Load(ctx context.Context, source, cacheDir string) (*Store, error) {
	if !IsRemote(source) {
		return Open(source)
	}
	path := filepath.Join(cacheDir, "escoco.db")
	if err := Fetch(ctx, source, path); err != nil {
		return nil, err
	}
	return Open(path)
}

// Fetch downloads the database at url to dest, replacing dest atomically.
func Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch database: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch database: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxDatabaseSize {
		return fmt.Errorf("fetch database: %d bytes exceeds limit of %d", resp.ContentLength, maxDatabaseSize)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".escoco-*.db")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxDatabaseSize+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write database: %w", err)
	}
	if n > maxDatabaseSize {
		return fmt.Errorf("fetch database: body exceeds limit of %d bytes", maxDatabaseSize)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("install database: %w", err)
	}
	return nil
}
