// Package model fetches and verifies model artifacts by name against a
// canonical base URL, caching them on local disk. Consumers only ever
// see a resolved local path plus its integrity hash; the decoding core
// never participates in fetching.
package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/menta2k/parity-decoder/internal/utils"
)

// DefaultBaseURL is the canonical artifact host.
const DefaultBaseURL = "https://models.ente.io/"

// Artifact describes a locally cached model file.
type Artifact struct {
	FileName string
	Path     string
	SHA256   string
	// ETag is the cache-revalidation tag from the download response,
	// empty when the artifact was served from the local cache.
	ETag string
}

// Ensure returns a verified local artifact for fileName, downloading it
// from baseURL into cacheDir unless a non-empty cached copy already
// exists. An empty baseURL means DefaultBaseURL.
func Ensure(ctx context.Context, fileName, cacheDir, baseURL string) (*Artifact, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(cacheDir, fileName)
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		sum, err := utils.SHA256File(path)
		if err != nil {
			return nil, err
		}
		return &Artifact{FileName: fileName, Path: path, SHA256: sum}, nil
	}

	etag, err := download(ctx, strings.TrimSuffix(baseURL, "/")+"/"+fileName, cacheDir, path)
	if err != nil {
		return nil, err
	}

	sum, err := utils.SHA256File(path)
	if err != nil {
		return nil, err
	}
	return &Artifact{FileName: fileName, Path: path, SHA256: sum, ETag: etag}, nil
}

// download streams the artifact to a temp file in the cache directory
// and renames it into place, so a partial download never becomes a
// cached artifact.
func download(ctx context.Context, url, cacheDir, path string) (string, error) {
	client := &http.Client{
		Timeout: 5 * time.Minute,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download model: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	etag := resp.Header.Get("ETag")

	tmp, err := os.CreateTemp(cacheDir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write model data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move model into cache: %w", err)
	}
	return etag, nil
}
