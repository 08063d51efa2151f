package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDownloadsAndVerifies(t *testing.T) {
	payload := []byte("onnx model bytes")
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/clip-image.onnx" {
			t.Errorf("unexpected request path %q", r.URL.Path)
		}
		w.Header().Set("ETag", `"abc123"`)
		w.Write(payload)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	artifact, err := Ensure(context.Background(), "clip-image.onnx", cacheDir, server.URL)
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	if artifact.Path != filepath.Join(cacheDir, "clip-image.onnx") {
		t.Errorf("unexpected artifact path %q", artifact.Path)
	}
	if artifact.ETag != `"abc123"` {
		t.Errorf("expected ETag to be recorded, got %q", artifact.ETag)
	}

	sum := sha256.Sum256(payload)
	if artifact.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("hash mismatch: got %s", artifact.SHA256)
	}

	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("cached artifact unreadable: %v", err)
	}
	if string(data) != string(payload) {
		t.Error("cached artifact content differs from server payload")
	}
	if requests != 1 {
		t.Errorf("expected exactly one download, got %d", requests)
	}
}

func TestEnsureUsesCache(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	first, err := Ensure(context.Background(), "model.onnx", cacheDir, server.URL)
	if err != nil {
		t.Fatalf("first Ensure failed: %v", err)
	}

	second, err := Ensure(context.Background(), "model.onnx", cacheDir, server.URL)
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("cached artifact must not be re-downloaded; saw %d requests", requests)
	}
	if second.SHA256 != first.SHA256 {
		t.Error("cached artifact hash should match the downloaded one")
	}
	if second.ETag != "" {
		t.Errorf("cache hits carry no ETag, got %q", second.ETag)
	}
}

func TestEnsureHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	if _, err := Ensure(context.Background(), "missing.onnx", cacheDir, server.URL); err == nil {
		t.Fatal("expected an error for HTTP 404")
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "missing.onnx")); !os.IsNotExist(err) {
		t.Error("failed downloads must not leave a cached artifact behind")
	}
}

func TestEnsureEmptyCachedFileRedownloads(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	path := filepath.Join(cacheDir, "model.onnx")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Ensure(context.Background(), "model.onnx", cacheDir, server.URL); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if requests != 1 {
		t.Errorf("zero-byte cache entries must be replaced; saw %d requests", requests)
	}
}
