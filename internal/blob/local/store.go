// Package local stores blobs on the local filesystem and serves them over HTTP.
package local

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/nutriagenda/internal/blob"
)

// MediaPrefix is the URL path under which stored files are served.
const MediaPrefix = "/media/"

// Store writes blobs below a root directory.
type Store struct {
	root    string
	baseURL string
}

// New creates the root directory if needed. baseURL is the public origin of
// the HTTP server, e.g. http://localhost:8551.
func New(root, baseURL string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("media directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &Store{root: abs, baseURL: baseURL}, nil
}

// Put writes data to key atomically and returns its public URL. The content
// type is implied by the key's extension when served.
func (s *Store) Put(ctx context.Context, data []byte, key, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := blob.CleanKey(key)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("commit blob: %w", err)
	}

	return blob.JoinURL(s.baseURL+MediaPrefix, key), nil
}

// Handler serves stored files by exact key. Mount it at MediaPrefix.
// Directories are never listed; any request that does not name a regular
// file answers 404.
func (s *Store) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.root))
	return http.StripPrefix(MediaPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isFile(r.URL.Path) {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}

func (s *Store) isFile(requestPath string) bool {
	if strings.HasSuffix(requestPath, "/") {
		return false
	}
	key, err := blob.CleanKey(requestPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(key)))
	return err == nil && info.Mode().IsRegular()
}
