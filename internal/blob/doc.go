// Package blob holds the photo storage backends used by the measurement
// tracker. Each backend implements application.BlobStore and returns a public
// URL for every stored object.
package blob

import (
	"fmt"
	"path"
	"strings"
)

// CleanKey normalises an object key and rejects keys that escape the store root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" {
		return "", fmt.Errorf("blob key is empty")
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("blob key %q is invalid", key)
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

// JoinURL appends key to base with exactly one separating slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
