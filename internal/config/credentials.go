package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CredentialsFileName is looked up in the working directory when no explicit
// bundle is configured.
const CredentialsFileName = "nutriagenda-credentials.json"

// Credential bundle sources, in priority order.
const (
	SourceInline = "env:NUTRIAGENDA_CREDENTIALS"
	SourceFile   = "env:NUTRIAGENDA_CREDENTIALS_FILE"
	SourceLocal  = "file:" + CredentialsFileName
	SourceFields = "env:fields"
)

// DatabaseCredentials selects the SQL backend.
type DatabaseCredentials struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// StorageCredentials selects the S3 bucket for measurement photos.
type StorageCredentials struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	PublicURL       string `json:"public_url"`
}

// Credentials is the production credential bundle.
type Credentials struct {
	Database DatabaseCredentials `json:"database"`
	Storage  StorageCredentials  `json:"storage"`
}

// HasStorage reports whether an S3 bucket is configured.
func (c Credentials) HasStorage() bool {
	return strings.TrimSpace(c.Storage.Bucket) != ""
}

// LoadCredentials resolves the credential bundle. Sources are tried in order:
// inline JSON, an explicit file, CredentialsFileName inside workDir, then the
// individual NUTRIAGENDA_DATABASE_* and NUTRIAGENDA_STORAGE_* variables. It
// returns the bundle together with the source it came from.
func LoadCredentials(workDir string) (Credentials, string, error) {
	if inline := strings.TrimSpace(os.Getenv("NUTRIAGENDA_CREDENTIALS")); inline != "" {
		creds, err := decodeCredentials([]byte(inline))
		if err != nil {
			return Credentials{}, SourceInline, fmt.Errorf("NUTRIAGENDA_CREDENTIALS: %w", err)
		}
		return creds, SourceInline, nil
	}

	if path := strings.TrimSpace(os.Getenv("NUTRIAGENDA_CREDENTIALS_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Credentials{}, SourceFile, fmt.Errorf("NUTRIAGENDA_CREDENTIALS_FILE: %w", err)
		}
		creds, err := decodeCredentials(data)
		if err != nil {
			return Credentials{}, SourceFile, fmt.Errorf("NUTRIAGENDA_CREDENTIALS_FILE: %w", err)
		}
		return creds, SourceFile, nil
	}

	local := filepath.Join(workDir, CredentialsFileName)
	data, err := os.ReadFile(local)
	switch {
	case err == nil:
		creds, err := decodeCredentials(data)
		if err != nil {
			return Credentials{}, SourceLocal, fmt.Errorf("%s: %w", CredentialsFileName, err)
		}
		return creds, SourceLocal, nil
	case !errors.Is(err, os.ErrNotExist):
		return Credentials{}, SourceLocal, fmt.Errorf("%s: %w", CredentialsFileName, err)
	}

	return Credentials{
		Database: DatabaseCredentials{
			Driver: env("NUTRIAGENDA_DATABASE_DRIVER"),
			DSN:    env("NUTRIAGENDA_DATABASE_DSN"),
		},
		Storage: StorageCredentials{
			Bucket:          env("NUTRIAGENDA_STORAGE_BUCKET"),
			Region:          env("NUTRIAGENDA_STORAGE_REGION"),
			Endpoint:        env("NUTRIAGENDA_STORAGE_ENDPOINT"),
			AccessKeyID:     env("NUTRIAGENDA_STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: env("NUTRIAGENDA_STORAGE_SECRET_ACCESS_KEY"),
			PublicURL:       env("NUTRIAGENDA_STORAGE_PUBLIC_URL"),
		},
	}, SourceFields, nil
}

func decodeCredentials(data []byte) (Credentials, error) {
	var creds Credentials
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&creds); err != nil {
		return Credentials{}, fmt.Errorf("invalid credential bundle: %w", err)
	}
	return creds, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
