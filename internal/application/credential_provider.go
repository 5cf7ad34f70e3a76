package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Credential is the stored password hash of one account.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialStore persists password hashes for the local provider.
type CredentialStore interface {
	CreateCredential(ctx context.Context, credential Credential) error
	GetCredential(ctx context.Context, userID string) (Credential, error)
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
	DeleteCredential(ctx context.Context, userID string) error
}

// LocalCredentialProvider implements CredentialProvider with argon2id hashes
// kept in a CredentialStore. It backs both demo and self-hosted deployments.
type LocalCredentialProvider struct {
	store       CredentialStore
	idGenerator func() string
	now         func() time.Time
	params      Argon2idParams
}

// NewLocalCredentialProvider wires the local provider.
func NewLocalCredentialProvider(store CredentialStore, idGenerator func() string, now func() time.Time) *LocalCredentialProvider {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LocalCredentialProvider{
		store:       store,
		idGenerator: idGenerator,
		now:         now,
		params:      DefaultArgon2idParams,
	}
}

// WithParams overrides the argon2id parameters. Tests use cheaper settings.
func (p *LocalCredentialProvider) WithParams(params Argon2idParams) *LocalCredentialProvider {
	p.params = params
	return p
}

// CreateUser hashes the password and stores a credential under a new user ID.
func (p *LocalCredentialProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	if p == nil || p.store == nil {
		return "", fmt.Errorf("credential store not configured")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := p.store.GetCredentialByEmail(ctx, email); err == nil {
		return "", ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	hash, err := CreatePasswordHash(password, p.params)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	userID := p.idGenerator()
	if userID == "" {
		return "", fmt.Errorf("id generator returned empty id")
	}

	if err := p.store.CreateCredential(ctx, Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    p.now(),
	}); err != nil {
		return "", err
	}
	return userID, nil
}

// GetUserByEmail resolves the user ID registered for email.
func (p *LocalCredentialProvider) GetUserByEmail(ctx context.Context, email string) (string, error) {
	if p == nil || p.store == nil {
		return "", fmt.Errorf("credential store not configured")
	}
	credential, err := p.store.GetCredentialByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	return credential.UserID, nil
}

// VerifyPassword checks password against the stored hash for userID.
func (p *LocalCredentialProvider) VerifyPassword(ctx context.Context, userID, password string) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("credential store not configured")
	}
	credential, err := p.store.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	return VerifyPassword(credential.PasswordHash, password)
}

// DeleteUser removes the credential for userID.
func (p *LocalCredentialProvider) DeleteUser(ctx context.Context, userID string) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("credential store not configured")
	}
	return p.store.DeleteCredential(ctx, userID)
}
