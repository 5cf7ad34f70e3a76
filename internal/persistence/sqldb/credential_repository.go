package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/nutriagenda/internal/persistence"
)

type credentialRow struct {
	UserID       string `db:"user_id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

const credentialColumns = `user_id, email, password_hash, created_at`

// CredentialRepository implements persistence.CredentialRepository.
type CredentialRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(pool *ConnectionPool) *CredentialRepository {
	return &CredentialRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateCredential stores a password hash.
func (r *CredentialRepository) CreateCredential(ctx context.Context, credential persistence.Credential) error {
	if credential.UserID == "" || credential.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO credentials (` + credentialColumns + `) VALUES (?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		credential.UserID,
		normalizeEmail(credential.Email),
		credential.PasswordHash,
		formatTime(credential.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqldb: create credential: %w", r.mapper.MapError(err))
	}
	return nil
}

// GetCredential retrieves a credential by user ID.
func (r *CredentialRepository) GetCredential(ctx context.Context, userID string) (persistence.Credential, error) {
	return r.getOne(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE user_id = ?`, userID)
}

// GetCredentialByEmail retrieves a credential by email address.
func (r *CredentialRepository) GetCredentialByEmail(ctx context.Context, email string) (persistence.Credential, error) {
	return r.getOne(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE email = ?`, normalizeEmail(email))
}

// DeleteCredential removes a credential by user ID.
func (r *CredentialRepository) DeleteCredential(ctx context.Context, userID string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM credentials WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("sqldb: delete credential: %w", r.mapper.MapError(err))
	}
	return requireAffected(result)
}

func (r *CredentialRepository) getOne(ctx context.Context, query string, arg string) (persistence.Credential, error) {
	if arg == "" {
		return persistence.Credential{}, persistence.ErrNotFound
	}
	var row credentialRow
	if err := r.helper.Get(ctx, &row, query, arg); err != nil {
		return persistence.Credential{}, r.mapper.MapError(err)
	}
	createdAt, err := parseTime("created_at", row.CreatedAt)
	if err != nil {
		return persistence.Credential{}, err
	}
	return persistence.Credential{
		UserID:       row.UserID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    createdAt,
	}, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
