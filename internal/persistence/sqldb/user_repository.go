package sqldb

import (
	"context"
	"fmt"

	"github.com/example/nutriagenda/internal/persistence"
)

type userRow struct {
	ID          string `db:"id"`
	Email       string `db:"email"`
	DisplayName string `db:"display_name"`
	Phone       string `db:"phone"`
	Role        string `db:"role"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r userRow) toPersistence() (persistence.User, error) {
	createdAt, err := parseTime("created_at", r.CreatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	updatedAt, err := parseTime("updated_at", r.UpdatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	return persistence.User{
		ID:          r.ID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Phone:       r.Phone,
		Role:        r.Role,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

const userColumns = `id, email, display_name, phone, role, created_at, updated_at`

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		user.ID,
		normalizeEmail(user.Email),
		user.DisplayName,
		user.Phone,
		user.Role,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqldb: create user: %w", r.mapper.MapError(err))
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
}

// DeleteUser removes a user by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqldb: delete user: %w", r.mapper.MapError(err))
	}
	return requireAffected(result)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (persistence.User, error) {
	var row userRow
	if err := r.helper.Get(ctx, &row, query, arg); err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return row.toPersistence()
}
