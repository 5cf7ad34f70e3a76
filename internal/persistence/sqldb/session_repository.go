package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/nutriagenda/internal/persistence"
)

type sessionRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Role      string         `db:"role"`
	ExpiresAt string         `db:"expires_at"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt string         `db:"updated_at"`
	RevokedAt sql.NullString `db:"revoked_at"`
}

func (r sessionRow) toPersistence() (persistence.Session, error) {
	session := persistence.Session{ID: r.ID, UserID: r.UserID, Role: r.Role}
	var err error
	if session.ExpiresAt, err = parseTime("expires_at", r.ExpiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime("created_at", r.CreatedAt); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime("updated_at", r.UpdatedAt); err != nil {
		return persistence.Session{}, err
	}
	if r.RevokedAt.Valid {
		revokedAt, err := parseTime("revoked_at", r.RevokedAt.String)
		if err != nil {
			return persistence.Session{}, err
		}
		session.RevokedAt = &revokedAt
	}
	return session, nil
}

func nullTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*value), Valid: true}
}

const sessionColumns = `id, user_id, role, expires_at, created_at, updated_at, revoked_at`

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession stores a new session.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" || session.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Role,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
		nullTime(session.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("sqldb: create session: %w", r.mapper.MapError(err))
	}
	return nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if id == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	var row sessionRow
	if err := r.helper.Get(ctx, &row, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id); err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return row.toPersistence()
}

// UpdateSession updates the mutable fields of a session.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) error {
	query := `UPDATE sessions SET expires_at = ?, updated_at = ?, revoked_at = ? WHERE id = ?`
	result, err := r.helper.Exec(ctx, query,
		formatTime(session.ExpiresAt),
		formatTime(session.UpdatedAt),
		nullTime(session.RevokedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("sqldb: update session: %w", r.mapper.MapError(err))
	}
	return requireAffected(result)
}

// RevokeSession stamps revoked_at once and returns the resulting session.
func (r *SessionRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error) {
	var revoked persistence.Session
	err := r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		stamp := formatTime(revokedAt)
		if _, err := r.helper.ExecTx(ctx, tx,
			`UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE id = ? AND revoked_at IS NULL`,
			stamp, stamp, id,
		); err != nil {
			return r.mapper.MapError(err)
		}

		var row sessionRow
		if err := r.helper.GetTx(ctx, tx, &row, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id); err != nil {
			return r.mapper.MapError(err)
		}

		session, err := row.toPersistence()
		if err != nil {
			return err
		}
		revoked = session
		return nil
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return revoked, nil
}

// DeleteExpiredSessions removes sessions that expired at or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference)); err != nil {
		return fmt.Errorf("sqldb: delete expired sessions: %w", r.mapper.MapError(err))
	}
	return nil
}
