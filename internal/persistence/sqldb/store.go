package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed-width so that TEXT columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(column, value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Store bundles every SQL repository behind one handle so it can be injected
// wherever a single repository interface is expected.
type Store struct {
	*UserRepository
	*CredentialRepository
	*ClientRepository
	*AppointmentRepository
	*MeasurementRepository
	*SessionRepository

	pool *ConnectionPool
}

// NewStore builds the repositories over an existing pool.
func NewStore(pool *ConnectionPool) *Store {
	return &Store{
		UserRepository:        NewUserRepository(pool),
		CredentialRepository:  NewCredentialRepository(pool),
		ClientRepository:      NewClientRepository(pool),
		AppointmentRepository: NewAppointmentRepository(pool),
		MeasurementRepository: NewMeasurementRepository(pool),
		SessionRepository:     NewSessionRepository(pool),
		pool:                  pool,
	}
}

// Open connects to the configured database, applies migrations and returns
// the ready store.
func Open(ctx context.Context, config Config) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return NewStore(pool), nil
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *ConnectionPool {
	return s.pool
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.pool.Close()
}
