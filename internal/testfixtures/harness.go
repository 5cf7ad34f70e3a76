package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/nutriagenda/internal/persistence"
	"github.com/example/nutriagenda/internal/persistence/memory"
	"github.com/example/nutriagenda/internal/persistence/sqldb"
)

// Harness exposes every repository of one storage backend.
type Harness struct {
	Name         string
	Users        persistence.UserRepository
	Credentials  persistence.CredentialRepository
	Clients      persistence.ClientRepository
	Appointments persistence.AppointmentRepository
	Measurements persistence.MeasurementRepository
	Sessions     persistence.SessionRepository

	cleanup func()
}

type allRepositories interface {
	persistence.UserRepository
	persistence.CredentialRepository
	persistence.ClientRepository
	persistence.AppointmentRepository
	persistence.MeasurementRepository
	persistence.SessionRepository
}

func newHarness(name string, repos allRepositories, cleanup func()) *Harness {
	return &Harness{
		Name:         name,
		Users:        repos,
		Credentials:  repos,
		Clients:      repos,
		Appointments: repos,
		Measurements: repos,
		Sessions:     repos,
		cleanup:      cleanup,
	}
}

// Close releases the backend. It is also registered with tb.Cleanup.
func (h *Harness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a migrated SQLite database in a temporary directory.
func NewSQLiteHarness(tb testing.TB) *Harness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "nutriagenda.db")
	store, err := sqldb.Open(context.Background(), sqldb.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}

	harness := newHarness("sqlite", store, func() { _ = store.Close() })
	tb.Cleanup(harness.Close)
	return harness
}

// NewMemoryHarness returns an empty in-memory backend.
func NewMemoryHarness(tb testing.TB) *Harness {
	tb.Helper()

	storage := memory.New()
	harness := newHarness("memory", storage, func() { _ = storage.Close() })
	tb.Cleanup(harness.Close)
	return harness
}

// Backends lists the harness constructors that every repository contract
// test runs against.
func Backends() map[string]func(testing.TB) *Harness {
	return map[string]func(testing.TB) *Harness{
		"memory": NewMemoryHarness,
		"sqlite": NewSQLiteHarness,
	}
}
