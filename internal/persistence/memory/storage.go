// Package memory provides the demo-mode persistence layer backed by
// mutex-guarded maps.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/nutriagenda/internal/persistence"
)

// Storage implements every persistence repository in process memory.
type Storage struct {
	mu           sync.RWMutex
	users        map[string]persistence.User
	credentials  map[string]persistence.Credential
	clients      map[string]persistence.Client
	appointments map[string]persistence.Appointment
	measurements map[string]persistence.Measurement
	sessions     map[string]persistence.Session
}

// New returns an empty Storage instance.
func New() *Storage {
	return &Storage{
		users:        make(map[string]persistence.User),
		credentials:  make(map[string]persistence.Credential),
		clients:      make(map[string]persistence.Client),
		appointments: make(map[string]persistence.Appointment),
		measurements: make(map[string]persistence.Measurement),
		sessions:     make(map[string]persistence.Session),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s: %w", user.ID, persistence.ErrDuplicate)
	}
	lower := normalizeEmail(user.Email)
	for _, existing := range s.users {
		if normalizeEmail(existing.Email) == lower {
			return fmt.Errorf("memory: email %s: %w", user.Email, persistence.ErrDuplicate)
		}
	}

	user.Email = lower
	s.users[user.ID] = user
	return nil
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := normalizeEmail(email)
	for _, user := range s.users {
		if user.Email == lower {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// DeleteUser removes a user by ID.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// --- CredentialRepository implementation ---

// CreateCredential stores a password hash for a user.
func (s *Storage) CreateCredential(ctx context.Context, credential persistence.Credential) error {
	if credential.UserID == "" || credential.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.credentials[credential.UserID]; ok {
		return fmt.Errorf("memory: credential %s: %w", credential.UserID, persistence.ErrDuplicate)
	}
	lower := normalizeEmail(credential.Email)
	for _, existing := range s.credentials {
		if existing.Email == lower {
			return fmt.Errorf("memory: credential email %s: %w", credential.Email, persistence.ErrDuplicate)
		}
	}

	credential.Email = lower
	s.credentials[credential.UserID] = credential
	return nil
}

// GetCredential retrieves a credential by user ID.
func (s *Storage) GetCredential(ctx context.Context, userID string) (persistence.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	credential, ok := s.credentials[userID]
	if !ok {
		return persistence.Credential{}, persistence.ErrNotFound
	}
	return credential, nil
}

// GetCredentialByEmail retrieves a credential by email address.
func (s *Storage) GetCredentialByEmail(ctx context.Context, email string) (persistence.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := normalizeEmail(email)
	for _, credential := range s.credentials {
		if credential.Email == lower {
			return credential, nil
		}
	}
	return persistence.Credential{}, persistence.ErrNotFound
}

// DeleteCredential removes a credential by user ID.
func (s *Storage) DeleteCredential(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.credentials[userID]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.credentials, userID)
	return nil
}

// --- ClientRepository implementation ---

// CreateClient stores a new client profile.
func (s *Storage) CreateClient(ctx context.Context, client persistence.Client) error {
	if client.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[client.ID]; ok {
		return fmt.Errorf("memory: client %s: %w", client.ID, persistence.ErrDuplicate)
	}
	s.clients[client.ID] = cloneClient(client)
	return nil
}

// UpdateClient replaces an existing client profile. Owner and creation time
// are preserved from the stored record.
func (s *Storage) UpdateClient(ctx context.Context, client persistence.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.clients[client.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	client.OwnerID = existing.OwnerID
	client.CreatedAt = existing.CreatedAt
	s.clients[client.ID] = cloneClient(client)
	return nil
}

// GetClient retrieves a client profile by ID.
func (s *Storage) GetClient(ctx context.Context, id string) (persistence.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[id]
	if !ok {
		return persistence.Client{}, persistence.ErrNotFound
	}
	return cloneClient(client), nil
}

// ListClients returns client profiles ordered by CreatedAt ascending.
func (s *Storage) ListClients(ctx context.Context, filter persistence.ClientFilter) ([]persistence.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]persistence.Client, 0)
	for _, client := range s.clients {
		if filter.OwnerID != "" && client.OwnerID != filter.OwnerID {
			continue
		}
		clients = append(clients, cloneClient(client))
	}

	sort.Slice(clients, func(i, j int) bool {
		if clients[i].CreatedAt.Equal(clients[j].CreatedAt) {
			return clients[i].ID < clients[j].ID
		}
		return clients[i].CreatedAt.Before(clients[j].CreatedAt)
	})
	return clients, nil
}

// DeleteClient removes a client profile. Appointments and measurements that
// reference it are left in place.
func (s *Storage) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

// --- AppointmentRepository implementation ---

// CreateAppointment stores a new appointment.
func (s *Storage) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[appointment.ID]; ok {
		return fmt.Errorf("memory: appointment %s: %w", appointment.ID, persistence.ErrDuplicate)
	}
	s.appointments[appointment.ID] = appointment
	return nil
}

// UpdateAppointment replaces an existing appointment.
func (s *Storage) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.appointments[appointment.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	appointment.CreatedAt = existing.CreatedAt
	s.appointments[appointment.ID] = appointment
	return nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Storage) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	return appointment, nil
}

// ListAppointments returns appointments matching the filter ordered by ScheduledAt ascending.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appointments := make([]persistence.Appointment, 0)
	for _, appointment := range s.appointments {
		if !matchesAppointmentFilter(appointment, filter) {
			continue
		}
		appointments = append(appointments, appointment)
	}

	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].ScheduledAt.Equal(appointments[j].ScheduledAt) {
			return appointments[i].ID < appointments[j].ID
		}
		return appointments[i].ScheduledAt.Before(appointments[j].ScheduledAt)
	})
	return appointments, nil
}

// --- MeasurementRepository implementation ---

// CreateMeasurement appends a measurement snapshot.
func (s *Storage) CreateMeasurement(ctx context.Context, measurement persistence.Measurement) error {
	if measurement.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.measurements[measurement.ID]; ok {
		return fmt.Errorf("memory: measurement %s: %w", measurement.ID, persistence.ErrDuplicate)
	}
	s.measurements[measurement.ID] = cloneMeasurement(measurement)
	return nil
}

// ListMeasurementsByClient returns a client's measurements, most recent first.
func (s *Storage) ListMeasurementsByClient(ctx context.Context, clientID string) ([]persistence.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	measurements := make([]persistence.Measurement, 0)
	for _, measurement := range s.measurements {
		if measurement.ClientID != clientID {
			continue
		}
		measurements = append(measurements, cloneMeasurement(measurement))
	}

	sort.Slice(measurements, func(i, j int) bool {
		if measurements[i].RecordedAt.Equal(measurements[j].RecordedAt) {
			return measurements[i].ID > measurements[j].ID
		}
		return measurements[i].RecordedAt.After(measurements[j].RecordedAt)
	})
	return measurements, nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session.
func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" || session.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("memory: session %s: %w", session.ID, persistence.ErrDuplicate)
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// GetSession retrieves a session by ID.
func (s *Storage) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// UpdateSession replaces an existing session.
func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[session.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	session.CreatedAt = existing.CreatedAt
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// RevokeSession marks a session as revoked. Revoking twice keeps the first timestamp.
func (s *Storage) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if session.RevokedAt == nil {
		at := revokedAt
		session.RevokedAt = &at
		session.UpdatedAt = revokedAt
		s.sessions[id] = session
	}
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions that expired at or before the reference time.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, id)
		}
	}
	return nil
}

// --- Helpers ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneClient(client persistence.Client) persistence.Client {
	client.PersonalInfo = clonePersonalInfo(client.PersonalInfo)
	client.MedicalHistory = cloneMedicalHistory(client.MedicalHistory)
	return client
}

func clonePersonalInfo(info persistence.PersonalInfo) persistence.PersonalInfo {
	if info.BirthDate != nil {
		copy := *info.BirthDate
		info.BirthDate = &copy
	}
	info.Extra = cloneMap(info.Extra)
	return info
}

func cloneMedicalHistory(history persistence.MedicalHistory) persistence.MedicalHistory {
	history.Conditions = cloneStrings(history.Conditions)
	history.Allergies = cloneStrings(history.Allergies)
	history.Medications = cloneStrings(history.Medications)
	history.Extra = cloneMap(history.Extra)
	return history
}

func cloneMeasurement(measurement persistence.Measurement) persistence.Measurement {
	measurement.WaistCm = cloneFloat(measurement.WaistCm)
	measurement.HipCm = cloneFloat(measurement.HipCm)
	measurement.BodyFatPct = cloneFloat(measurement.BodyFatPct)
	measurement.MuscleMassPct = cloneFloat(measurement.MuscleMassPct)
	measurement.PhotoURLs = cloneStrings(measurement.PhotoURLs)
	return measurement
}

func cloneSession(session persistence.Session) persistence.Session {
	if session.RevokedAt != nil {
		copy := *session.RevokedAt
		session.RevokedAt = &copy
	}
	return session
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneMap(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

func matchesAppointmentFilter(appointment persistence.Appointment, filter persistence.AppointmentFilter) bool {
	if filter.ProfessionalID != "" && appointment.ProfessionalID != filter.ProfessionalID {
		return false
	}
	if filter.ClientID != "" && appointment.ClientID != filter.ClientID {
		return false
	}
	if filter.ScheduledFrom != nil && appointment.ScheduledAt.Before(*filter.ScheduledFrom) {
		return false
	}
	if filter.ScheduledTo != nil && appointment.ScheduledAt.After(*filter.ScheduledTo) {
		return false
	}
	return true
}
