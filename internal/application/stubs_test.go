package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fastArgon2 keeps hashing cheap in tests.
var fastArgon2 = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock { return &fixedClock{now: now} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type userRepoStub struct {
	mu        sync.Mutex
	users     map[string]User
	createErr error
}

func newUserRepoStub() *userRepoStub { return &userRepoStub{users: map[string]User{}} }

func (r *userRepoStub) CreateUser(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return User{}, r.createErr
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return User{}, ErrAlreadyExists
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *userRepoStub) GetUser(_ context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *userRepoStub) GetUserByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *userRepoStub) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type credentialStoreStub struct {
	mu          sync.Mutex
	credentials map[string]Credential
	getErr      error
}

func newCredentialStoreStub() *credentialStoreStub {
	return &credentialStoreStub{credentials: map[string]Credential{}}
}

func (s *credentialStoreStub) CreateCredential(_ context.Context, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[credential.UserID] = credential
	return nil
}

func (s *credentialStoreStub) GetCredential(_ context.Context, userID string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.credentials[userID]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return credential, nil
}

func (s *credentialStoreStub) GetCredentialByEmail(_ context.Context, email string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Credential{}, s.getErr
	}
	for _, credential := range s.credentials {
		if credential.Email == email {
			return credential, nil
		}
	}
	return Credential{}, ErrNotFound
}

func (s *credentialStoreStub) DeleteCredential(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[userID]; !ok {
		return ErrNotFound
	}
	delete(s.credentials, userID)
	return nil
}

type sessionRepoStub struct {
	mu          sync.Mutex
	sessions    map[string]Session
	createErr   error
	revokeErr   error
	deleteCalls []time.Time
}

func newSessionRepoStub() *sessionRepoStub { return &sessionRepoStub{sessions: map[string]Session{}} }

func (r *sessionRepoStub) CreateSession(_ context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return Session{}, r.createErr
	}
	session.Token = ""
	r.sessions[session.ID] = session
	return session, nil
}

func (r *sessionRepoStub) GetSession(_ context.Context, id string) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (r *sessionRepoStub) UpdateSession(_ context.Context, session Session) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return Session{}, ErrNotFound
	}
	session.Token = ""
	r.sessions[session.ID] = session
	return session, nil
}

func (r *sessionRepoStub) RevokeSession(_ context.Context, id string, revokedAt time.Time) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revokeErr != nil {
		return Session{}, r.revokeErr
	}
	session, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if session.RevokedAt == nil {
		session.RevokedAt = &revokedAt
		r.sessions[id] = session
	}
	return session, nil
}

func (r *sessionRepoStub) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCalls = append(r.deleteCalls, reference)
	return nil
}

// tokenIssuerStub encodes claims as "sid|uid|role|exp" and checks expiry
// against its clock. A "tampered" token fails both Parse and Inspect.
type tokenIssuerStub struct {
	now func() time.Time
}

func (s tokenIssuerStub) Issue(claims SessionClaims) (string, error) {
	return strings.Join([]string{claims.SessionID, claims.UserID, string(claims.Role), claims.ExpiresAt.Format(time.RFC3339Nano)}, "|"), nil
}

func (s tokenIssuerStub) Inspect(token string) (SessionClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 {
		return SessionClaims{}, ErrUnauthorized
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, parts[3])
	if err != nil {
		return SessionClaims{}, ErrUnauthorized
	}
	return SessionClaims{SessionID: parts[0], UserID: parts[1], Role: Role(parts[2]), ExpiresAt: expiresAt}, nil
}

func (s tokenIssuerStub) Parse(token string) (SessionClaims, error) {
	claims, err := s.Inspect(token)
	if err != nil {
		return SessionClaims{}, err
	}
	if !claims.ExpiresAt.After(s.now()) {
		return SessionClaims{}, ErrSessionExpired
	}
	return claims, nil
}

type clientRepoStub struct {
	mu      sync.Mutex
	clients map[string]ClientProfile
	listErr error
}

func newClientRepoStub() *clientRepoStub { return &clientRepoStub{clients: map[string]ClientProfile{}} }

func (r *clientRepoStub) CreateClient(_ context.Context, client ClientProfile) (ClientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[client.ID]; ok {
		return ClientProfile{}, ErrAlreadyExists
	}
	r.clients[client.ID] = client
	return client, nil
}

func (r *clientRepoStub) UpdateClient(_ context.Context, client ClientProfile) (ClientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[client.ID]; !ok {
		return ClientProfile{}, ErrNotFound
	}
	r.clients[client.ID] = client
	return client, nil
}

func (r *clientRepoStub) GetClient(_ context.Context, id string) (ClientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[id]
	if !ok {
		return ClientProfile{}, ErrNotFound
	}
	return client, nil
}

func (r *clientRepoStub) ListClients(_ context.Context, ownerID string) ([]ClientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var clients []ClientProfile
	for _, client := range r.clients {
		if client.OwnerID == ownerID {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].CreatedAt.Before(clients[j].CreatedAt) })
	return clients, nil
}

func (r *clientRepoStub) DeleteClient(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return ErrNotFound
	}
	delete(r.clients, id)
	return nil
}

type appointmentRepoStub struct {
	mu           sync.Mutex
	appointments map[string]Appointment
	queries      []AppointmentQuery
}

func newAppointmentRepoStub() *appointmentRepoStub {
	return &appointmentRepoStub{appointments: map[string]Appointment{}}
}

func (r *appointmentRepoStub) CreateAppointment(_ context.Context, appointment Appointment) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[appointment.ID] = appointment
	return appointment, nil
}

func (r *appointmentRepoStub) UpdateAppointment(_ context.Context, appointment Appointment) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[appointment.ID]; !ok {
		return Appointment{}, ErrNotFound
	}
	r.appointments[appointment.ID] = appointment
	return appointment, nil
}

func (r *appointmentRepoStub) GetAppointment(_ context.Context, id string) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appointment, ok := r.appointments[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return appointment, nil
}

func (r *appointmentRepoStub) ListAppointments(_ context.Context, query AppointmentQuery) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	var out []Appointment
	for _, a := range r.appointments {
		if query.ProfessionalID != "" && a.ProfessionalID != query.ProfessionalID {
			continue
		}
		if query.ClientID != "" && a.ClientID != query.ClientID {
			continue
		}
		if query.From != nil && a.ScheduledAt.Before(*query.From) {
			continue
		}
		if query.To != nil && a.ScheduledAt.After(*query.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

type measurementRepoStub struct {
	mu           sync.Mutex
	measurements []Measurement
	listErr      error
}

func (r *measurementRepoStub) CreateMeasurement(_ context.Context, measurement Measurement) (Measurement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.measurements = append(r.measurements, measurement)
	return measurement, nil
}

func (r *measurementRepoStub) ListMeasurements(_ context.Context, clientID string) ([]Measurement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []Measurement
	for _, m := range r.measurements {
		if m.ClientID == clientID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

type blobStoreStub struct {
	mu       sync.Mutex
	paths    []string
	failures map[int]error
	calls    int
}

func (b *blobStoreStub) Put(_ context.Context, data []byte, path, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	call := b.calls
	b.calls++
	if err, ok := b.failures[call]; ok {
		return "", err
	}
	if contentType != PhotoContentType {
		return "", errors.New("unexpected content type")
	}
	b.paths = append(b.paths, path)
	return "https://cdn.example.com/" + path, nil
}

// slowUserRepo blocks until the caller's context is done.
type slowUserRepo struct{ *userRepoStub }

func (r *slowUserRepo) GetUser(ctx context.Context, _ string) (User, error) {
	<-ctx.Done()
	return User{}, ctx.Err()
}
