package application

import (
	"context"
	"time"
)

// UserRepository persists account profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// UserDirectory resolves user profiles by ID.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// CredentialProvider owns passwords. It returns ErrNotFound for unknown
// emails, ErrInvalidCredentials for wrong passwords and ErrAlreadyExists for
// duplicate emails; anything else is treated as a provider failure.
type CredentialProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (string, error)
	VerifyPassword(ctx context.Context, userID, password string) error
	DeleteUser(ctx context.Context, userID string) error
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// TokenIssuer signs and verifies session tokens. Parse rejects expired
// tokens with ErrSessionExpired and anything else invalid with
// ErrUnauthorized. Inspect checks only the signature.
type TokenIssuer interface {
	Issue(claims SessionClaims) (string, error)
	Parse(token string) (SessionClaims, error)
	Inspect(token string) (SessionClaims, error)
}

// ClientRepository persists client profiles.
type ClientRepository interface {
	CreateClient(ctx context.Context, client ClientProfile) (ClientProfile, error)
	UpdateClient(ctx context.Context, client ClientProfile) (ClientProfile, error)
	GetClient(ctx context.Context, id string) (ClientProfile, error)
	ListClients(ctx context.Context, ownerID string) ([]ClientProfile, error)
	DeleteClient(ctx context.Context, id string) error
}

// ClientLookup resolves a client profile for ownership checks.
type ClientLookup interface {
	GetClient(ctx context.Context, id string) (ClientProfile, error)
}

// AppointmentRepository persists appointments. Listings are earliest first.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	UpdateAppointment(ctx context.Context, appointment Appointment) (Appointment, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, query AppointmentQuery) ([]Appointment, error)
}

// MeasurementRepository persists measurement history. Listings are most recent first.
type MeasurementRepository interface {
	CreateMeasurement(ctx context.Context, measurement Measurement) (Measurement, error)
	ListMeasurements(ctx context.Context, clientID string) ([]Measurement, error)
}

// BlobStore stores opaque bytes and returns a public URL for them.
type BlobStore interface {
	Put(ctx context.Context, data []byte, path, contentType string) (string, error)
}
