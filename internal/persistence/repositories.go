package persistence

import (
	"context"
	"time"
)

// UserRepository stores account profiles.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// CredentialRepository stores password hashes keyed by user ID and email.
type CredentialRepository interface {
	CreateCredential(ctx context.Context, credential Credential) error
	GetCredential(ctx context.Context, userID string) (Credential, error)
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
	DeleteCredential(ctx context.Context, userID string) error
}

// ClientFilter narrows client profile queries.
type ClientFilter struct {
	OwnerID string
}

// ClientRepository stores client profiles.
type ClientRepository interface {
	CreateClient(ctx context.Context, client Client) error
	UpdateClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context, filter ClientFilter) ([]Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// AppointmentFilter narrows appointment queries. Empty fields are ignored and
// the time bounds are inclusive.
type AppointmentFilter struct {
	ProfessionalID string
	ClientID       string
	ScheduledFrom  *time.Time
	ScheduledTo    *time.Time
}

// AppointmentRepository stores appointments. Listings are ordered by
// ScheduledAt ascending.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointment(ctx context.Context, appointment Appointment) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]Appointment, error)
}

// MeasurementRepository stores measurement history. Listings are ordered by
// RecordedAt descending.
type MeasurementRepository interface {
	CreateMeasurement(ctx context.Context, measurement Measurement) error
	ListMeasurementsByClient(ctx context.Context, clientID string) ([]Measurement, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) error
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
