package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/nutriagenda/internal/application"
)

// FastArgon2idParams keeps password hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// ServiceFactory builds application services on a shared deterministic clock
// and ID sequence.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory defaults to ReferenceTime, "id-<n>" identifiers and a
// discarding logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// WithLogger overrides the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

func (f *ServiceFactory) options() []application.ServiceOption {
	return []application.ServiceOption{application.WithLogger(f.Logger)}
}

// AuthServiceDeps captures dependencies for constructing an auth service.
// Passwords are hashed with FastArgon2idParams.
type AuthServiceDeps struct {
	Users       application.UserRepository
	Credentials application.CredentialStore
	Sessions    application.SessionRepository
	Tokens      application.TokenIssuer
	SessionTTL  time.Duration
}

// NewAuthService builds an auth service backed by the local credential provider.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := f.Clock.NowFunc()
	provider := application.NewLocalCredentialProvider(deps.Credentials, f.IDGenerator.NextFunc(), now).WithParams(FastArgon2idParams)
	return application.NewAuthService(deps.Users, provider, deps.Sessions, deps.Tokens, f.IDGenerator.NextFunc(), now, ttl, f.options()...)
}

// ClientServiceDeps captures dependencies for constructing a client service.
type ClientServiceDeps struct {
	Clients application.ClientRepository
	Users   application.UserDirectory
}

// NewClientService builds a client service.
func (f *ServiceFactory) NewClientService(deps ClientServiceDeps) *application.ClientService {
	return application.NewClientService(deps.Clients, deps.Users, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.options()...)
}

// NewAppointmentService builds an appointment service.
func (f *ServiceFactory) NewAppointmentService(appointments application.AppointmentRepository) *application.AppointmentService {
	return application.NewAppointmentService(appointments, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.options()...)
}

// MeasurementServiceDeps captures dependencies for constructing a measurement
// service. Blobs may be nil, in which case photos are skipped.
type MeasurementServiceDeps struct {
	Measurements application.MeasurementRepository
	Clients      application.ClientLookup
	Blobs        application.BlobStore
}

// NewMeasurementService builds a measurement service.
func (f *ServiceFactory) NewMeasurementService(deps MeasurementServiceDeps) *application.MeasurementService {
	return application.NewMeasurementService(deps.Measurements, deps.Clients, deps.Blobs, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.options()...)
}

// NewDashboardService combines already built services.
func (f *ServiceFactory) NewDashboardService(clients *application.ClientService, appointments *application.AppointmentService, measurements *application.MeasurementService) *application.DashboardService {
	return application.NewDashboardService(clients, appointments, measurements, f.options()...)
}
