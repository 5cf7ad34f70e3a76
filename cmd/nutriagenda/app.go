package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/example/nutriagenda/internal/application"
	"github.com/example/nutriagenda/internal/blob/local"
	"github.com/example/nutriagenda/internal/blob/s3"
	"github.com/example/nutriagenda/internal/config"
	httptransport "github.com/example/nutriagenda/internal/http"
	"github.com/example/nutriagenda/internal/metrics"
	"github.com/example/nutriagenda/internal/persistence/memory"
	"github.com/example/nutriagenda/internal/persistence/sqldb"
	"github.com/example/nutriagenda/internal/token"
)

// demoClientName names the client profile linked to the demo client account.
const demoClientName = "María Cliente"

// app owns the assembled services and the storage they share.
type app struct {
	handler http.Handler
	close   func() error

	auth    *application.AuthService
	clients *application.ClientService
}

func (a *app) Handler() http.Handler { return a.handler }

func (a *app) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// newApp opens storage, builds every service and mounts them on the router.
// Demo mode runs on the in-memory store with the demo accounts seeded.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	repos, ping, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	blobs, media, err := openBlobStore(ctx, cfg)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	now := time.Now
	idGenerator := uuid.NewString

	issuer, err := tokenIssuer(cfg, now)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	opts := []application.ServiceOption{
		application.WithLogger(logger),
		application.WithStoreTimeout(cfg.StoreTimeout),
	}

	users := newUserRepositoryAdapter(repos)
	clientRepo := newClientRepositoryAdapter(repos)
	provider := application.NewLocalCredentialProvider(newCredentialStoreAdapter(repos), idGenerator, now)

	authService := application.NewAuthService(users, provider, newSessionRepositoryAdapter(repos), issuer, idGenerator, now, cfg.SessionTTL, opts...)
	clientService := application.NewClientService(clientRepo, users, idGenerator, now, opts...)
	appointmentService := application.NewAppointmentService(newAppointmentRepositoryAdapter(repos), idGenerator, now, opts...)
	measurementService := application.NewMeasurementService(newMeasurementRepositoryAdapter(repos), clientRepo, blobs, idGenerator, now, opts...)
	dashboardService := application.NewDashboardService(clientService, appointmentService, measurementService, opts...)

	if cfg.DemoMode {
		if err := seedDemo(ctx, authService, clientService, logger); err != nil {
			_ = closeStore()
			return nil, err
		}
	}

	m := metrics.New()
	secureCookie := strings.HasPrefix(cfg.PublicBaseURL, "https://")

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, m, secureCookie, logger),
		Clients:        httptransport.NewClientHandler(clientService, now, logger),
		Appointments:   httptransport.NewAppointmentHandler(appointmentService, time.Local, logger),
		Measurements:   httptransport.NewMeasurementHandler(measurementService, logger),
		Dashboard:      httptransport.NewDashboardHandler(dashboardService, now, logger),
		Health:         httptransport.NewHealthHandler(ping, logger),
		Sessions:       authService,
		Media:          media,
		MetricsHandler: m.Handler(),
		Middleware:     []mux.MiddlewareFunc{httptransport.RequestLogger(logger), m.Middleware},
		CORSOrigins:    cfg.CORSOrigins,
		Logger:         logger,
	})

	return &app{
		handler: router,
		close:   closeStore,
		auth:    authService,
		clients: clientService,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repositories, func(context.Context) error, func() error, error) {
	if cfg.DemoMode {
		storage := memory.New()
		logger.Info("using in-memory storage")
		return storage, func(context.Context) error { return nil }, storage.Close, nil
	}

	driver, err := sqldb.NormalizeDriver(cfg.Credentials.Database.Driver)
	if err != nil {
		return nil, nil, nil, err
	}
	dbConfig := sqldb.DefaultConfig(cfg.Credentials.Database.DSN)
	dbConfig.Driver = driver

	store, err := sqldb.Open(ctx, dbConfig)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	logger.Info("using SQL storage", "driver", driver, "credentials_source", cfg.CredentialsSource)
	return store, store.Pool().Ping, store.Close, nil
}

// openBlobStore returns the photo store and, for local storage, the handler
// that serves the stored files.
func openBlobStore(ctx context.Context, cfg config.Config) (application.BlobStore, http.Handler, error) {
	if cfg.Credentials.HasStorage() {
		storage := cfg.Credentials.Storage
		store, err := s3.New(ctx, s3.Config{
			Bucket:          storage.Bucket,
			Region:          storage.Region,
			Endpoint:        storage.Endpoint,
			AccessKeyID:     storage.AccessKeyID,
			SecretAccessKey: storage.SecretAccessKey,
			PublicURL:       storage.PublicURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open photo bucket: %w", err)
		}
		return store, nil, nil
	}

	store, err := local.New(cfg.MediaDir, cfg.PublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Handler(), nil
}

func tokenIssuer(cfg config.Config, now func() time.Time) (application.TokenIssuer, error) {
	issuer, err := token.NewIssuer(cfg.SessionSecret, "nutriagenda", now)
	if err != nil {
		return nil, fmt.Errorf("session tokens: %w", err)
	}
	return issuer, nil
}

// seedDemo registers the demo accounts and links the demo client account to a
// profile owned by the demo professional.
func seedDemo(ctx context.Context, auth *application.AuthService, clients *application.ClientService, logger *slog.Logger) error {
	seeded, err := auth.SeedDemoAccounts(ctx)
	if err != nil {
		return fmt.Errorf("seed demo accounts: %w", err)
	}

	var professional, client application.User
	for _, user := range seeded {
		switch user.Role {
		case application.RoleProfessional:
			professional = user
		case application.RoleClient:
			client = user
		}
	}
	if professional.ID == "" || client.ID == "" {
		return nil
	}

	_, err = clients.CreateClient(ctx, application.CreateClientParams{
		Principal: application.Principal{UserID: professional.ID, Role: application.RoleProfessional},
		AccountID: client.ID,
		PersonalInfo: application.PersonalInfo{
			Name:  demoClientName,
			Email: client.Email,
			Phone: client.Phone,
		},
	})
	if err != nil {
		return fmt.Errorf("seed demo client profile: %w", err)
	}
	logger.Info("demo accounts ready", "professional", professional.Email, "client", client.Email)
	return nil
}
