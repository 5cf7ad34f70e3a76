package http

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/example/nutriagenda/internal/application"
)

var (
	discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

	professional = application.Principal{UserID: "pro-1", Role: application.RoleProfessional}
	client       = application.Principal{UserID: "client-1", Role: application.RoleClient}

	fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
)

type validatorStub struct {
	principals map[string]application.Principal
	err        error
	calls      []string
}

func (v *validatorStub) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	v.calls = append(v.calls, token)
	if v.err != nil {
		return application.Principal{}, v.err
	}
	principal, ok := v.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthorized
	}
	return principal, nil
}

type authServiceStub struct {
	registerErr error
	loginResult application.LoginResult
	loginErr    error
	logoutErr   error
	logouts     []string
	refreshed   application.Session
	user        application.User
	userErr     error
	lastToken   string
}

func (s *authServiceStub) Register(_ context.Context, params application.RegisterParams) (application.User, error) {
	if s.registerErr != nil {
		return application.User{}, s.registerErr
	}
	return application.User{ID: "user-1", Email: params.Email, DisplayName: params.DisplayName, Role: application.Role(params.Role), CreatedAt: fixedNow}, nil
}

func (s *authServiceStub) Login(context.Context, application.LoginParams) (application.LoginResult, error) {
	return s.loginResult, s.loginErr
}

func (s *authServiceStub) Logout(_ context.Context, token string) error {
	s.logouts = append(s.logouts, token)
	return s.logoutErr
}

func (s *authServiceStub) RefreshSession(_ context.Context, token string) (application.Session, error) {
	s.lastToken = token
	return s.refreshed, nil
}

func (s *authServiceStub) CurrentUser(_ context.Context, token string) (application.User, error) {
	s.lastToken = token
	return s.user, s.userErr
}

type recorderStub struct {
	outcomes []string
}

func (r *recorderStub) RecordAuth(action, outcome string) {
	r.outcomes = append(r.outcomes, action+":"+outcome)
}

type clientServiceStub struct {
	clients   []application.ClientProfile
	err       error
	created   application.CreateClientParams
	updated   application.UpdateClientParams
	deletedID string
}

func (s *clientServiceStub) CreateClient(_ context.Context, params application.CreateClientParams) (application.ClientProfile, error) {
	s.created = params
	if s.err != nil {
		return application.ClientProfile{}, s.err
	}
	return application.ClientProfile{
		ID:             "client-9",
		OwnerID:        params.Principal.UserID,
		PersonalInfo:   params.PersonalInfo,
		MedicalHistory: params.MedicalHistory,
		CreatedAt:      fixedNow,
		UpdatedAt:      fixedNow,
	}, nil
}

func (s *clientServiceStub) ListClientsByOwner(context.Context, application.Principal, string) ([]application.ClientProfile, error) {
	return s.clients, s.err
}

func (s *clientServiceStub) GetClient(_ context.Context, _ application.Principal, clientID string) (application.ClientProfile, error) {
	if s.err != nil {
		return application.ClientProfile{}, s.err
	}
	for _, c := range s.clients {
		if c.ID == clientID {
			return c, nil
		}
	}
	return application.ClientProfile{}, application.ErrNotFound
}

func (s *clientServiceStub) UpdateClient(_ context.Context, params application.UpdateClientParams) (application.ClientProfile, error) {
	s.updated = params
	if s.err != nil {
		return application.ClientProfile{}, s.err
	}
	return application.ClientProfile{ID: params.ClientID, OwnerID: params.Principal.UserID}, nil
}

func (s *clientServiceStub) DeleteClient(_ context.Context, _ application.Principal, clientID string) error {
	s.deletedID = clientID
	return s.err
}

type appointmentServiceStub struct {
	appointments    []application.Appointment
	err             error
	created         application.CreateAppointmentParams
	professionalArg *application.ListByProfessionalParams
	clientArg       *string
	statusArg       string
	cancelledID     string
}

func (s *appointmentServiceStub) CreateAppointment(_ context.Context, params application.CreateAppointmentParams) (application.Appointment, error) {
	s.created = params
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	return application.Appointment{
		ID:              "appt-1",
		ClientID:        params.ClientID,
		ProfessionalID:  params.Principal.UserID,
		ScheduledAt:     params.ScheduledAt,
		DurationMinutes: params.DurationMinutes,
		Status:          application.AppointmentScheduled,
		CreatedAt:       fixedNow,
		UpdatedAt:       fixedNow,
	}, nil
}

func (s *appointmentServiceStub) ListByProfessional(_ context.Context, params application.ListByProfessionalParams) ([]application.Appointment, error) {
	s.professionalArg = &params
	return s.appointments, s.err
}

func (s *appointmentServiceStub) ListByClient(_ context.Context, _ application.Principal, clientID string) ([]application.Appointment, error) {
	s.clientArg = &clientID
	return s.appointments, s.err
}

func (s *appointmentServiceStub) SetStatus(_ context.Context, _ application.Principal, appointmentID, status string) (application.Appointment, error) {
	s.statusArg = status
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	return application.Appointment{ID: appointmentID, Status: application.AppointmentStatus(status)}, nil
}

func (s *appointmentServiceStub) Cancel(_ context.Context, _ application.Principal, appointmentID string) (application.Appointment, error) {
	s.cancelledID = appointmentID
	if s.err != nil {
		return application.Appointment{}, s.err
	}
	return application.Appointment{ID: appointmentID, Status: application.AppointmentCancelled}, nil
}

type measurementServiceStub struct {
	measurements []application.Measurement
	progress     application.Progress
	err          error
	recorded     application.RecordMeasurementParams
}

func (s *measurementServiceStub) RecordMeasurement(_ context.Context, params application.RecordMeasurementParams) (application.Measurement, error) {
	s.recorded = params
	if s.err != nil {
		return application.Measurement{}, s.err
	}
	return application.Measurement{
		ID:         "m-1",
		ClientID:   params.ClientID,
		RecordedAt: fixedNow,
		WeightKg:   params.WeightKg,
		HeightCm:   params.HeightCm,
		BMI:        application.CalculateBMI(params.WeightKg, params.HeightCm),
	}, nil
}

func (s *measurementServiceStub) ListByClient(context.Context, application.Principal, string) ([]application.Measurement, error) {
	return s.measurements, s.err
}

func (s *measurementServiceStub) Latest(context.Context, application.Principal, string) (application.Measurement, error) {
	if s.err != nil {
		return application.Measurement{}, s.err
	}
	if len(s.measurements) == 0 {
		return application.Measurement{}, application.ErrNotFound
	}
	return s.measurements[0], nil
}

func (s *measurementServiceStub) Progress(context.Context, application.Principal, string) (application.Progress, error) {
	return s.progress, s.err
}

type dashboardServiceStub struct {
	professional application.ProfessionalSummary
	client       application.ClientSummary
	err          error
}

func (s *dashboardServiceStub) Route(principal application.Principal) (application.View, error) {
	switch principal.Role {
	case application.RoleProfessional:
		return application.ViewProfessional, nil
	case application.RoleClient:
		return application.ViewClient, nil
	default:
		return "", application.ErrUnauthorized
	}
}

func (s *dashboardServiceStub) ProfessionalSummary(context.Context, application.Principal, time.Time) (application.ProfessionalSummary, error) {
	return s.professional, s.err
}

func (s *dashboardServiceStub) ClientSummary(context.Context, application.Principal, time.Time) (application.ClientSummary, error) {
	return s.client, s.err
}
