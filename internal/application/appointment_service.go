package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// AppointmentService books appointments and tracks their status.
type AppointmentService struct {
	appointments AppointmentRepository
	idGenerator  func() string
	now          func() time.Time
	options      serviceOptions
}

// NewAppointmentService wires dependencies for the appointment service.
func NewAppointmentService(appointments AppointmentRepository, idGenerator func() string, now func() time.Time, opts ...ServiceOption) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AppointmentService{
		appointments: appointments,
		idGenerator:  idGenerator,
		now:          now,
		options:      newServiceOptions(opts),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.options.logger, "AppointmentService", operation, attrs...)
}

// CreateAppointment books a new appointment in the scheduled state.
func (s *AppointmentService) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (appointment Appointment, err error) {
	if s == nil || s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "CreateAppointment", "principal_id", params.Principal.UserID, "client_id", params.ClientID)
	defer func() {
		logOutcome(ctx, logger, err, "appointment creation", "appointment_id", appointment.ID, "scheduled_at", appointment.ScheduledAt)
	}()

	if !params.Principal.IsProfessional() {
		return Appointment{}, ErrUnauthorized
	}

	professionalID := strings.TrimSpace(params.ProfessionalID)
	if professionalID == "" {
		professionalID = params.Principal.UserID
	}
	if professionalID != params.Principal.UserID {
		return Appointment{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	clientID := strings.TrimSpace(params.ClientID)
	if clientID == "" {
		vErr.add("client_id", "client is required")
	}
	if params.ScheduledAt.IsZero() {
		vErr.add("scheduled_at", "scheduled time is required")
	}
	if vErr.HasErrors() {
		return Appointment{}, vErr
	}

	duration := params.DurationMinutes
	if duration <= 0 {
		duration = DefaultAppointmentDuration
	}

	now := s.now()
	record := Appointment{
		ID:              s.idGenerator(),
		ClientID:        clientID,
		ProfessionalID:  professionalID,
		ScheduledAt:     params.ScheduledAt,
		DurationMinutes: duration,
		Status:          AppointmentScheduled,
		Notes:           strings.TrimSpace(params.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	appointment, err = s.appointments.CreateAppointment(storeCtx, record)
	if err != nil {
		return Appointment{}, storeError(err)
	}
	return appointment, nil
}

// ListByProfessional returns the professional's agenda, earliest first.
// Date bounds cover whole calendar days.
func (s *AppointmentService) ListByProfessional(ctx context.Context, params ListByProfessionalParams) (appointments []Appointment, err error) {
	if s == nil || s.appointments == nil {
		return nil, fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "ListByProfessional", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "appointment listing", "count", len(appointments))
	}()

	professionalID := strings.TrimSpace(params.ProfessionalID)
	if professionalID == "" {
		professionalID = params.Principal.UserID
	}
	if !params.Principal.IsProfessional() || professionalID != params.Principal.UserID {
		return nil, ErrUnauthorized
	}

	query := AppointmentQuery{ProfessionalID: professionalID}
	if params.StartDate != nil {
		from := StartOfDay(*params.StartDate)
		query.From = &from
	}
	if params.EndDate != nil {
		to := EndOfDay(*params.EndDate)
		query.To = &to
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		vErr := &ValidationError{}
		vErr.add("end", "end date must not precede start date")
		return nil, vErr
	}

	return s.list(ctx, query)
}

// ListByClient returns a client's appointments, earliest first. Clients see
// their own appointments; professionals see only the ones they booked.
func (s *AppointmentService) ListByClient(ctx context.Context, principal Principal, clientID string) (appointments []Appointment, err error) {
	if s == nil || s.appointments == nil {
		return nil, fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "ListByClient", "principal_id", principal.UserID, "client_id", clientID)
	defer func() {
		logOutcome(ctx, logger, err, "client appointment listing", "count", len(appointments))
	}()

	clientID = strings.TrimSpace(clientID)
	query := AppointmentQuery{ClientID: clientID}
	switch {
	case principal.IsClient():
		if clientID == "" {
			query.ClientID = principal.UserID
		} else if clientID != principal.UserID {
			return nil, ErrUnauthorized
		}
	case principal.IsProfessional():
		if clientID == "" {
			vErr := &ValidationError{}
			vErr.add("client_id", "client is required")
			return nil, vErr
		}
		query.ProfessionalID = principal.UserID
	default:
		return nil, ErrUnauthorized
	}

	return s.list(ctx, query)
}

// SetStatus moves an appointment to any known status.
func (s *AppointmentService) SetStatus(ctx context.Context, principal Principal, appointmentID, status string) (appointment Appointment, err error) {
	if s == nil || s.appointments == nil {
		return Appointment{}, fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "SetStatus", "principal_id", principal.UserID, "appointment_id", appointmentID, "status", status)
	defer func() {
		logOutcome(ctx, logger, err, "appointment status change")
	}()

	next, ok := ParseAppointmentStatus(status)
	if !ok {
		vErr := &ValidationError{}
		vErr.add("status", "status must be one of scheduled, completed, cancelled, no-show")
		return Appointment{}, vErr
	}
	if !principal.IsProfessional() {
		return Appointment{}, ErrUnauthorized
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	current, err := s.appointments.GetAppointment(storeCtx, strings.TrimSpace(appointmentID))
	if err != nil {
		return Appointment{}, storeError(err)
	}
	if current.ProfessionalID != principal.UserID {
		return Appointment{}, ErrUnauthorized
	}

	current.Status = next
	current.UpdatedAt = s.now()

	appointment, err = s.appointments.UpdateAppointment(storeCtx, current)
	if err != nil {
		return Appointment{}, storeError(err)
	}
	return appointment, nil
}

// Cancel marks an appointment as cancelled.
func (s *AppointmentService) Cancel(ctx context.Context, principal Principal, appointmentID string) (Appointment, error) {
	return s.SetStatus(ctx, principal, appointmentID, string(AppointmentCancelled))
}

func (s *AppointmentService) list(ctx context.Context, query AppointmentQuery) ([]Appointment, error) {
	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	appointments, err := s.appointments.ListAppointments(storeCtx, query)
	if err != nil {
		return nil, storeError(err)
	}
	if appointments == nil {
		appointments = []Appointment{}
	}
	return appointments, nil
}

// StartOfDay returns midnight at the start of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
