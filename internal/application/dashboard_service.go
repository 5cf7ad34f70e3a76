package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DashboardService picks the dashboard for a principal and assembles its summary.
type DashboardService struct {
	clients      *ClientService
	appointments *AppointmentService
	measurements *MeasurementService
	options      serviceOptions
}

// NewDashboardService composes the read paths of the other services.
func NewDashboardService(clients *ClientService, appointments *AppointmentService, measurements *MeasurementService, opts ...ServiceOption) *DashboardService {
	return &DashboardService{
		clients:      clients,
		appointments: appointments,
		measurements: measurements,
		options:      newServiceOptions(opts),
	}
}

func (s *DashboardService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.options.logger, "DashboardService", operation, attrs...)
}

// Route returns the view matching the principal's role.
func (s *DashboardService) Route(principal Principal) (View, error) {
	switch {
	case principal.IsProfessional():
		return ViewProfessional, nil
	case principal.IsClient():
		return ViewClient, nil
	default:
		return "", ErrUnauthorized
	}
}

// ProfessionalSummary counts the professional's clients and lists today's and
// upcoming scheduled appointments.
func (s *DashboardService) ProfessionalSummary(ctx context.Context, principal Principal, today time.Time) (summary ProfessionalSummary, err error) {
	if s == nil || s.clients == nil || s.appointments == nil {
		return ProfessionalSummary{}, fmt.Errorf("dashboard dependencies not configured")
	}

	logger := s.loggerWith(ctx, "ProfessionalSummary", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "professional summary",
			"total_clients", summary.TotalClients,
			"appointments_today", len(summary.AppointmentsToday),
			"upcoming", len(summary.UpcomingAppointments),
		)
	}()

	if !principal.IsProfessional() {
		return ProfessionalSummary{}, ErrUnauthorized
	}

	summary.TotalClients, err = s.clients.CountClients(ctx, principal)
	if err != nil {
		return ProfessionalSummary{}, err
	}

	summary.AppointmentsToday, err = s.appointments.ListByProfessional(ctx, ListByProfessionalParams{
		Principal: principal,
		StartDate: &today,
		EndDate:   &today,
	})
	if err != nil {
		return ProfessionalSummary{}, err
	}

	all, err := s.appointments.ListByProfessional(ctx, ListByProfessionalParams{
		Principal: principal,
		StartDate: &today,
	})
	if err != nil {
		return ProfessionalSummary{}, err
	}

	summary.UpcomingAppointments = make([]Appointment, 0, len(all))
	for _, appointment := range all {
		if appointment.Status == AppointmentScheduled {
			summary.UpcomingAppointments = append(summary.UpcomingAppointments, appointment)
		}
	}
	return summary, nil
}

// ClientSummary returns the client's next scheduled appointment and latest measurement.
func (s *DashboardService) ClientSummary(ctx context.Context, principal Principal, now time.Time) (summary ClientSummary, err error) {
	if s == nil || s.appointments == nil || s.measurements == nil {
		return ClientSummary{}, fmt.Errorf("dashboard dependencies not configured")
	}

	logger := s.loggerWith(ctx, "ClientSummary", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "client summary",
			"has_next_appointment", summary.NextAppointment != nil,
			"has_measurement", summary.LatestMeasurement != nil,
		)
	}()

	if !principal.IsClient() {
		return ClientSummary{}, ErrUnauthorized
	}

	appointments, err := s.appointments.ListByClient(ctx, principal, principal.UserID)
	if err != nil {
		return ClientSummary{}, err
	}
	for i := range appointments {
		if appointments[i].Status == AppointmentScheduled && !appointments[i].ScheduledAt.Before(now) {
			next := appointments[i]
			summary.NextAppointment = &next
			break
		}
	}

	latest, err := s.measurements.Latest(ctx, principal, principal.UserID)
	switch {
	case errors.Is(err, ErrNotFound):
		err = nil
	case err != nil:
		return ClientSummary{}, err
	default:
		summary.LatestMeasurement = &latest
		summary.BMICategory = BMICategory(latest.BMI)
	}
	return summary, nil
}
