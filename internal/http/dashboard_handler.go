package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/nutriagenda/internal/application"
)

type dashboardService interface {
	Route(principal application.Principal) (application.View, error)
	ProfessionalSummary(ctx context.Context, principal application.Principal, today time.Time) (application.ProfessionalSummary, error)
	ClientSummary(ctx context.Context, principal application.Principal, now time.Time) (application.ClientSummary, error)
}

// DashboardHandler routes the principal to their view and serves its summary.
type DashboardHandler struct {
	service   dashboardService
	now       func() time.Time
	responder responder
}

// NewDashboardHandler builds the handler.
func NewDashboardHandler(service dashboardService, now func() time.Time, logger *slog.Logger) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{service: service, now: now, responder: newResponder(logger)}
}

// Get answers GET /dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	view, err := h.service.Route(principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := dashboardResponse{View: string(view)}
	switch view {
	case application.ViewProfessional:
		summary, err := h.service.ProfessionalSummary(r.Context(), principal, h.now())
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		response.Professional = &professionalSummaryDTO{
			TotalClients:         summary.TotalClients,
			AppointmentsToday:    toAppointmentDTOs(summary.AppointmentsToday),
			UpcomingAppointments: toAppointmentDTOs(summary.UpcomingAppointments),
		}
	case application.ViewClient:
		summary, err := h.service.ClientSummary(r.Context(), principal, h.now())
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		dto := &clientSummaryDTO{BMICategory: summary.BMICategory}
		if summary.NextAppointment != nil {
			next := toAppointmentDTO(*summary.NextAppointment)
			dto.NextAppointment = &next
		}
		if summary.LatestMeasurement != nil {
			latest := toMeasurementDTO(*summary.LatestMeasurement)
			dto.LatestMeasurement = &latest
		}
		response.Client = dto
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", response)
}

type dashboardResponse struct {
	View         string                  `json:"view"`
	Professional *professionalSummaryDTO `json:"professional,omitempty"`
	Client       *clientSummaryDTO       `json:"client,omitempty"`
}

type professionalSummaryDTO struct {
	TotalClients         int              `json:"total_clients"`
	AppointmentsToday    []appointmentDTO `json:"appointments_today"`
	UpcomingAppointments []appointmentDTO `json:"upcoming_appointments"`
}

type clientSummaryDTO struct {
	NextAppointment   *appointmentDTO `json:"next_appointment"`
	LatestMeasurement *measurementDTO `json:"latest_measurement"`
	BMICategory       string          `json:"bmi_category,omitempty"`
}
