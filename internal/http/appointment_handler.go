package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/nutriagenda/internal/application"
)

type appointmentService interface {
	CreateAppointment(ctx context.Context, params application.CreateAppointmentParams) (application.Appointment, error)
	ListByProfessional(ctx context.Context, params application.ListByProfessionalParams) ([]application.Appointment, error)
	ListByClient(ctx context.Context, principal application.Principal, clientID string) ([]application.Appointment, error)
	SetStatus(ctx context.Context, principal application.Principal, appointmentID, status string) (application.Appointment, error)
	Cancel(ctx context.Context, principal application.Principal, appointmentID string) (application.Appointment, error)
}

// AppointmentHandler serves the appointment ledger.
type AppointmentHandler struct {
	service   appointmentService
	responder responder
	location  *time.Location
}

// NewAppointmentHandler builds the handler. Date-only query bounds are read in
// location, which defaults to UTC.
func NewAppointmentHandler(service appointmentService, location *time.Location, logger *slog.Logger) *AppointmentHandler {
	if location == nil {
		location = time.UTC
	}
	return &AppointmentHandler{service: service, responder: newResponder(logger), location: location}
}

// List returns a client's history when client_id is given, or the caller's
// agenda otherwise. Clients always get their own history.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	query := r.URL.Query()
	clientID := strings.TrimSpace(query.Get("client_id"))

	var (
		appointments []application.Appointment
		err          error
	)
	if clientID != "" || principal.IsClient() {
		appointments, err = h.service.ListByClient(r.Context(), principal, clientID)
	} else {
		start, startErr := parseDate(query.Get("start"), h.location)
		end, endErr := parseDate(query.Get("end"), h.location)
		if startErr != nil || endErr != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		appointments, err = h.service.ListByProfessional(r.Context(), application.ListByProfessionalParams{
			Principal:      principal,
			ProfessionalID: query.Get("professional_id"),
			StartDate:      start,
			EndDate:        end,
		})
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", toAppointmentDTOs(appointments))
}

// Create books an appointment.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	scheduledAt, err := parseTimestamp(req.ScheduledAt)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	appointment, err := h.service.CreateAppointment(r.Context(), application.CreateAppointmentParams{
		Principal:       principal,
		ClientID:        req.ClientID,
		ProfessionalID:  req.ProfessionalID,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusCreated, "Cita creada correctamente", toAppointmentDTO(appointment))
}

// SetStatus changes an appointment's status.
func (h *AppointmentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	appointment, err := h.service.SetStatus(r.Context(), principal, id, req.Status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Estado de la cita actualizado", toAppointmentDTO(appointment))
}

// Cancel marks an appointment as cancelled.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}
	id, ok := h.appointmentID(w, r)
	if !ok {
		return
	}

	appointment, err := h.service.Cancel(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Cita cancelada", toAppointmentDTO(appointment))
}

func (h *AppointmentHandler) appointmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointment)
		return "", false
	}
	return id, true
}

type appointmentRequest struct {
	ClientID        string `json:"client_id"`
	ProfessionalID  string `json:"professional_id"`
	ScheduledAt     string `json:"scheduled_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type appointmentDTO struct {
	ID              string `json:"id"`
	ClientID        string `json:"client_id"`
	ProfessionalID  string `json:"professional_id"`
	ScheduledAt     string `json:"scheduled_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toAppointmentDTO(a application.Appointment) appointmentDTO {
	return appointmentDTO{
		ID:              a.ID,
		ClientID:        a.ClientID,
		ProfessionalID:  a.ProfessionalID,
		ScheduledAt:     formatTime(a.ScheduledAt),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       formatTime(a.CreatedAt),
		UpdatedAt:       formatTime(a.UpdatedAt),
	}
}

func toAppointmentDTOs(appointments []application.Appointment) []appointmentDTO {
	out := make([]appointmentDTO, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, toAppointmentDTO(a))
	}
	return out
}
