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

type clientService interface {
	CreateClient(ctx context.Context, params application.CreateClientParams) (application.ClientProfile, error)
	ListClientsByOwner(ctx context.Context, principal application.Principal, ownerID string) ([]application.ClientProfile, error)
	GetClient(ctx context.Context, principal application.Principal, clientID string) (application.ClientProfile, error)
	UpdateClient(ctx context.Context, params application.UpdateClientParams) (application.ClientProfile, error)
	DeleteClient(ctx context.Context, principal application.Principal, clientID string) error
}

// ClientHandler serves the client directory.
type ClientHandler struct {
	service   clientService
	responder responder
	now       func() time.Time
}

// NewClientHandler builds the handler. now feeds the computed age and may be nil.
func NewClientHandler(service clientService, now func() time.Time, logger *slog.Logger) *ClientHandler {
	if now == nil {
		now = time.Now
	}
	return &ClientHandler{service: service, responder: newResponder(logger), now: now}
}

// List returns the caller's clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	clients, err := h.service.ListClientsByOwner(r.Context(), principal, r.URL.Query().Get("owner_id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]clientDTO, 0, len(clients))
	for _, client := range clients {
		out = append(out, h.toDTO(client))
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", out)
}

// Create stores a new client profile.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	personal, err := req.PersonalInfo.toModel()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	params := application.CreateClientParams{
		Principal:    principal,
		OwnerID:      req.OwnerID,
		PersonalInfo: personal,
		AccountID:    req.AccountID,
	}
	if req.MedicalHistory != nil {
		params.MedicalHistory = req.MedicalHistory.toModel()
	}

	client, err := h.service.CreateClient(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusCreated, "Cliente creado correctamente", h.toDTO(client))
}

// Get returns one client profile.
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	client, err := h.service.GetClient(r.Context(), principal, clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", h.toDTO(client))
}

// Update applies a partial update. Omitted sections are kept.
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	var req clientPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var patch application.ClientPatch
	if req.PersonalInfo != nil {
		personal, err := req.PersonalInfo.toModel()
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		patch.PersonalInfo = &personal
	}
	if req.MedicalHistory != nil {
		medical := req.MedicalHistory.toModel()
		patch.MedicalHistory = &medical
	}

	client, err := h.service.UpdateClient(r.Context(), application.UpdateClientParams{
		Principal: principal,
		ClientID:  clientID,
		Patch:     patch,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Cliente actualizado correctamente", h.toDTO(client))
}

// Delete removes a client profile.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	principal, ok := requirePrincipal(w, r, h.responder)
	if !ok {
		return
	}
	clientID, ok := h.clientID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteClient(r.Context(), principal, clientID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "Cliente eliminado correctamente", nil)
}

func (h *ClientHandler) clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClientID)
		return "", false
	}
	return id, true
}

type personalInfoDTO struct {
	Name      string            `json:"name"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	BirthDate *string           `json:"birth_date,omitempty"`
	Gender    string            `json:"gender,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

func (d personalInfoDTO) toModel() (application.PersonalInfo, error) {
	birth, err := parseDate(valueOf(d.BirthDate), time.UTC)
	if err != nil {
		return application.PersonalInfo{}, err
	}
	return application.PersonalInfo{
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		BirthDate: birth,
		Gender:    d.Gender,
		Extra:     d.Extra,
	}, nil
}

type medicalHistoryDTO struct {
	Conditions  []string          `json:"conditions"`
	Allergies   []string          `json:"allergies"`
	Medications []string          `json:"medications"`
	Notes       string            `json:"notes,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

func (d medicalHistoryDTO) toModel() application.MedicalHistory {
	return application.MedicalHistory{
		Conditions:  d.Conditions,
		Allergies:   d.Allergies,
		Medications: d.Medications,
		Notes:       d.Notes,
		Extra:       d.Extra,
	}
}

type clientRequest struct {
	OwnerID        string             `json:"owner_id"`
	AccountID      string             `json:"account_id"`
	PersonalInfo   personalInfoDTO    `json:"personal_info"`
	MedicalHistory *medicalHistoryDTO `json:"medical_history"`
}

type clientPatchRequest struct {
	PersonalInfo   *personalInfoDTO   `json:"personal_info"`
	MedicalHistory *medicalHistoryDTO `json:"medical_history"`
}

type clientDTO struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"owner_id"`
	PersonalInfo   personalInfoDTO   `json:"personal_info"`
	MedicalHistory medicalHistoryDTO `json:"medical_history"`
	Age            *int              `json:"age,omitempty"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
}

func (h *ClientHandler) toDTO(client application.ClientProfile) clientDTO {
	dto := clientDTO{
		ID:      client.ID,
		OwnerID: client.OwnerID,
		PersonalInfo: personalInfoDTO{
			Name:      client.PersonalInfo.Name,
			Email:     client.PersonalInfo.Email,
			Phone:     client.PersonalInfo.Phone,
			BirthDate: formatDate(client.PersonalInfo.BirthDate),
			Gender:    client.PersonalInfo.Gender,
			Extra:     client.PersonalInfo.Extra,
		},
		MedicalHistory: medicalHistoryDTO{
			Conditions:  nonNil(client.MedicalHistory.Conditions),
			Allergies:   nonNil(client.MedicalHistory.Allergies),
			Medications: nonNil(client.MedicalHistory.Medications),
			Notes:       client.MedicalHistory.Notes,
			Extra:       client.MedicalHistory.Extra,
		},
		CreatedAt: formatTime(client.CreatedAt),
		UpdatedAt: formatTime(client.UpdatedAt),
	}
	if birth := client.PersonalInfo.BirthDate; birth != nil && !birth.IsZero() {
		age := application.Age(*birth, h.now())
		dto.Age = &age
	}
	return dto
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
