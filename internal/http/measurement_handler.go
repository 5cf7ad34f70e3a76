package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/nutriagenda/internal/application"
)

// maxMeasurementBody bounds measurement uploads, photos included.
const maxMeasurementBody = 32 << 20

type measurementService interface {
	RecordMeasurement(ctx context.Context, params application.RecordMeasurementParams) (application.Measurement, error)
	ListByClient(ctx context.Context, principal application.Principal, clientID string) ([]application.Measurement, error)
	Latest(ctx context.Context, principal application.Principal, clientID string) (application.Measurement, error)
	Progress(ctx context.Context, principal application.Principal, clientID string) (application.Progress, error)
}

// MeasurementHandler serves the measurement tracker.
type MeasurementHandler struct {
	service   measurementService
	responder responder
}

// NewMeasurementHandler builds the handler.
func NewMeasurementHandler(service measurementService, logger *slog.Logger) *MeasurementHandler {
	return &MeasurementHandler{service: service, responder: newResponder(logger)}
}

// Record stores a measurement for the client in the path.
func (h *MeasurementHandler) Record(w http.ResponseWriter, r *http.Request) {
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

	var req measurementRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMeasurementBody)).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	photos := make([][]byte, 0, len(req.Photos))
	for _, encoded := range req.Photos {
		photo, err := decodePhoto(encoded)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPhoto)
			return
		}
		photos = append(photos, photo)
	}

	measurement, err := h.service.RecordMeasurement(r.Context(), application.RecordMeasurementParams{
		Principal:     principal,
		ClientID:      clientID,
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		WaistCm:       req.WaistCm,
		HipCm:         req.HipCm,
		BodyFatPct:    req.BodyFatPct,
		MuscleMassPct: req.MuscleMassPct,
		Notes:         req.Notes,
		Photos:        photos,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusCreated, "Medición registrada correctamente", toMeasurementDTO(measurement))
}

// List returns the client's measurements, most recent first.
func (h *MeasurementHandler) List(w http.ResponseWriter, r *http.Request) {
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

	measurements, err := h.service.ListByClient(r.Context(), principal, clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", toMeasurementDTOs(measurements))
}

// Latest returns the most recent measurement.
func (h *MeasurementHandler) Latest(w http.ResponseWriter, r *http.Request) {
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

	measurement, err := h.service.Latest(r.Context(), principal, clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", toMeasurementDTO(measurement))
}

// Progress returns the history and its stats.
func (h *MeasurementHandler) Progress(w http.ResponseWriter, r *http.Request) {
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

	progress, err := h.service.Progress(r.Context(), principal, clientID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", progressDTO{
		Measurements: toMeasurementDTOs(progress.Measurements),
		Stats:        toStatsDTO(progress.Stats),
	})
}

func (h *MeasurementHandler) clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidClientID)
		return "", false
	}
	return id, true
}

// decodePhoto accepts raw base64 or a data URL such as
// "data:image/jpeg;base64,<payload>".
func decodePhoto(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if comma := strings.IndexByte(encoded, ','); comma >= 0 {
			encoded = encoded[comma+1:]
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}

type measurementRequest struct {
	WeightKg      float64  `json:"weight_kg"`
	HeightCm      float64  `json:"height_cm"`
	WaistCm       *float64 `json:"waist_cm"`
	HipCm         *float64 `json:"hip_cm"`
	BodyFatPct    *float64 `json:"body_fat_pct"`
	MuscleMassPct *float64 `json:"muscle_mass_pct"`
	Notes         string   `json:"notes"`
	Photos        []string `json:"photos"`
}

type measurementDTO struct {
	ID            string   `json:"id"`
	ClientID      string   `json:"client_id"`
	RecordedAt    string   `json:"recorded_at"`
	WeightKg      float64  `json:"weight_kg"`
	HeightCm      float64  `json:"height_cm"`
	BMI           float64  `json:"bmi"`
	BMICategory   string   `json:"bmi_category,omitempty"`
	WaistCm       *float64 `json:"waist_cm,omitempty"`
	HipCm         *float64 `json:"hip_cm,omitempty"`
	BodyFatPct    *float64 `json:"body_fat_pct,omitempty"`
	MuscleMassPct *float64 `json:"muscle_mass_pct,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	PhotoURLs     []string `json:"photo_urls"`
}

func toMeasurementDTO(m application.Measurement) measurementDTO {
	return measurementDTO{
		ID:            m.ID,
		ClientID:      m.ClientID,
		RecordedAt:    formatTime(m.RecordedAt),
		WeightKg:      m.WeightKg,
		HeightCm:      m.HeightCm,
		BMI:           m.BMI,
		BMICategory:   application.BMICategory(m.BMI),
		WaistCm:       m.WaistCm,
		HipCm:         m.HipCm,
		BodyFatPct:    m.BodyFatPct,
		MuscleMassPct: m.MuscleMassPct,
		Notes:         m.Notes,
		PhotoURLs:     nonNil(m.PhotoURLs),
	}
}

func toMeasurementDTOs(measurements []application.Measurement) []measurementDTO {
	out := make([]measurementDTO, 0, len(measurements))
	for _, m := range measurements {
		out = append(out, toMeasurementDTO(m))
	}
	return out
}

type statsDTO struct {
	TotalRecords          int     `json:"total_records"`
	WeightChange          float64 `json:"weight_change"`
	AverageBMI            float64 `json:"average_bmi"`
	FirstMeasurementDate  *string `json:"first_measurement_date"`
	LatestMeasurementDate *string `json:"latest_measurement_date"`
}

// toStatsDTO renders an empty history as {}.
func toStatsDTO(s application.MeasurementStats) any {
	if s.Empty() {
		return struct{}{}
	}
	return statsDTO{
		TotalRecords:          s.TotalRecords,
		WeightChange:          s.WeightChange,
		AverageBMI:            s.AverageBMI,
		FirstMeasurementDate:  formatTimePtr(s.FirstMeasurementDate),
		LatestMeasurementDate: formatTimePtr(s.LatestMeasurementDate),
	}
}

type progressDTO struct {
	Measurements []measurementDTO `json:"measurements"`
	Stats        any              `json:"stats"`
}
