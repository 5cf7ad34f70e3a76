package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/nutriagenda/internal/application"
)

var (
	errBadRequestBody      = errors.New("Formato de solicitud no válido.")
	errInvalidClientID     = errors.New("Identificador de cliente no válido.")
	errInvalidAppointment  = errors.New("Identificador de cita no válido.")
	errInvalidDate         = errors.New("Las fechas deben tener el formato AAAA-MM-DD.")
	errInvalidPhoto        = errors.New("Las fotos deben enviarse en base64.")
	errMissingSessionToken = errors.New("Debes indicar un token de sesión.")
	errMissingPrincipal    = errors.New("Debes iniciar sesión.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	r.writeJSON(ctx, w, status, successResponse{Success: true, Message: message, Data: data})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message, Error: errorCode(status)})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	status := statusForError(err)
	result := application.NewResult(err, "")
	resp := errorResponse{
		Success: result.Success,
		Message: result.Message,
		Error:   application.ErrorKind(err),
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		resp.Errors = localizeValidationErrors(vErr)
	}

	if status >= http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", result.Error, "error_kind", resp.Error)
	}
	r.writeJSON(ctx, w, status, resp)
}

func statusForError(err error) int {
	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrDuplicateEmail), errors.Is(err, application.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, application.ErrStoreUnavailable), errors.Is(err, application.ErrAuthProvider):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "store_unavailable"
	default:
		return "internal"
	}
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "La solicitud no es válida."
	case http.StatusUnauthorized:
		return "Debes iniciar sesión."
	case http.StatusForbidden:
		return "No tienes permiso para realizar esta acción"
	case http.StatusNotFound:
		return "No se encontró el recurso solicitado"
	case http.StatusUnprocessableEntity:
		return "Los datos enviados no son válidos"
	case http.StatusServiceUnavailable:
		return "El servicio no está disponible. Inténtalo más tarde."
	default:
		return "Se produjo un error inesperado"
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "email is required":
		return "El email es obligatorio."
	case "email is invalid":
		return "El email no tiene un formato válido."
	case "password is required":
		return "La contraseña es obligatoria."
	case "password must be at least 6 characters":
		return "La contraseña debe tener al menos 6 caracteres."
	case "display name is required":
		return "El nombre es obligatorio."
	case "phone is required":
		return "El teléfono es obligatorio."
	case "role must be professional or client":
		return "El rol debe ser profesional o cliente."
	case "name is required":
		return "El nombre del cliente es obligatorio."
	case "client is required":
		return "Debes indicar el cliente."
	case "scheduled time is required":
		return "Debes indicar la fecha y hora de la cita."
	case "end date must not precede start date":
		return "La fecha final no puede ser anterior a la inicial."
	case "status must be one of scheduled, completed, cancelled, no-show":
		return "Estado no válido."
	case "weight must be a positive number":
		return "El peso debe ser un número positivo."
	case "height must not be negative", "value must not be negative":
		return "El valor no puede ser negativo."
	case "no updatable fields supplied":
		return "No se indicó ningún campo para actualizar."
	default:
		return message
	}
}
