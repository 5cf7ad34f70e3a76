package application

// OperationResult is the uniform outcome of a mutating operation as shown to
// end users. Error carries the raw error text for diagnostics.
type OperationResult struct {
	Success bool
	Message string
	Error   string
}

// NewResult builds an OperationResult from an operation's error. message is
// used on success; failures get a message derived from the error kind.
func NewResult(err error, message string) OperationResult {
	if err == nil {
		return OperationResult{Success: true, Message: message}
	}
	return OperationResult{
		Success: false,
		Message: FailureMessage(err),
		Error:   err.Error(),
	}
}

// FailureMessage returns the end-user message for an error kind.
func FailureMessage(err error) string {
	switch ErrorKind(err) {
	case "validation":
		return "Los datos enviados no son válidos"
	case "duplicate_email", "already_exists":
		return "El email ya está registrado"
	case "invalid_credentials":
		return "Email o contraseña incorrectos"
	case "not_found":
		return "No se encontró el recurso solicitado"
	case "unauthorized":
		return "No tienes permiso para realizar esta acción"
	case "session_expired":
		return "La sesión ha expirado"
	case "session_revoked":
		return "La sesión ha sido cerrada"
	case "store_unavailable":
		return "El almacenamiento no está disponible, inténtalo más tarde"
	case "auth_provider":
		return "El servicio de autenticación no está disponible"
	case "":
		return ""
	default:
		return "Se produjo un error inesperado"
	}
}
