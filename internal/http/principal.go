package http

import (
	"net/http"

	"github.com/example/nutriagenda/internal/application"
)

// requirePrincipal returns the principal placed by RequireSession, answering
// 401 when it is missing.
func requirePrincipal(w http.ResponseWriter, r *http.Request, resp responder) (application.Principal, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok || principal.UserID == "" {
		resp.writeError(r.Context(), w, http.StatusUnauthorized, errMissingPrincipal)
		return application.Principal{}, false
	}
	return principal, true
}
