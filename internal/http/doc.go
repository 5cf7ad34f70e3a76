// Package http provides HTTP handlers and middleware for the NutriAgenda API.
//
// The router exposes the following endpoints:
//   - POST /register: creates an account. Body: {"email","password",
//     "display_name","phone","role"}.
//   - POST /sessions: logs in. Body: {"email","password"}. The session token
//     is returned in the payload, the `X-Session-Token` header and a
//     `session_token` cookie.
//   - DELETE /sessions/current: logs out. Idempotent; always answers 200.
//   - POST /sessions/refresh: extends the current session and issues a new token.
//   - GET /me: the authenticated user.
//   - GET /dashboard: the view for the caller's role and its summary.
//   - GET /clients, POST /clients, GET|PATCH|DELETE /clients/{id}: client
//     profiles owned by the calling professional (`clientDTO`).
//   - GET /clients/{id}/measurements, POST /clients/{id}/measurements,
//     GET /clients/{id}/measurements/latest, GET /clients/{id}/progress:
//     measurement history (`measurementDTO`). Photos are base64 JPEG payloads.
//   - GET /appointments, POST /appointments, PUT /appointments/{id}/status,
//     POST /appointments/{id}/cancel: the appointment ledger
//     (`appointmentDTO`). Listing takes `start`/`end` (YYYY-MM-DD) for the
//     professional agenda or `client_id` for one client's history.
//   - GET /healthz, GET /metrics, GET /media/...: operational endpoints.
//
// Every JSON response uses the envelope {"success","message","data"} on
// success and {"success","message","error","errors"} on failure.
package http
