package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/nutriagenda/internal/application"
)

type routerHarness struct {
	handler      http.Handler
	auth         *authServiceStub
	recorder     *recorderStub
	clients      *clientServiceStub
	appointments *appointmentServiceStub
	measurements *measurementServiceStub
	dashboard    *dashboardServiceStub
	ping         error
}

func newRouterHarness(t *testing.T) *routerHarness {
	t.Helper()

	h := &routerHarness{
		auth:         &authServiceStub{},
		recorder:     &recorderStub{},
		clients:      &clientServiceStub{},
		appointments: &appointmentServiceStub{},
		measurements: &measurementServiceStub{},
		dashboard:    &dashboardServiceStub{},
	}
	validator := &validatorStub{principals: map[string]application.Principal{
		"pro-token":    professional,
		"client-token": client,
	}}
	now := func() time.Time { return fixedNow }

	h.handler = NewRouter(RouterConfig{
		Auth:         NewAuthHandler(h.auth, h.recorder, false, discardLogger),
		Clients:      NewClientHandler(h.clients, now, discardLogger),
		Appointments: NewAppointmentHandler(h.appointments, time.UTC, discardLogger),
		Measurements: NewMeasurementHandler(h.measurements, discardLogger),
		Dashboard:    NewDashboardHandler(h.dashboard, now, discardLogger),
		Health:       NewHealthHandler(func(context.Context) error { return h.ping }, discardLogger),
		Sessions:     validator,
		Media: http.StripPrefix("/media/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "media:"+r.URL.Path)
		})),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "metrics")
		}),
		CORSOrigins: []string{"http://app.example"},
		Logger:      discardLogger,
	})
	return h
}

func (h *routerHarness) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
	return env
}

func TestAuthRoutes(t *testing.T) {
	t.Parallel()

	t.Run("login returns the token in body, header and cookie", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.auth.loginResult = application.LoginResult{
			User:    application.User{ID: "pro-1", Email: "nutri@test.com", DisplayName: "Dr. Juan Nutricionista", Role: application.RoleProfessional},
			Session: application.Session{ID: "s-1", Token: "jwt-token", ExpiresAt: fixedNow.Add(time.Hour)},
		}

		rec := h.do(t, http.MethodPost, "/sessions", "", `{"email":"NUTRI@test.com","password":"test123"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "jwt-token", rec.Header().Get("X-Session-Token"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session_token", cookies[0].Name)
		assert.Equal(t, "jwt-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)

		var data sessionResponse
		decodeData(t, rec, &data)
		assert.Equal(t, "jwt-token", data.Token)
		assert.Equal(t, "professional", data.View)
		require.NotNil(t, data.User)
		assert.Equal(t, "Dr. Juan Nutricionista", data.User.DisplayName)
		assert.Equal(t, []string{"login:ok"}, h.recorder.outcomes)
	})

	t.Run("wrong credentials answer 401", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.auth.loginErr = application.ErrInvalidCredentials

		rec := h.do(t, http.MethodPost, "/sessions", "", `{"email":"a@b.c","password":"x"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, "invalid_credentials", env.Error)
		assert.Equal(t, "Email o contraseña incorrectos", env.Message)
		assert.Equal(t, []string{"login:invalid_credentials"}, h.recorder.outcomes)
	})

	t.Run("malformed body answers 400", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodPost, "/sessions", "", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("register returns 201 and duplicate email 409", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		body := `{"email":"ana@example.com","password":"secret1","display_name":"Ana","phone":"1","role":"client"}`
		rec := h.do(t, http.MethodPost, "/register", "", body)
		assert.Equal(t, http.StatusCreated, rec.Code)

		h.auth.registerErr = application.ErrDuplicateEmail
		rec = h.do(t, http.MethodPost, "/register", "", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "duplicate_email", decodeEnvelope(t, rec).Error)
	})

	t.Run("logout succeeds without a token and clears the cookie", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodDelete, "/sessions/current", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{""}, h.auth.logouts)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("me reads the token resolved by the session middleware", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.auth.user = application.User{ID: "pro-1", Role: application.RoleProfessional}

		rec := h.do(t, http.MethodGet, "/me", "pro-token", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pro-token", h.auth.lastToken)
	})
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	t.Parallel()
	h := newRouterHarness(t)

	for _, target := range []string{"/me", "/dashboard", "/clients", "/appointments", "/clients/c-1/measurements"} {
		rec := h.do(t, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestOperationalRoutes(t *testing.T) {
	t.Parallel()

	t.Run("health answers ok and 503 when the store is down", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		h.ping = errors.New("connection refused")
		rec = h.do(t, http.MethodGet, "/healthz", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "store_unavailable", decodeEnvelope(t, rec).Error)
	})

	t.Run("metrics and media are public", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		assert.Equal(t, "metrics", h.do(t, http.MethodGet, "/metrics", "", "").Body.String())
		assert.Equal(t, "media:measurements/c-1/a.jpg", h.do(t, http.MethodGet, "/media/measurements/c-1/a.jpg", "", "").Body.String())
	})

	t.Run("unknown routes and methods", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/nope", "", "").Code)
		assert.Equal(t, http.StatusMethodNotAllowed, h.do(t, http.MethodPut, "/sessions", "", "").Code)
	})

	t.Run("cors preflight allows configured origins", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		req := httptest.NewRequest(http.MethodOptions, "/clients", nil)
		req.Header.Set("Origin", "http://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestClientRoutes(t *testing.T) {
	t.Parallel()

	t.Run("create decodes the profile and computes age", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		body := `{"personal_info":{"name":"Ana","birth_date":"2000-06-01"},"medical_history":{"allergies":["nuts"]}}`
		rec := h.do(t, http.MethodPost, "/clients", "pro-token", body)
		require.Equal(t, http.StatusCreated, rec.Code)

		require.NotNil(t, h.clients.created.PersonalInfo.BirthDate)
		assert.Equal(t, time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC), *h.clients.created.PersonalInfo.BirthDate)
		assert.Equal(t, []string{"nuts"}, h.clients.created.MedicalHistory.Allergies)

		var data clientDTO
		decodeData(t, rec, &data)
		assert.Equal(t, "client-9", data.ID)
		require.NotNil(t, data.Age)
		assert.Equal(t, 23, *data.Age)
		require.NotNil(t, data.PersonalInfo.BirthDate)
		assert.Equal(t, "2000-06-01", *data.PersonalInfo.BirthDate)
		assert.Equal(t, []string{}, data.MedicalHistory.Conditions)
	})

	t.Run("bad birth date answers 400", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodPost, "/clients", "pro-token", `{"personal_info":{"name":"Ana","birth_date":"01/06/2000"}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("clients are forbidden", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.clients.err = application.ErrUnauthorized

		rec := h.do(t, http.MethodGet, "/clients", "client-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("get, patch and delete use the path id", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.clients.clients = []application.ClientProfile{{ID: "c-1", OwnerID: "pro-1", PersonalInfo: application.PersonalInfo{Name: "Ana"}}}

		assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/clients/c-1", "pro-token", "").Code)
		assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/clients/c-2", "pro-token", "").Code)

		rec := h.do(t, http.MethodPatch, "/clients/c-1", "pro-token", `{"medical_history":{"notes":"ok"}}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "c-1", h.clients.updated.ClientID)
		assert.Nil(t, h.clients.updated.Patch.PersonalInfo)
		require.NotNil(t, h.clients.updated.Patch.MedicalHistory)
		assert.Equal(t, "ok", h.clients.updated.Patch.MedicalHistory.Notes)

		assert.Equal(t, http.StatusOK, h.do(t, http.MethodDelete, "/clients/c-1", "pro-token", "").Code)
		assert.Equal(t, "c-1", h.clients.deletedID)
	})
}

func TestAppointmentRoutes(t *testing.T) {
	t.Parallel()

	t.Run("agenda listing parses date bounds", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodGet, "/appointments?start=2024-03-01&end=2024-03-31", "pro-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, h.appointments.professionalArg)
		require.NotNil(t, h.appointments.professionalArg.StartDate)
		require.NotNil(t, h.appointments.professionalArg.EndDate)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *h.appointments.professionalArg.StartDate)
		assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), *h.appointments.professionalArg.EndDate)
		assert.Nil(t, h.appointments.clientArg)

		var data []appointmentDTO
		decodeData(t, rec, &data)
		assert.Empty(t, data)
		assert.NotNil(t, data)
	})

	t.Run("client_id switches to the client history", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/appointments?client_id=c-1", "pro-token", "").Code)
		require.NotNil(t, h.appointments.clientArg)
		assert.Equal(t, "c-1", *h.appointments.clientArg)
		assert.Nil(t, h.appointments.professionalArg)
	})

	t.Run("clients always get their own history", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/appointments", "client-token", "").Code)
		require.NotNil(t, h.appointments.clientArg)
		assert.Equal(t, "", *h.appointments.clientArg)
	})

	t.Run("invalid dates answer 400", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/appointments?start=yesterday", "pro-token", "").Code)
	})

	t.Run("create, status and cancel", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodPost, "/appointments", "pro-token", `{"client_id":"c-1","scheduled_at":"2024-03-20T09:30:00Z","duration_minutes":45}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC), h.appointments.created.ScheduledAt)
		assert.Equal(t, 45, h.appointments.created.DurationMinutes)

		var created appointmentDTO
		decodeData(t, rec, &created)
		assert.Equal(t, "scheduled", created.Status)
		assert.Equal(t, "2024-03-20T09:30:00Z", created.ScheduledAt)

		rec = h.do(t, http.MethodPut, "/appointments/appt-1/status", "pro-token", `{"status":"completed"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "completed", h.appointments.statusArg)

		rec = h.do(t, http.MethodPost, "/appointments/appt-1/cancel", "client-token", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "appt-1", h.appointments.cancelledID)
	})

	t.Run("bad timestamp answers 400", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodPost, "/appointments", "pro-token", `{"client_id":"c-1","scheduled_at":"tomorrow"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMeasurementRoutes(t *testing.T) {
	t.Parallel()

	t.Run("record decodes raw and data URL photos", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		raw := base64.StdEncoding.EncodeToString([]byte("jpeg-1"))
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg-2"))
		body := `{"weight_kg":70,"height_cm":175,"waist_cm":80,"photos":["` + raw + `","` + dataURL + `"]}`

		rec := h.do(t, http.MethodPost, "/clients/c-1/measurements", "pro-token", body)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "c-1", h.measurements.recorded.ClientID)
		assert.Equal(t, [][]byte{[]byte("jpeg-1"), []byte("jpeg-2")}, h.measurements.recorded.Photos)
		require.NotNil(t, h.measurements.recorded.WaistCm)
		assert.Equal(t, 80.0, *h.measurements.recorded.WaistCm)
		assert.Nil(t, h.measurements.recorded.HipCm)

		var data measurementDTO
		decodeData(t, rec, &data)
		assert.Equal(t, 22.86, data.BMI)
		assert.Equal(t, "Normal weight", data.BMICategory)
		assert.Equal(t, []string{}, data.PhotoURLs)
	})

	t.Run("invalid photo payload answers 400", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		rec := h.do(t, http.MethodPost, "/clients/c-1/measurements", "pro-token", `{"weight_kg":70,"photos":["***"]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("latest without history answers 404", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)

		assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/clients/c-1/measurements/latest", "client-token", "").Code)
	})

	t.Run("progress serializes stats", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		first := fixedNow.Add(-48 * time.Hour)
		h.measurements.progress = application.Progress{
			Measurements: []application.Measurement{{ID: "m-2", WeightKg: 75}, {ID: "m-1", WeightKg: 80}},
			Stats: application.MeasurementStats{
				TotalRecords:          2,
				WeightChange:          5,
				AverageBMI:            24,
				FirstMeasurementDate:  &first,
				LatestMeasurementDate: &fixedNow,
			},
		}

		rec := h.do(t, http.MethodGet, "/clients/c-1/progress", "pro-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Measurements []measurementDTO `json:"measurements"`
			Stats        statsDTO         `json:"stats"`
		}
		decodeData(t, rec, &data)
		assert.Len(t, data.Measurements, 2)
		assert.Equal(t, 2, data.Stats.TotalRecords)
		assert.Equal(t, 5.0, data.Stats.WeightChange)
		require.NotNil(t, data.Stats.FirstMeasurementDate)
		assert.Equal(t, "2024-03-13T10:00:00Z", *data.Stats.FirstMeasurementDate)
	})

	t.Run("progress without history renders empty stats", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.measurements.progress = application.Progress{}

		rec := h.do(t, http.MethodGet, "/clients/c-1/progress", "pro-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data map[string]json.RawMessage
		decodeData(t, rec, &data)
		assert.JSONEq(t, `{}`, string(data["stats"]))
		assert.JSONEq(t, `[]`, string(data["measurements"]))
	})
}

func TestDashboardRoute(t *testing.T) {
	t.Parallel()

	t.Run("professional view", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.dashboard.professional = application.ProfessionalSummary{
			TotalClients:      3,
			AppointmentsToday: []application.Appointment{{ID: "a-1", Status: application.AppointmentScheduled}},
		}

		rec := h.do(t, http.MethodGet, "/dashboard", "pro-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data dashboardResponse
		decodeData(t, rec, &data)
		assert.Equal(t, "professional", data.View)
		require.NotNil(t, data.Professional)
		assert.Nil(t, data.Client)
		assert.Equal(t, 3, data.Professional.TotalClients)
		assert.Len(t, data.Professional.AppointmentsToday, 1)
		assert.NotNil(t, data.Professional.UpcomingAppointments)
	})

	t.Run("client view", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.dashboard.client = application.ClientSummary{
			LatestMeasurement: &application.Measurement{ID: "m-1", BMI: 27},
			BMICategory:       "Overweight",
		}

		rec := h.do(t, http.MethodGet, "/dashboard", "client-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data dashboardResponse
		decodeData(t, rec, &data)
		assert.Equal(t, "client", data.View)
		require.NotNil(t, data.Client)
		assert.Nil(t, data.Client.NextAppointment)
		require.NotNil(t, data.Client.LatestMeasurement)
		assert.Equal(t, "Overweight", data.Client.BMICategory)
	})

	t.Run("summary failures map to status codes", func(t *testing.T) {
		t.Parallel()
		h := newRouterHarness(t)
		h.dashboard.err = application.ErrStoreUnavailable

		assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/dashboard", "pro-token", "").Code)
	})
}
