package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/nutriagenda/internal/application"
	"github.com/example/nutriagenda/internal/persistence"
)

// repositories is satisfied by both the in-memory storage and the SQL store.
type repositories interface {
	persistence.UserRepository
	persistence.CredentialRepository
	persistence.ClientRepository
	persistence.AppointmentRepository
	persistence.MeasurementRepository
	persistence.SessionRepository
}

// mapStoreError translates persistence sentinels into the application taxonomy.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	case errors.Is(err, persistence.ErrUnavailable):
		return fmt.Errorf("%w: %v", application.ErrStoreUnavailable, err)
	default:
		return err
	}
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, mapStoreError(err)
	}
	return user, nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	model, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(model), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	model, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, mapStoreError(err)
	}
	return toApplicationUser(model), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteUser(ctx, id))
}

type credentialStoreAdapter struct {
	repo persistence.CredentialRepository
}

func newCredentialStoreAdapter(repo persistence.CredentialRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) CreateCredential(ctx context.Context, credential application.Credential) error {
	return mapStoreError(a.repo.CreateCredential(ctx, persistence.Credential{
		UserID:       credential.UserID,
		Email:        credential.Email,
		PasswordHash: credential.PasswordHash,
		CreatedAt:    credential.CreatedAt,
	}))
}

func (a *credentialStoreAdapter) GetCredential(ctx context.Context, userID string) (application.Credential, error) {
	model, err := a.repo.GetCredential(ctx, userID)
	if err != nil {
		return application.Credential{}, mapStoreError(err)
	}
	return toApplicationCredential(model), nil
}

func (a *credentialStoreAdapter) GetCredentialByEmail(ctx context.Context, email string) (application.Credential, error) {
	model, err := a.repo.GetCredentialByEmail(ctx, email)
	if err != nil {
		return application.Credential{}, mapStoreError(err)
	}
	return toApplicationCredential(model), nil
}

func (a *credentialStoreAdapter) DeleteCredential(ctx context.Context, userID string) error {
	return mapStoreError(a.repo.DeleteCredential(ctx, userID))
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.CreateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return session, nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id string) (application.Session, error) {
	model, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return toApplicationSession(model), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.UpdateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return session, nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, id string, revokedAt time.Time) (application.Session, error) {
	model, err := a.repo.RevokeSession(ctx, id, revokedAt)
	if err != nil {
		return application.Session{}, mapStoreError(err)
	}
	return toApplicationSession(model), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapStoreError(a.repo.DeleteExpiredSessions(ctx, reference))
}

type clientRepositoryAdapter struct {
	repo persistence.ClientRepository
}

func newClientRepositoryAdapter(repo persistence.ClientRepository) *clientRepositoryAdapter {
	return &clientRepositoryAdapter{repo: repo}
}

func (a *clientRepositoryAdapter) CreateClient(ctx context.Context, client application.ClientProfile) (application.ClientProfile, error) {
	if err := a.repo.CreateClient(ctx, toPersistenceClient(client)); err != nil {
		return application.ClientProfile{}, mapStoreError(err)
	}
	return client, nil
}

func (a *clientRepositoryAdapter) UpdateClient(ctx context.Context, client application.ClientProfile) (application.ClientProfile, error) {
	if err := a.repo.UpdateClient(ctx, toPersistenceClient(client)); err != nil {
		return application.ClientProfile{}, mapStoreError(err)
	}
	return a.GetClient(ctx, client.ID)
}

func (a *clientRepositoryAdapter) GetClient(ctx context.Context, id string) (application.ClientProfile, error) {
	model, err := a.repo.GetClient(ctx, id)
	if err != nil {
		return application.ClientProfile{}, mapStoreError(err)
	}
	return toApplicationClient(model), nil
}

func (a *clientRepositoryAdapter) ListClients(ctx context.Context, ownerID string) ([]application.ClientProfile, error) {
	models, err := a.repo.ListClients(ctx, persistence.ClientFilter{OwnerID: ownerID})
	if err != nil {
		return nil, mapStoreError(err)
	}
	clients := make([]application.ClientProfile, 0, len(models))
	for _, model := range models {
		clients = append(clients, toApplicationClient(model))
	}
	return clients, nil
}

func (a *clientRepositoryAdapter) DeleteClient(ctx context.Context, id string) error {
	return mapStoreError(a.repo.DeleteClient(ctx, id))
}

type appointmentRepositoryAdapter struct {
	repo persistence.AppointmentRepository
}

func newAppointmentRepositoryAdapter(repo persistence.AppointmentRepository) *appointmentRepositoryAdapter {
	return &appointmentRepositoryAdapter{repo: repo}
}

func (a *appointmentRepositoryAdapter) CreateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.CreateAppointment(ctx, toPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, mapStoreError(err)
	}
	return appointment, nil
}

func (a *appointmentRepositoryAdapter) UpdateAppointment(ctx context.Context, appointment application.Appointment) (application.Appointment, error) {
	if err := a.repo.UpdateAppointment(ctx, toPersistenceAppointment(appointment)); err != nil {
		return application.Appointment{}, mapStoreError(err)
	}
	return appointment, nil
}

func (a *appointmentRepositoryAdapter) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	model, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return application.Appointment{}, mapStoreError(err)
	}
	return toApplicationAppointment(model), nil
}

func (a *appointmentRepositoryAdapter) ListAppointments(ctx context.Context, query application.AppointmentQuery) ([]application.Appointment, error) {
	models, err := a.repo.ListAppointments(ctx, persistence.AppointmentFilter{
		ProfessionalID: query.ProfessionalID,
		ClientID:       query.ClientID,
		ScheduledFrom:  query.From,
		ScheduledTo:    query.To,
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	appointments := make([]application.Appointment, 0, len(models))
	for _, model := range models {
		appointments = append(appointments, toApplicationAppointment(model))
	}
	return appointments, nil
}

type measurementRepositoryAdapter struct {
	repo persistence.MeasurementRepository
}

func newMeasurementRepositoryAdapter(repo persistence.MeasurementRepository) *measurementRepositoryAdapter {
	return &measurementRepositoryAdapter{repo: repo}
}

func (a *measurementRepositoryAdapter) CreateMeasurement(ctx context.Context, measurement application.Measurement) (application.Measurement, error) {
	if err := a.repo.CreateMeasurement(ctx, toPersistenceMeasurement(measurement)); err != nil {
		return application.Measurement{}, mapStoreError(err)
	}
	return measurement, nil
}

func (a *measurementRepositoryAdapter) ListMeasurements(ctx context.Context, clientID string) ([]application.Measurement, error) {
	models, err := a.repo.ListMeasurementsByClient(ctx, clientID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	measurements := make([]application.Measurement, 0, len(models))
	for _, model := range models {
		measurements = append(measurements, toApplicationMeasurement(model))
	}
	return measurements, nil
}

func toApplicationUser(model persistence.User) application.User {
	role, _ := application.ParseRole(model.Role)
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		Phone:       model.Phone,
		Role:        role,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Phone:       user.Phone,
		Role:        string(user.Role),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toApplicationCredential(model persistence.Credential) application.Credential {
	return application.Credential{
		UserID:       model.UserID,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		CreatedAt:    model.CreatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	role, _ := application.ParseRole(model.Role)
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Role:      role,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

// toPersistenceSession drops the token, which is never stored.
func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Role:      string(session.Role),
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func toApplicationClient(model persistence.Client) application.ClientProfile {
	return application.ClientProfile{
		ID:      model.ID,
		OwnerID: model.OwnerID,
		PersonalInfo: application.PersonalInfo{
			Name:      model.PersonalInfo.Name,
			Email:     model.PersonalInfo.Email,
			Phone:     model.PersonalInfo.Phone,
			BirthDate: cloneTime(model.PersonalInfo.BirthDate),
			Gender:    model.PersonalInfo.Gender,
			Extra:     model.PersonalInfo.Extra,
		},
		MedicalHistory: application.MedicalHistory{
			Conditions:  model.MedicalHistory.Conditions,
			Allergies:   model.MedicalHistory.Allergies,
			Medications: model.MedicalHistory.Medications,
			Notes:       model.MedicalHistory.Notes,
			Extra:       model.MedicalHistory.Extra,
		},
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceClient(client application.ClientProfile) persistence.Client {
	return persistence.Client{
		ID:      client.ID,
		OwnerID: client.OwnerID,
		PersonalInfo: persistence.PersonalInfo{
			Name:      client.PersonalInfo.Name,
			Email:     client.PersonalInfo.Email,
			Phone:     client.PersonalInfo.Phone,
			BirthDate: cloneTime(client.PersonalInfo.BirthDate),
			Gender:    client.PersonalInfo.Gender,
			Extra:     client.PersonalInfo.Extra,
		},
		MedicalHistory: persistence.MedicalHistory{
			Conditions:  client.MedicalHistory.Conditions,
			Allergies:   client.MedicalHistory.Allergies,
			Medications: client.MedicalHistory.Medications,
			Notes:       client.MedicalHistory.Notes,
			Extra:       client.MedicalHistory.Extra,
		},
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
	}
}

func toApplicationAppointment(model persistence.Appointment) application.Appointment {
	status, ok := application.ParseAppointmentStatus(model.Status)
	if !ok {
		status = application.AppointmentStatus(model.Status)
	}
	return application.Appointment{
		ID:              model.ID,
		ClientID:        model.ClientID,
		ProfessionalID:  model.ProfessionalID,
		ScheduledAt:     model.ScheduledAt,
		DurationMinutes: model.DurationMinutes,
		Status:          status,
		Notes:           model.Notes,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistenceAppointment(appointment application.Appointment) persistence.Appointment {
	return persistence.Appointment{
		ID:              appointment.ID,
		ClientID:        appointment.ClientID,
		ProfessionalID:  appointment.ProfessionalID,
		ScheduledAt:     appointment.ScheduledAt,
		DurationMinutes: appointment.DurationMinutes,
		Status:          string(appointment.Status),
		Notes:           appointment.Notes,
		CreatedAt:       appointment.CreatedAt,
		UpdatedAt:       appointment.UpdatedAt,
	}
}

func toApplicationMeasurement(model persistence.Measurement) application.Measurement {
	return application.Measurement{
		ID:            model.ID,
		ClientID:      model.ClientID,
		RecordedAt:    model.RecordedAt,
		WeightKg:      model.WeightKg,
		HeightCm:      model.HeightCm,
		BMI:           model.BMI,
		WaistCm:       model.WaistCm,
		HipCm:         model.HipCm,
		BodyFatPct:    model.BodyFatPct,
		MuscleMassPct: model.MuscleMassPct,
		Notes:         model.Notes,
		PhotoURLs:     append([]string(nil), model.PhotoURLs...),
		CreatedAt:     model.CreatedAt,
	}
}

func toPersistenceMeasurement(measurement application.Measurement) persistence.Measurement {
	return persistence.Measurement{
		ID:            measurement.ID,
		ClientID:      measurement.ClientID,
		RecordedAt:    measurement.RecordedAt,
		WeightKg:      measurement.WeightKg,
		HeightCm:      measurement.HeightCm,
		BMI:           measurement.BMI,
		WaistCm:       measurement.WaistCm,
		HipCm:         measurement.HipCm,
		BodyFatPct:    measurement.BodyFatPct,
		MuscleMassPct: measurement.MuscleMassPct,
		Notes:         measurement.Notes,
		PhotoURLs:     append([]string(nil), measurement.PhotoURLs...),
		CreatedAt:     measurement.CreatedAt,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
