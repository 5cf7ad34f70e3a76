package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/nutriagenda/internal/application"
	"github.com/example/nutriagenda/internal/persistence"
)

var (
	userCounter        uint64
	clientCounter      uint64
	appointmentCounter uint64
	measurementCounter uint64
	sessionCounter     uint64
)

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account profile with its password hash.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Phone        string
	Role         application.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a professional account unless overridden.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Phone:        fmt.Sprintf("+34 600 %06d", idx),
		Role:         application.RoleProfessional,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) { f.DisplayName = name }
}

// WithUserRole overrides the role.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// WithUserTimestamps sets both created and updated timestamps.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Phone:       f.Phone,
		Role:        f.Role,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.User.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Phone:       f.Phone,
		Role:        string(f.Role),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Credential returns the password record that belongs to the fixture.
func (f UserFixture) Credential() persistence.Credential {
	return persistence.Credential{
		UserID:       f.ID,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
	}
}

// ----------------------------- Client fixtures -----------------------------

// ClientFixture is a deterministic client profile.
type ClientFixture struct {
	ID          string
	OwnerID     string
	Name        string
	Email       string
	Phone       string
	BirthDate   *time.Time
	Gender      string
	Conditions  []string
	Allergies   []string
	Medications []string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClientOption configures the generated client fixture.
type ClientOption func(*ClientFixture)

// NewClientFixture returns a client profile owned by "pro-1" unless overridden.
func NewClientFixture(opts ...ClientOption) ClientFixture {
	idx := atomic.AddUint64(&clientCounter, 1)
	id := fmt.Sprintf("client-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	birth := time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC)
	fixture := ClientFixture{
		ID:        id,
		OwnerID:   "pro-1",
		Name:      fmt.Sprintf("Client %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		BirthDate: &birth,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithClientID overrides the generated client ID.
func WithClientID(id string) ClientOption {
	return func(f *ClientFixture) { f.ID = id }
}

// WithClientOwner sets the owning professional.
func WithClientOwner(ownerID string) ClientOption {
	return func(f *ClientFixture) { f.OwnerID = ownerID }
}

// WithClientName overrides the client name.
func WithClientName(name string) ClientOption {
	return func(f *ClientFixture) { f.Name = name }
}

// WithClientBirthDate sets or clears the birth date.
func WithClientBirthDate(birth *time.Time) ClientOption {
	return func(f *ClientFixture) { f.BirthDate = birth }
}

// WithClientAllergies sets the allergy list.
func WithClientAllergies(allergies ...string) ClientOption {
	return func(f *ClientFixture) { f.Allergies = allergies }
}

// WithClientCreatedAt sets both timestamps.
func WithClientCreatedAt(t time.Time) ClientOption {
	return func(f *ClientFixture) {
		f.CreatedAt = t
		f.UpdatedAt = t
	}
}

// Application returns the fixture as an application.ClientProfile.
func (f ClientFixture) Application() application.ClientProfile {
	return application.ClientProfile{
		ID:      f.ID,
		OwnerID: f.OwnerID,
		PersonalInfo: application.PersonalInfo{
			Name:      f.Name,
			Email:     f.Email,
			Phone:     f.Phone,
			BirthDate: f.BirthDate,
			Gender:    f.Gender,
		},
		MedicalHistory: application.MedicalHistory{
			Conditions:  f.Conditions,
			Allergies:   f.Allergies,
			Medications: f.Medications,
			Notes:       f.Notes,
		},
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Client.
func (f ClientFixture) Persistence() persistence.Client {
	return persistence.Client{
		ID:      f.ID,
		OwnerID: f.OwnerID,
		PersonalInfo: persistence.PersonalInfo{
			Name:      f.Name,
			Email:     f.Email,
			Phone:     f.Phone,
			BirthDate: f.BirthDate,
			Gender:    f.Gender,
		},
		MedicalHistory: persistence.MedicalHistory{
			Conditions:  f.Conditions,
			Allergies:   f.Allergies,
			Medications: f.Medications,
			Notes:       f.Notes,
		},
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// --------------------------- Appointment fixtures ---------------------------

// AppointmentFixture is a deterministic appointment.
type AppointmentFixture struct {
	ID              string
	ClientID        string
	ProfessionalID  string
	ScheduledAt     time.Time
	DurationMinutes int
	Status          application.AppointmentStatus
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns a scheduled one-hour appointment between
// "client-1" and "pro-1", one day after the reference time.
func NewAppointmentFixture(opts ...AppointmentOption) AppointmentFixture {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	fixture := AppointmentFixture{
		ID:              fmt.Sprintf("appt-%03d", idx),
		ClientID:        "client-1",
		ProfessionalID:  "pro-1",
		ScheduledAt:     referenceTime.Add(24 * time.Hour),
		DurationMinutes: application.DefaultAppointmentDuration,
		Status:          application.AppointmentScheduled,
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAppointmentID overrides the generated ID.
func WithAppointmentID(id string) AppointmentOption {
	return func(f *AppointmentFixture) { f.ID = id }
}

// WithAppointmentParties sets the client and the professional.
func WithAppointmentParties(clientID, professionalID string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.ClientID = clientID
		f.ProfessionalID = professionalID
	}
}

// WithAppointmentAt sets the scheduled instant.
func WithAppointmentAt(t time.Time) AppointmentOption {
	return func(f *AppointmentFixture) { f.ScheduledAt = t }
}

// WithAppointmentStatus sets the status.
func WithAppointmentStatus(status application.AppointmentStatus) AppointmentOption {
	return func(f *AppointmentFixture) { f.Status = status }
}

// Application returns the fixture as an application.Appointment.
func (f AppointmentFixture) Application() application.Appointment {
	return application.Appointment{
		ID:              f.ID,
		ClientID:        f.ClientID,
		ProfessionalID:  f.ProfessionalID,
		ScheduledAt:     f.ScheduledAt,
		DurationMinutes: f.DurationMinutes,
		Status:          f.Status,
		Notes:           f.Notes,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Appointment.
func (f AppointmentFixture) Persistence() persistence.Appointment {
	return persistence.Appointment{
		ID:              f.ID,
		ClientID:        f.ClientID,
		ProfessionalID:  f.ProfessionalID,
		ScheduledAt:     f.ScheduledAt,
		DurationMinutes: f.DurationMinutes,
		Status:          string(f.Status),
		Notes:           f.Notes,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

// --------------------------- Measurement fixtures ---------------------------

// MeasurementFixture is a deterministic measurement snapshot.
type MeasurementFixture struct {
	ID         string
	ClientID   string
	RecordedAt time.Time
	WeightKg   float64
	HeightCm   float64
	WaistCm    *float64
	BodyFatPct *float64
	Notes      string
	PhotoURLs  []string
}

// MeasurementOption configures the generated measurement fixture.
type MeasurementOption func(*MeasurementFixture)

// NewMeasurementFixture returns a 70 kg / 175 cm measurement for "client-1".
// Each fixture is recorded one day after the previous one.
func NewMeasurementFixture(opts ...MeasurementOption) MeasurementFixture {
	idx := atomic.AddUint64(&measurementCounter, 1)
	fixture := MeasurementFixture{
		ID:         fmt.Sprintf("measurement-%03d", idx),
		ClientID:   "client-1",
		RecordedAt: referenceTime.Add(time.Duration(idx) * 24 * time.Hour),
		WeightKg:   70,
		HeightCm:   175,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMeasurementID overrides the generated ID.
func WithMeasurementID(id string) MeasurementOption {
	return func(f *MeasurementFixture) { f.ID = id }
}

// WithMeasurementClient sets the client the measurement belongs to.
func WithMeasurementClient(clientID string) MeasurementOption {
	return func(f *MeasurementFixture) { f.ClientID = clientID }
}

// WithMeasurementAt sets the recording instant.
func WithMeasurementAt(t time.Time) MeasurementOption {
	return func(f *MeasurementFixture) { f.RecordedAt = t }
}

// WithMeasurementBody sets weight and height.
func WithMeasurementBody(weightKg, heightCm float64) MeasurementOption {
	return func(f *MeasurementFixture) {
		f.WeightKg = weightKg
		f.HeightCm = heightCm
	}
}

// WithMeasurementWaist sets the optional waist circumference.
func WithMeasurementWaist(cm float64) MeasurementOption {
	return func(f *MeasurementFixture) { f.WaistCm = &cm }
}

// WithMeasurementPhotos sets the photo URLs.
func WithMeasurementPhotos(urls ...string) MeasurementOption {
	return func(f *MeasurementFixture) { f.PhotoURLs = urls }
}

// Application returns the fixture as an application.Measurement with the BMI
// derived from weight and height.
func (f MeasurementFixture) Application() application.Measurement {
	return application.Measurement{
		ID:         f.ID,
		ClientID:   f.ClientID,
		RecordedAt: f.RecordedAt,
		WeightKg:   f.WeightKg,
		HeightCm:   f.HeightCm,
		BMI:        application.CalculateBMI(f.WeightKg, f.HeightCm),
		WaistCm:    f.WaistCm,
		BodyFatPct: f.BodyFatPct,
		Notes:      f.Notes,
		PhotoURLs:  f.PhotoURLs,
		CreatedAt:  f.RecordedAt,
	}
}

// Persistence returns the fixture as a persistence.Measurement.
func (f MeasurementFixture) Persistence() persistence.Measurement {
	m := f.Application()
	return persistence.Measurement{
		ID:         m.ID,
		ClientID:   m.ClientID,
		RecordedAt: m.RecordedAt,
		WeightKg:   m.WeightKg,
		HeightCm:   m.HeightCm,
		BMI:        m.BMI,
		WaistCm:    m.WaistCm,
		BodyFatPct: m.BodyFatPct,
		Notes:      m.Notes,
		PhotoURLs:  m.PhotoURLs,
		CreatedAt:  m.CreatedAt,
	}
}

// ----------------------------- Session fixtures -----------------------------

// SessionFixture is a deterministic persisted session.
type SessionFixture struct {
	ID        string
	UserID    string
	Role      application.Role
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a live professional session that expires one day
// after the reference time.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "pro-1",
		Role:      application.RoleProfessional,
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) { f.ID = id }
}

// WithSessionUser sets the owner and their role.
func WithSessionUser(userID string, role application.Role) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
		f.Role = role
	}
}

// WithSessionExpiry sets the expiry instant.
func WithSessionExpiry(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.ExpiresAt = t }
}

// WithSessionRevokedAt marks the session revoked.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) { f.RevokedAt = &t }
}

// Persistence returns the fixture as a persistence.Session.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Role:      string(f.Role),
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}
