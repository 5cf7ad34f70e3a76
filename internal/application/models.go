package application

import (
	"strings"
	"time"
)

// Role identifies which dashboard and operations a user may access.
type Role string

const (
	// RoleProfessional is a nutrition professional who owns client profiles.
	RoleProfessional Role = "professional"
	// RoleClient is a client who reads their own appointments and measurements.
	RoleClient Role = "client"
)

// ParseRole normalises a role name. "nutritionist" is accepted as an alias of
// professional.
func ParseRole(value string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "professional", "nutritionist":
		return RoleProfessional, true
	case "client":
		return RoleClient, true
	default:
		return "", false
	}
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID    string
	Role      Role
	SessionID string
}

// IsProfessional reports whether the principal acts as a professional.
func (p Principal) IsProfessional() bool {
	return p.UserID != "" && p.Role == RoleProfessional
}

// IsClient reports whether the principal acts as a client.
func (p Principal) IsClient() bool {
	return p.UserID != "" && p.Role == RoleClient
}

// HasRole reports whether the principal holds the given role.
func HasRole(principal Principal, role Role) bool {
	return principal.UserID != "" && principal.Role == role
}

// User is an account profile. Passwords never leave the credential provider.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Phone       string
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session is a persisted login. Token is only populated on the value returned
// to the caller that logged in or refreshed; it is never stored.
type Session struct {
	ID        string
	UserID    string
	Role      Role
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionClaims is the signed payload carried by a session token.
type SessionClaims struct {
	SessionID string
	UserID    string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RegisterParams wraps the data required to create an account.
type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
	Phone       string
	Role        string
}

// LoginParams wraps the data required to authenticate.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult captures the user profile and the newly issued session.
type LoginResult struct {
	User    User
	Session Session
}

// PersonalInfo is the personal sub-document of a client profile.
type PersonalInfo struct {
	Name      string
	Email     string
	Phone     string
	BirthDate *time.Time
	Gender    string
	Extra     map[string]string
}

// MedicalHistory is the clinical sub-document of a client profile.
type MedicalHistory struct {
	Conditions  []string
	Allergies   []string
	Medications []string
	Notes       string
	Extra       map[string]string
}

// ClientProfile is a client record owned by a professional.
type ClientProfile struct {
	ID             string
	OwnerID        string
	PersonalInfo   PersonalInfo
	MedicalHistory MedicalHistory
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateClientParams wraps the data required to create a client profile.
// AccountID links the profile to an existing client-role user; the profile
// then shares that user's ID.
type CreateClientParams struct {
	Principal      Principal
	OwnerID        string
	PersonalInfo   PersonalInfo
	MedicalHistory MedicalHistory
	AccountID      string
}

// ClientPatch lists the fields of a client profile that may be changed.
// Nil fields are left untouched; present fields replace the stored value.
type ClientPatch struct {
	PersonalInfo   *PersonalInfo
	MedicalHistory *MedicalHistory
}

// UpdateClientParams wraps the data required to update a client profile.
type UpdateClientParams struct {
	Principal Principal
	ClientID  string
	Patch     ClientPatch
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no-show"
)

// ParseAppointmentStatus validates a status value.
func ParseAppointmentStatus(value string) (AppointmentStatus, bool) {
	status := AppointmentStatus(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return status, true
	case "no_show", "noshow":
		return AppointmentNoShow, true
	default:
		return "", false
	}
}

// DefaultAppointmentDuration applies when no positive duration is supplied.
const DefaultAppointmentDuration = 60

// Appointment links a client to a professional at a point in time.
type Appointment struct {
	ID              string
	ClientID        string
	ProfessionalID  string
	ScheduledAt     time.Time
	DurationMinutes int
	Status          AppointmentStatus
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppointmentQuery narrows appointment listings. Empty fields are ignored and
// time bounds are inclusive.
type AppointmentQuery struct {
	ProfessionalID string
	ClientID       string
	From           *time.Time
	To             *time.Time
}

// CreateAppointmentParams wraps the data required to book an appointment.
type CreateAppointmentParams struct {
	Principal       Principal
	ClientID        string
	ProfessionalID  string
	ScheduledAt     time.Time
	DurationMinutes int
	Notes           string
}

// ListByProfessionalParams wraps a professional agenda query. StartDate and
// EndDate are calendar days: the range covers StartDate 00:00 through the end
// of EndDate.
type ListByProfessionalParams struct {
	Principal      Principal
	ProfessionalID string
	StartDate      *time.Time
	EndDate        *time.Time
}

// Measurement is an append-only body measurement snapshot.
type Measurement struct {
	ID            string
	ClientID      string
	RecordedAt    time.Time
	WeightKg      float64
	HeightCm      float64
	BMI           float64
	WaistCm       *float64
	HipCm         *float64
	BodyFatPct    *float64
	MuscleMassPct *float64
	Notes         string
	PhotoURLs     []string
	CreatedAt     time.Time
}

// RecordMeasurementParams wraps the data required to record a measurement.
// Each entry of Photos is the raw JPEG payload of one photo.
type RecordMeasurementParams struct {
	Principal     Principal
	ClientID      string
	WeightKg      float64
	HeightCm      float64
	WaistCm       *float64
	HipCm         *float64
	BodyFatPct    *float64
	MuscleMassPct *float64
	Notes         string
	Photos        [][]byte
}

// MeasurementStats summarises a measurement history.
type MeasurementStats struct {
	TotalRecords          int
	WeightChange          float64
	AverageBMI            float64
	FirstMeasurementDate  *time.Time
	LatestMeasurementDate *time.Time
}

// Empty reports whether the stats were computed from no measurements.
func (s MeasurementStats) Empty() bool {
	return s.TotalRecords == 0
}

// Progress combines a client's measurement history with its summary.
type Progress struct {
	Measurements []Measurement
	Stats        MeasurementStats
}

// View names the dashboard a principal is routed to.
type View string

const (
	ViewProfessional View = "professional"
	ViewClient       View = "client"
)

// ProfessionalSummary feeds the professional dashboard.
type ProfessionalSummary struct {
	TotalClients         int
	AppointmentsToday    []Appointment
	UpcomingAppointments []Appointment
}

// ClientSummary feeds the client dashboard.
type ClientSummary struct {
	NextAppointment   *Appointment
	LatestMeasurement *Measurement
	BMICategory       string
}
