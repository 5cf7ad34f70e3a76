package persistence

import "time"

// User represents a registered account (professional or client).
type User struct {
	ID          string
	Email       string
	DisplayName string
	Phone       string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Credential stores the password hash for a user account.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PersonalInfo is the personal sub-document of a client profile.
type PersonalInfo struct {
	Name      string            `json:"name"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	BirthDate *time.Time        `json:"birthDate,omitempty"`
	Gender    string            `json:"gender,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// MedicalHistory is the clinical sub-document of a client profile.
type MedicalHistory struct {
	Conditions  []string          `json:"conditions,omitempty"`
	Allergies   []string          `json:"allergies,omitempty"`
	Medications []string          `json:"medications,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Client represents a client profile owned by a professional.
type Client struct {
	ID             string
	OwnerID        string
	PersonalInfo   PersonalInfo
	MedicalHistory MedicalHistory
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Appointment links a client to a professional at a point in time.
type Appointment struct {
	ID              string
	ClientID        string
	ProfessionalID  string
	ScheduledAt     time.Time
	DurationMinutes int
	Status          string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
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

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Role      string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
