package sqldb

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/nutriagenda/internal/persistence"
)

type appointmentRow struct {
	ID              string `db:"id"`
	ClientID        string `db:"client_id"`
	ProfessionalID  string `db:"professional_id"`
	ScheduledAt     string `db:"scheduled_at"`
	DurationMinutes int    `db:"duration_minutes"`
	Status          string `db:"status"`
	Notes           string `db:"notes"`
	CreatedAt       string `db:"created_at"`
	UpdatedAt       string `db:"updated_at"`
}

func (r appointmentRow) toPersistence() (persistence.Appointment, error) {
	appointment := persistence.Appointment{
		ID:              r.ID,
		ClientID:        r.ClientID,
		ProfessionalID:  r.ProfessionalID,
		DurationMinutes: r.DurationMinutes,
		Status:          r.Status,
		Notes:           r.Notes,
	}
	var err error
	if appointment.ScheduledAt, err = parseTime("scheduled_at", r.ScheduledAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.CreatedAt, err = parseTime("created_at", r.CreatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.UpdatedAt, err = parseTime("updated_at", r.UpdatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	return appointment, nil
}

const appointmentColumns = `id, client_id, professional_id, scheduled_at, duration_minutes, status, notes, created_at, updated_at`

// AppointmentRepository implements persistence.AppointmentRepository.
type AppointmentRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAppointment inserts an appointment.
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	if appointment.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO appointments (` + appointmentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		appointment.ID,
		appointment.ClientID,
		appointment.ProfessionalID,
		formatTime(appointment.ScheduledAt),
		appointment.DurationMinutes,
		appointment.Status,
		appointment.Notes,
		formatTime(appointment.CreatedAt),
		formatTime(appointment.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqldb: create appointment: %w", r.mapper.MapError(err))
	}
	return nil
}

// UpdateAppointment rewrites the mutable fields of an appointment.
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appointment persistence.Appointment) error {
	query := `
		UPDATE appointments
		SET client_id = ?, professional_id = ?, scheduled_at = ?, duration_minutes = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		appointment.ClientID,
		appointment.ProfessionalID,
		formatTime(appointment.ScheduledAt),
		appointment.DurationMinutes,
		appointment.Status,
		appointment.Notes,
		formatTime(appointment.UpdatedAt),
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("sqldb: update appointment: %w", r.mapper.MapError(err))
	}
	return requireAffected(result)
}

// GetAppointment retrieves an appointment by ID.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	var row appointmentRow
	if err := r.helper.Get(ctx, &row, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id); err != nil {
		return persistence.Appointment{}, r.mapper.MapError(err)
	}
	return row.toPersistence()
}

// ListAppointments returns matching appointments, earliest first.
func (r *AppointmentRepository) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]persistence.Appointment, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.ProfessionalID != "" {
		conditions = append(conditions, "professional_id = ?")
		args = append(args, filter.ProfessionalID)
	}
	if filter.ClientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.ScheduledFrom != nil {
		conditions = append(conditions, "scheduled_at >= ?")
		args = append(args, formatTime(*filter.ScheduledFrom))
	}
	if filter.ScheduledTo != nil {
		conditions = append(conditions, "scheduled_at <= ?")
		args = append(args, formatTime(*filter.ScheduledTo))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY scheduled_at ASC, id ASC`

	var rows []appointmentRow
	if err := r.helper.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sqldb: list appointments: %w", r.mapper.MapError(err))
	}

	appointments := make([]persistence.Appointment, 0, len(rows))
	for _, row := range rows {
		appointment, err := row.toPersistence()
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, nil
}
