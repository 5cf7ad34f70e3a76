package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/nutriagenda/internal/persistence"
)

type measurementRow struct {
	ID            string          `db:"id"`
	ClientID      string          `db:"client_id"`
	RecordedAt    string          `db:"recorded_at"`
	WeightKg      float64         `db:"weight_kg"`
	HeightCm      float64         `db:"height_cm"`
	BMI           float64         `db:"bmi"`
	WaistCm       sql.NullFloat64 `db:"waist_cm"`
	HipCm         sql.NullFloat64 `db:"hip_cm"`
	BodyFatPct    sql.NullFloat64 `db:"body_fat_pct"`
	MuscleMassPct sql.NullFloat64 `db:"muscle_mass_pct"`
	Notes         string          `db:"notes"`
	PhotoURLs     string          `db:"photo_urls"`
	CreatedAt     string          `db:"created_at"`
}

func (r measurementRow) toPersistence() (persistence.Measurement, error) {
	measurement := persistence.Measurement{
		ID:            r.ID,
		ClientID:      r.ClientID,
		WeightKg:      r.WeightKg,
		HeightCm:      r.HeightCm,
		BMI:           r.BMI,
		WaistCm:       fromNullFloat(r.WaistCm),
		HipCm:         fromNullFloat(r.HipCm),
		BodyFatPct:    fromNullFloat(r.BodyFatPct),
		MuscleMassPct: fromNullFloat(r.MuscleMassPct),
		Notes:         r.Notes,
	}
	if err := json.Unmarshal([]byte(r.PhotoURLs), &measurement.PhotoURLs); err != nil {
		return persistence.Measurement{}, fmt.Errorf("failed to decode photo_urls: %w", err)
	}
	var err error
	if measurement.RecordedAt, err = parseTime("recorded_at", r.RecordedAt); err != nil {
		return persistence.Measurement{}, err
	}
	if measurement.CreatedAt, err = parseTime("created_at", r.CreatedAt); err != nil {
		return persistence.Measurement{}, err
	}
	return measurement, nil
}

func toNullFloat(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *value, Valid: true}
}

func fromNullFloat(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}

const measurementColumns = `id, client_id, recorded_at, weight_kg, height_cm, bmi, waist_cm, hip_cm, body_fat_pct, muscle_mass_pct, notes, photo_urls, created_at`

// MeasurementRepository implements persistence.MeasurementRepository.
type MeasurementRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMeasurementRepository creates a new measurement repository.
func NewMeasurementRepository(pool *ConnectionPool) *MeasurementRepository {
	return &MeasurementRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateMeasurement appends a measurement snapshot.
func (r *MeasurementRepository) CreateMeasurement(ctx context.Context, measurement persistence.Measurement) error {
	if measurement.ID == "" {
		return persistence.ErrConstraintViolation
	}

	photos := measurement.PhotoURLs
	if photos == nil {
		photos = []string{}
	}
	encoded, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("failed to encode photo_urls: %w", err)
	}

	query := `INSERT INTO measurements (` + measurementColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.helper.Exec(ctx, query,
		measurement.ID,
		measurement.ClientID,
		formatTime(measurement.RecordedAt),
		measurement.WeightKg,
		measurement.HeightCm,
		measurement.BMI,
		toNullFloat(measurement.WaistCm),
		toNullFloat(measurement.HipCm),
		toNullFloat(measurement.BodyFatPct),
		toNullFloat(measurement.MuscleMassPct),
		measurement.Notes,
		string(encoded),
		formatTime(measurement.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqldb: create measurement: %w", r.mapper.MapError(err))
	}
	return nil
}

// ListMeasurementsByClient returns a client's measurements, most recent first.
func (r *MeasurementRepository) ListMeasurementsByClient(ctx context.Context, clientID string) ([]persistence.Measurement, error) {
	query := `SELECT ` + measurementColumns + ` FROM measurements WHERE client_id = ? ORDER BY recorded_at DESC, id DESC`

	var rows []measurementRow
	if err := r.helper.Select(ctx, &rows, query, clientID); err != nil {
		return nil, fmt.Errorf("sqldb: list measurements: %w", r.mapper.MapError(err))
	}

	measurements := make([]persistence.Measurement, 0, len(rows))
	for _, row := range rows {
		measurement, err := row.toPersistence()
		if err != nil {
			return nil, err
		}
		measurements = append(measurements, measurement)
	}
	return measurements, nil
}
