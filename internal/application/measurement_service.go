package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// PhotoContentType is the content type used for measurement photos.
const PhotoContentType = "image/jpeg"

// MeasurementService records measurement snapshots and derives progress stats.
type MeasurementService struct {
	measurements MeasurementRepository
	clients      ClientLookup
	blobs        BlobStore
	idGenerator  func() string
	now          func() time.Time
	options      serviceOptions
}

// NewMeasurementService wires dependencies for the measurement service. blobs
// may be nil, in which case supplied photos are skipped.
func NewMeasurementService(measurements MeasurementRepository, clients ClientLookup, blobs BlobStore, idGenerator func() string, now func() time.Time, opts ...ServiceOption) *MeasurementService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeasurementService{
		measurements: measurements,
		clients:      clients,
		blobs:        blobs,
		idGenerator:  idGenerator,
		now:          now,
		options:      newServiceOptions(opts),
	}
}

func (s *MeasurementService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.options.logger, "MeasurementService", operation, attrs...)
}

// RecordMeasurement stores a new snapshot with its BMI. Photo uploads that
// fail are logged and skipped.
func (s *MeasurementService) RecordMeasurement(ctx context.Context, params RecordMeasurementParams) (measurement Measurement, err error) {
	if s == nil || s.measurements == nil {
		return Measurement{}, fmt.Errorf("measurement repository not configured")
	}

	clientID := strings.TrimSpace(params.ClientID)
	logger := s.loggerWith(ctx, "RecordMeasurement", "principal_id", params.Principal.UserID, "client_id", clientID)
	defer func() {
		logOutcome(ctx, logger, err, "measurement recording", "measurement_id", measurement.ID, "photos", len(measurement.PhotoURLs))
	}()

	if !params.Principal.IsProfessional() {
		return Measurement{}, ErrUnauthorized
	}

	if vErr := validateMeasurement(clientID, params); vErr.HasErrors() {
		return Measurement{}, vErr
	}

	if err = s.authorize(ctx, params.Principal, clientID); err != nil {
		return Measurement{}, err
	}

	now := s.now()
	record := Measurement{
		ID:            s.idGenerator(),
		ClientID:      clientID,
		RecordedAt:    now,
		WeightKg:      params.WeightKg,
		HeightCm:      params.HeightCm,
		BMI:           CalculateBMI(params.WeightKg, params.HeightCm),
		WaistCm:       params.WaistCm,
		HipCm:         params.HipCm,
		BodyFatPct:    params.BodyFatPct,
		MuscleMassPct: params.MuscleMassPct,
		Notes:         strings.TrimSpace(params.Notes),
		PhotoURLs:     s.uploadPhotos(ctx, logger, clientID, now, params.Photos),
		CreatedAt:     now,
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	measurement, err = s.measurements.CreateMeasurement(storeCtx, record)
	if err != nil {
		return Measurement{}, storeError(err)
	}
	return measurement, nil
}

func validateMeasurement(clientID string, params RecordMeasurementParams) *ValidationError {
	vErr := &ValidationError{}
	if clientID == "" {
		vErr.add("client_id", "client is required")
	}
	if params.WeightKg <= 0 || math.IsNaN(params.WeightKg) || math.IsInf(params.WeightKg, 0) {
		vErr.add("weight_kg", "weight must be a positive number")
	}
	if params.HeightCm < 0 || math.IsNaN(params.HeightCm) || math.IsInf(params.HeightCm, 0) {
		vErr.add("height_cm", "height must not be negative")
	}
	for field, value := range map[string]*float64{
		"waist_cm":        params.WaistCm,
		"hip_cm":          params.HipCm,
		"body_fat_pct":    params.BodyFatPct,
		"muscle_mass_pct": params.MuscleMassPct,
	} {
		if value != nil && (*value < 0 || math.IsNaN(*value)) {
			vErr.add(field, "value must not be negative")
		}
	}
	return vErr
}

// PhotoPath builds the blob path of the n-th photo recorded at the given time.
func PhotoPath(clientID string, recordedAt time.Time, n int) string {
	return fmt.Sprintf("measurements/%s/%s_%d.jpg", clientID, recordedAt.Format("20060102_150405"), n)
}

func (s *MeasurementService) uploadPhotos(ctx context.Context, logger *slog.Logger, clientID string, recordedAt time.Time, photos [][]byte) []string {
	if len(photos) == 0 {
		return nil
	}
	if s.blobs == nil {
		logger.WarnContext(ctx, "photos skipped: no blob store configured", "count", len(photos))
		return nil
	}

	urls := make([]string, 0, len(photos))
	for i, photo := range photos {
		if len(photo) == 0 {
			continue
		}
		path := PhotoPath(clientID, recordedAt, i)

		uploadCtx, cancel := s.options.storeContext(ctx)
		url, err := s.blobs.Put(uploadCtx, photo, path, PhotoContentType)
		cancel()

		if err != nil {
			logger.WarnContext(ctx, "photo upload failed", "path", path, "error", err)
			continue
		}
		if url == "" {
			logger.WarnContext(ctx, "photo upload returned no url", "path", path)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

// ListByClient returns a client's measurements, most recent first.
func (s *MeasurementService) ListByClient(ctx context.Context, principal Principal, clientID string) (measurements []Measurement, err error) {
	if s == nil || s.measurements == nil {
		return nil, fmt.Errorf("measurement repository not configured")
	}

	clientID = strings.TrimSpace(clientID)
	logger := s.loggerWith(ctx, "ListByClient", "principal_id", principal.UserID, "client_id", clientID)
	defer func() {
		logOutcome(ctx, logger, err, "measurement listing", "count", len(measurements))
	}()

	if err = s.authorize(ctx, principal, clientID); err != nil {
		return nil, err
	}

	storeCtx, cancel := s.options.storeContext(ctx)
	defer cancel()

	measurements, err = s.measurements.ListMeasurements(storeCtx, clientID)
	if err != nil {
		return nil, storeError(err)
	}
	if measurements == nil {
		measurements = []Measurement{}
	}
	return measurements, nil
}

// Latest returns the most recent measurement or ErrNotFound.
func (s *MeasurementService) Latest(ctx context.Context, principal Principal, clientID string) (Measurement, error) {
	measurements, err := s.ListByClient(ctx, principal, clientID)
	if err != nil {
		return Measurement{}, err
	}
	if len(measurements) == 0 {
		return Measurement{}, ErrNotFound
	}
	return measurements[0], nil
}

// Progress returns the client's history together with its stats.
func (s *MeasurementService) Progress(ctx context.Context, principal Principal, clientID string) (Progress, error) {
	measurements, err := s.ListByClient(ctx, principal, clientID)
	if err != nil {
		return Progress{}, err
	}
	return Progress{Measurements: measurements, Stats: Stats(measurements)}, nil
}

// authorize lets clients read their own history and professionals access
// profiles they own.
func (s *MeasurementService) authorize(ctx context.Context, principal Principal, clientID string) error {
	if clientID == "" {
		return ErrNotFound
	}
	switch {
	case principal.IsClient():
		if clientID != principal.UserID {
			return ErrUnauthorized
		}
		return nil
	case principal.IsProfessional():
		if s.clients == nil {
			return fmt.Errorf("client lookup not configured")
		}
		storeCtx, cancel := s.options.storeContext(ctx)
		defer cancel()

		client, err := s.clients.GetClient(storeCtx, clientID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrNotFound
			}
			return storeError(err)
		}
		if client.OwnerID != principal.UserID {
			return ErrUnauthorized
		}
		return nil
	default:
		return ErrUnauthorized
	}
}

// CalculateBMI returns weight / height² (height in metres) rounded to two
// decimals. A non-positive height yields 0.
func CalculateBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	heightM := heightCm / 100
	return roundTo(weightKg/(heightM*heightM), 2)
}

// BMICategory labels a BMI value. Zero or negative values have no category.
func BMICategory(bmi float64) string {
	switch {
	case bmi <= 0:
		return ""
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	case bmi < 35.0:
		return "Obesity class I"
	case bmi < 40.0:
		return "Obesity class II"
	default:
		return "Obesity class III"
	}
}

// Stats summarises measurements given most recent first. Every record counts:
// weight change is newest minus oldest, zero with fewer than two records, and
// the BMI average includes records stored with a zero BMI.
func Stats(measurements []Measurement) MeasurementStats {
	if len(measurements) == 0 {
		return MeasurementStats{}
	}

	stats := MeasurementStats{TotalRecords: len(measurements)}

	latest := measurements[0].RecordedAt
	first := measurements[len(measurements)-1].RecordedAt
	if !latest.IsZero() {
		stats.LatestMeasurementDate = &latest
	}
	if !first.IsZero() {
		stats.FirstMeasurementDate = &first
	}

	if len(measurements) > 1 {
		stats.WeightChange = measurements[0].WeightKg - measurements[len(measurements)-1].WeightKg
	}

	var bmiSum float64
	for _, m := range measurements {
		bmiSum += m.BMI
	}
	stats.AverageBMI = bmiSum / float64(len(measurements))
	return stats
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
