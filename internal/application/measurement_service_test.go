package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBMI(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 22.86, CalculateBMI(70, 175))
	assert.Equal(t, 24.69, CalculateBMI(80, 180))
	assert.Equal(t, 0.0, CalculateBMI(70, 0))
	assert.Equal(t, 0.0, CalculateBMI(70, -10))
}

func TestBMICategory(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		0:     "",
		17.9:  "Underweight",
		18.5:  "Normal weight",
		24.99: "Normal weight",
		25:    "Overweight",
		32:    "Obesity class I",
		37.5:  "Obesity class II",
		41:    "Obesity class III",
	}
	for bmi, want := range cases {
		assert.Equal(t, want, BMICategory(bmi), "bmi %v", bmi)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()
		stats := Stats(nil)
		assert.True(t, stats.Empty())
		assert.Zero(t, stats.WeightChange)
		assert.Zero(t, stats.AverageBMI)
		assert.Nil(t, stats.FirstMeasurementDate)
		assert.Nil(t, stats.LatestMeasurementDate)
	})

	t.Run("single record has no weight change", func(t *testing.T) {
		t.Parallel()
		at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		stats := Stats([]Measurement{{WeightKg: 80, BMI: 25, RecordedAt: at}})
		assert.Equal(t, 1, stats.TotalRecords)
		assert.Zero(t, stats.WeightChange)
		assert.Equal(t, 25.0, stats.AverageBMI)
		require.NotNil(t, stats.FirstMeasurementDate)
		assert.Equal(t, at, *stats.FirstMeasurementDate)
		assert.Equal(t, at, *stats.LatestMeasurementDate)
	})

	t.Run("newest first history", func(t *testing.T) {
		t.Parallel()
		newest := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		oldest := newest.AddDate(0, -1, 0)
		stats := Stats([]Measurement{
			{WeightKg: 80, BMI: 25, RecordedAt: newest},
			{WeightKg: 75, BMI: 23, RecordedAt: oldest},
		})
		assert.Equal(t, 2, stats.TotalRecords)
		assert.Equal(t, 5.0, stats.WeightChange)
		assert.Equal(t, 24.0, stats.AverageBMI)
		assert.Equal(t, oldest, *stats.FirstMeasurementDate)
		assert.Equal(t, newest, *stats.LatestMeasurementDate)
	})

	t.Run("records stored with a zero bmi count toward the average", func(t *testing.T) {
		t.Parallel()
		stats := Stats([]Measurement{{WeightKg: 80, BMI: 25}, {WeightKg: 75, BMI: 0}})
		assert.Equal(t, 12.5, stats.AverageBMI)
		assert.Equal(t, 5.0, stats.WeightChange)

		stats = Stats([]Measurement{{WeightKg: 70, BMI: 22}, {WeightKg: 72, BMI: 0}, {WeightKg: 74, BMI: 24}})
		assert.InDelta(t, 46.0/3, stats.AverageBMI, 1e-9)
		assert.Equal(t, -4.0, stats.WeightChange)
	})

	t.Run("average is not rounded", func(t *testing.T) {
		t.Parallel()
		stats := Stats([]Measurement{{WeightKg: 70, BMI: 22.1}, {WeightKg: 70, BMI: 22.2}, {WeightKg: 70, BMI: 22.2}})
		assert.InDelta(t, 22.1666666, stats.AverageBMI, 1e-6)
		assert.NotEqual(t, 22.17, stats.AverageBMI)
	})
}

func TestPhotoPath(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "measurements/client-1/20240305_070809_2.jpg", PhotoPath("client-1", at, 2))
}

type measurementHarness struct {
	service      *MeasurementService
	measurements *measurementRepoStub
	blobs        *blobStoreStub
	clock        *fixedClock
	clientID     string
}

func newMeasurementHarness(t *testing.T) *measurementHarness {
	t.Helper()

	clients := newClientRepoStub()
	_, err := clients.CreateClient(context.Background(), ClientProfile{ID: "client-user", OwnerID: professional.UserID, PersonalInfo: PersonalInfo{Name: "María"}})
	require.NoError(t, err)

	clock := newFixedClock(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))
	measurements := &measurementRepoStub{}
	blobs := &blobStoreStub{}
	service := NewMeasurementService(measurements, clients, blobs, sequentialIDs("m"), clock.Now, WithLogger(discardLogger))
	return &measurementHarness{service: service, measurements: measurements, blobs: blobs, clock: clock, clientID: "client-user"}
}

func TestMeasurementService_Record(t *testing.T) {
	t.Parallel()

	t.Run("computes bmi and uploads photos", func(t *testing.T) {
		t.Parallel()
		h := newMeasurementHarness(t)
		waist := 82.5

		m, err := h.service.RecordMeasurement(context.Background(), RecordMeasurementParams{
			Principal: professional,
			ClientID:  h.clientID,
			WeightKg:  70,
			HeightCm:  175,
			WaistCm:   &waist,
			Photos:    [][]byte{[]byte("front"), []byte("side")},
		})
		require.NoError(t, err)
		assert.Equal(t, 22.86, m.BMI)
		assert.Equal(t, h.clock.Now(), m.RecordedAt)
		require.NotNil(t, m.WaistCm)
		assert.Equal(t, waist, *m.WaistCm)
		assert.Equal(t, []string{
			"https://cdn.example.com/measurements/client-user/20240315_093000_0.jpg",
			"https://cdn.example.com/measurements/client-user/20240315_093000_1.jpg",
		}, m.PhotoURLs)
	})

	t.Run("failed uploads are skipped", func(t *testing.T) {
		t.Parallel()
		h := newMeasurementHarness(t)
		h.blobs.failures = map[int]error{0: errors.New("bucket unavailable")}

		m, err := h.service.RecordMeasurement(context.Background(), RecordMeasurementParams{
			Principal: professional,
			ClientID:  h.clientID,
			WeightKg:  70,
			Photos:    [][]byte{[]byte("front"), []byte("side")},
		})
		require.NoError(t, err)
		assert.Zero(t, m.BMI)
		assert.Equal(t, []string{"https://cdn.example.com/measurements/client-user/20240315_093000_1.jpg"}, m.PhotoURLs)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()
		h := newMeasurementHarness(t)
		negative := -1.0

		_, err := h.service.RecordMeasurement(context.Background(), RecordMeasurementParams{
			Principal:  professional,
			ClientID:   h.clientID,
			WeightKg:   0,
			HeightCm:   -5,
			BodyFatPct: &negative,
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "weight_kg")
		assert.Contains(t, vErr.FieldErrors, "height_cm")
		assert.Contains(t, vErr.FieldErrors, "body_fat_pct")
		assert.Empty(t, h.measurements.measurements)
	})

	t.Run("only the owning professional records", func(t *testing.T) {
		t.Parallel()
		h := newMeasurementHarness(t)

		_, err := h.service.RecordMeasurement(context.Background(), RecordMeasurementParams{Principal: otherProfessional, ClientID: h.clientID, WeightKg: 70})
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = h.service.RecordMeasurement(context.Background(), RecordMeasurementParams{Principal: clientPrincipal, ClientID: h.clientID, WeightKg: 70})
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = h.service.RecordMeasurement(context.Background(), RecordMeasurementParams{Principal: professional, ClientID: "ghost", WeightKg: 70})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMeasurementService_HistoryAndProgress(t *testing.T) {
	t.Parallel()

	h := newMeasurementHarness(t)
	client := Principal{UserID: h.clientID, Role: RoleClient}

	_, err := h.service.Latest(context.Background(), client, h.clientID)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, weight := range []float64{75, 78, 80} {
		_, err := h.service.RecordMeasurement(context.Background(), RecordMeasurementParams{Principal: professional, ClientID: h.clientID, WeightKg: weight, HeightCm: 175})
		require.NoError(t, err)
		h.clock.Advance(24 * time.Hour)
	}

	history, err := h.service.ListByClient(context.Background(), client, h.clientID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 80.0, history[0].WeightKg)
	assert.Equal(t, 75.0, history[2].WeightKg)

	latest, err := h.service.Latest(context.Background(), professional, h.clientID)
	require.NoError(t, err)
	assert.Equal(t, history[0].ID, latest.ID)

	progress, err := h.service.Progress(context.Background(), client, h.clientID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.Stats.TotalRecords)
	assert.Equal(t, 5.0, progress.Stats.WeightChange)

	_, err = h.service.ListByClient(context.Background(), Principal{UserID: "someone-else", Role: RoleClient}, h.clientID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	h.measurements.listErr = errors.New("timeout")
	_, err = h.service.ListByClient(context.Background(), client, h.clientID)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
