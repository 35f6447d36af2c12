package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/worker"
)

func storedItinerary() *itinerary.Itinerary {
	return &itinerary.Itinerary{
		Title:     "East Coast Loop",
		StartDate: "2025-06-01",
		Landing:   &itinerary.Landing{ArrivalTime: "14:30"},
		Days: []itinerary.Day{
			{
				Day:  1,
				Date: "2025-06-01",
				Stops: []itinerary.Stop{
					{
						Name:   "JFK Airport",
						Type:   itinerary.StopTypeAirport,
						Coords: itinerary.NewCoordinate(40.6413, -73.7781),
					},
					{
						Name:     "Drive to hotel",
						Type:     itinerary.StopTypeTransfer,
						ToCoords: itinerary.NewCoordinate(40.758, -73.9855),
						Computed: &itinerary.Computed{DriveMinutes: 45},
					},
					{
						Name:   "Hotel",
						Type:   itinerary.StopTypeHotel,
						Coords: itinerary.NewCoordinate(40.758, -73.9855),
					},
				},
			},
		},
	}
}

func newFixture(t *testing.T) (*worker.RecomputeJob, *itinerary.Service) {
	t.Helper()

	svc := itinerary.NewService(itinerary.ServiceConfig{
		Logger:     zerolog.Nop(),
		Repository: itinerary.NewMemoryRepository(),
	})
	job := worker.NewRecomputeJob(worker.RecomputeJobConfig{
		Logger:  zerolog.Nop(),
		Service: svc,
	})
	return job, svc
}

func TestRecomputeJob_RecomputeOne(t *testing.T) {
	job, svc := newFixture(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, "East Coast Loop", storedItinerary())
	require.NoError(t, err)

	require.NoError(t, job.RecomputeOne(ctx, rec.ID))

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)

	stops := stored.Document.Days[0].Stops
	assert.Equal(t, "14:30", stops[0].Computed.ArrivalTime)
	assert.Equal(t, "16:30", stops[0].Computed.DepartureTime)
	assert.Equal(t, "17:15", stops[1].Computed.DepartureTime)
	assert.Equal(t, "19:45", stops[2].Computed.DepartureTime)
}

func TestRecomputeJob_RecomputeOneUnknownID(t *testing.T) {
	job, _ := newFixture(t)

	err := job.RecomputeOne(context.Background(), "itn_missing")
	assert.ErrorIs(t, err, itinerary.ErrItineraryNotFound)
}

func TestRecomputeJob_RecomputeAll(t *testing.T) {
	job, svc := newFixture(t)
	ctx := context.Background()

	for range 5 {
		_, err := svc.Create(ctx, "East Coast Loop", storedItinerary())
		require.NoError(t, err)
	}

	result, err := job.RecomputeAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 5, result.Successful)
	assert.Zero(t, result.Failed)
	assert.Empty(t, result.Errors)
}

func TestRecomputeJob_RunCollectsFailures(t *testing.T) {
	job, svc := newFixture(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, "East Coast Loop", storedItinerary())
	require.NoError(t, err)

	result := job.Run(ctx, []string{rec.ID, "itn_missing"})

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "itn_missing", result.Errors[0].ItineraryID)
	assert.True(t, result.Duration >= 0 && result.Duration < time.Minute)
}

func TestRecomputeJob_Idempotent(t *testing.T) {
	job, svc := newFixture(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, "East Coast Loop", storedItinerary())
	require.NoError(t, err)

	require.NoError(t, job.RecomputeOne(ctx, rec.ID))
	first, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)

	require.NoError(t, job.RecomputeOne(ctx, rec.ID))
	second, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Document, second.Document)
}
