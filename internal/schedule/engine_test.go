package schedule_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/schedule"
)

func newEngine(d schedule.Durations) *schedule.Engine {
	return schedule.NewEngine(schedule.EngineConfig{
		Logger:    zerolog.Nop(),
		Durations: d,
	})
}

// arrivalDayOne builds a day-one chain: airport, transfer with a drive, and
// a hotel sharing the transfer's destination coordinates.
func arrivalDayOne() *itinerary.Itinerary {
	return &itinerary.Itinerary{
		StartDate: "2025-06-01",
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
						Name:       "Van pickup and drive to hotel",
						Type:       itinerary.StopTypeTransfer,
						FromCoords: itinerary.NewCoordinate(40.6413, -73.7781),
						ToCoords:   itinerary.NewCoordinate(40.7580, -73.9855),
						Computed:   &itinerary.Computed{DriveMinutes: 45},
					},
					{
						Name:   "Midtown Hotel",
						Type:   itinerary.StopTypeHotel,
						Coords: itinerary.NewCoordinate(40.7580, -73.9855),
					},
				},
			},
		},
	}
}

func TestPropagate_AirportAnchor(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := arrivalDayOne()

	result := engine.Propagate(itin, schedule.Anchor{Date: "2025-06-01", Time: "14:30"})
	require.Same(t, itin, result)

	airport := result.Days[0].Stops[0]
	require.NotNil(t, airport.Computed)
	assert.Equal(t, "14:30", airport.Computed.ArrivalTime)
	assert.Equal(t, "16:30", airport.Computed.DepartureTime)
}

func TestPropagate_TransferAndHotelChain(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := engine.Propagate(arrivalDayOne(), schedule.Anchor{Date: "2025-06-01", Time: "14:30"})

	transfer := itin.Days[0].Stops[1]
	require.NotNil(t, transfer.Computed)
	assert.Equal(t, "16:30", transfer.Computed.DepartureTime)
	assert.Equal(t, "17:15", transfer.Computed.ArrivalTime)

	hotel := itin.Days[0].Stops[2]
	require.NotNil(t, hotel.Computed)
	assert.Equal(t, "17:15", hotel.Computed.ArrivalTime)
	assert.Equal(t, "19:45", hotel.Computed.DepartureTime)
}

func TestPropagate_ConfiguredDurations(t *testing.T) {
	engine := newEngine(schedule.Durations{
		BaggageClaimMinutes: 30,
		HotelCheckinMinutes: 60,
	})
	itin := engine.Propagate(arrivalDayOne(), schedule.Anchor{Date: "2025-06-01", Time: "14:30"})

	assert.Equal(t, "15:00", itin.Days[0].Stops[0].Computed.DepartureTime)
	assert.Equal(t, "15:45", itin.Days[0].Stops[1].Computed.ArrivalTime)
	assert.Equal(t, "16:45", itin.Days[0].Stops[2].Computed.DepartureTime)
}

func TestPropagate_MidnightRollover(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := engine.Propagate(arrivalDayOne(), schedule.Anchor{Date: "2025-06-01", Time: "23:10"})

	airport := itin.Days[0].Stops[0]
	assert.Equal(t, "23:10", airport.Computed.ArrivalTime)
	// 23:10 + 120min crosses midnight
	assert.Equal(t, "01:10", airport.Computed.DepartureTime)
}

func TestPropagate_Idempotent(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	anchor := schedule.Anchor{Date: "2025-06-01", Time: "14:30"}

	itin := engine.Propagate(arrivalDayOne(), anchor)
	first := *itin.Days[0].Stops[2].Computed

	engine.Propagate(itin, anchor)
	second := *itin.Days[0].Stops[2].Computed

	assert.Equal(t, first, second, "re-running propagation must not accumulate offsets")
	assert.Equal(t, "16:30", itin.Days[0].Stops[0].Computed.DepartureTime)
	assert.Equal(t, "17:15", itin.Days[0].Stops[1].Computed.ArrivalTime)
}

func TestPropagate_PartialAnchorIsNoOp(t *testing.T) {
	engine := newEngine(schedule.Durations{})

	for _, anchor := range []schedule.Anchor{
		{},
		{Date: "2025-06-01"},
		{Time: "14:30"},
	} {
		itin := engine.Propagate(arrivalDayOne(), anchor)
		assert.Nil(t, itin.Days[0].Stops[0].Computed, "anchor %+v should leave times unset", anchor)
	}
}

func TestPropagate_UnparseableAnchorIsNoOp(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := engine.Propagate(arrivalDayOne(), schedule.Anchor{Date: "June 1st", Time: "2:30pm"})
	assert.Nil(t, itin.Days[0].Stops[0].Computed)
}

func TestPropagate_NoAirportStop(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := &itinerary.Itinerary{
		Days: []itinerary.Day{
			{Stops: []itinerary.Stop{
				{Name: "Hotel", Type: itinerary.StopTypeHotel},
				{Name: "Hike", Type: itinerary.StopTypeActivity},
			}},
		},
	}

	engine.Propagate(itin, schedule.Anchor{Date: "2025-06-01", Time: "14:30"})

	for _, stop := range itin.Days[0].Stops {
		assert.Nil(t, stop.Computed)
	}
}

func TestPropagate_OnlyFirstAirportChainResolved(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := arrivalDayOne()
	itin.Days = append(itin.Days, itinerary.Day{
		Day:  2,
		Date: "2025-06-02",
		Stops: []itinerary.Stop{
			{Name: "Denver Airport", Type: itinerary.StopTypeAirport},
		},
	})

	engine.Propagate(itin, schedule.Anchor{Date: "2025-06-01", Time: "14:30"})

	assert.NotNil(t, itin.Days[0].Stops[0].Computed)
	assert.Nil(t, itin.Days[1].Stops[0].Computed, "second airport must not be anchored")
}

func TestPropagate_TransferWithoutDriveMinutes(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := arrivalDayOne()
	itin.Days[0].Stops[1].Computed = nil

	engine.Propagate(itin, schedule.Anchor{Date: "2025-06-01", Time: "14:30"})

	assert.NotNil(t, itin.Days[0].Stops[0].Computed)
	assert.Nil(t, itin.Days[0].Stops[1].Computed, "transfer without drive_minutes must stay unset")
	assert.Nil(t, itin.Days[0].Stops[2].Computed)
}

func TestPropagate_FirstCoordinateMatchOnly(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := arrivalDayOne()
	itin.Days[0].Stops = append(itin.Days[0].Stops, itinerary.Stop{
		Name:   "Dinner next to the hotel",
		Type:   itinerary.StopTypeActivity,
		Coords: itinerary.NewCoordinate(40.7580, -73.9855),
	})

	engine.Propagate(itin, schedule.Anchor{Date: "2025-06-01", Time: "14:30"})

	assert.NotNil(t, itin.Days[0].Stops[2].Computed)
	assert.Nil(t, itin.Days[0].Stops[3].Computed, "only the first coordinate match receives times")
}

func TestPropagate_FirstWriterWinsWhenTransferMatchesItself(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := arrivalDayOne()
	// The transfer's own marker sits at its destination.
	itin.Days[0].Stops[1].Coords = itinerary.NewCoordinate(40.7580, -73.9855)
	itin.Days[0].Stops[1].ToCoords = itinerary.NewCoordinate(40.7580, -73.9855)
	itin.Days[0].Stops[2].Coords = itinerary.NewCoordinate(41.0, -74.0)

	engine.Propagate(itin, schedule.Anchor{Date: "2025-06-01", Time: "14:30"})

	transfer := itin.Days[0].Stops[1].Computed
	require.NotNil(t, transfer)
	// Step 3 matches the transfer itself but must not clobber step 2's times.
	assert.Equal(t, "16:30", transfer.DepartureTime)
	assert.Equal(t, "17:15", transfer.ArrivalTime)
}

func TestPropagate_NilDays(t *testing.T) {
	engine := newEngine(schedule.Durations{})
	itin := &itinerary.Itinerary{}
	assert.Same(t, itin, engine.Propagate(itin, schedule.Anchor{Date: "2025-06-01", Time: "14:30"}))
	assert.Nil(t, engine.Propagate(nil, schedule.Anchor{Date: "2025-06-01", Time: "14:30"}))
}
