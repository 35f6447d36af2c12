// Package schedule computes arrival and departure times for itinerary stops
// by cascading a single landing anchor through a chain of dependent stops.
package schedule

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
)

// Default duration offsets, used when the configuration omits a value.
const (
	// DefaultBaggageClaimMinutes is the landing-to-departure delay at the
	// arrival airport.
	DefaultBaggageClaimMinutes = 120

	// DefaultHotelCheckinMinutes is the delay between hotel arrival and
	// being free to depart again.
	DefaultHotelCheckinMinutes = 150
)

// timeLayout is the minute-precision format of computed times.
const timeLayout = "15:04"

// anchorLayout parses the combined anchor date and time.
const anchorLayout = "2006-01-02T15:04"

// Durations holds the named minute offsets consumed by the engine.
// Zero values fall back to the defaults; configuration is never mandatory.
type Durations struct {
	BaggageClaimMinutes int `json:"baggage_claim_minutes"`
	HotelCheckinMinutes int `json:"hotel_checkin_minutes"`
}

// withDefaults fills absent offsets with the fixed fallbacks.
func (d Durations) withDefaults() Durations {
	if d.BaggageClaimMinutes == 0 {
		d.BaggageClaimMinutes = DefaultBaggageClaimMinutes
	}
	if d.HotelCheckinMinutes == 0 {
		d.HotelCheckinMinutes = DefaultHotelCheckinMinutes
	}
	return d
}

// Anchor is the single real-world timestamp (flight landing) from which all
// day-one computed times derive. Date is "YYYY-MM-DD", Time is "HH:MM".
// A partial anchor (only one of the two) is treated as absent.
type Anchor struct {
	Date string
	Time string
}

// Complete reports whether both anchor components are present.
func (a Anchor) Complete() bool {
	return a.Date != "" && a.Time != ""
}

// EngineConfig holds configuration for the schedule engine.
type EngineConfig struct {
	// Logger for propagation diagnostics.
	Logger zerolog.Logger

	// Durations are the configured minute offsets. Absent values fall
	// back to the package defaults.
	Durations Durations
}

// Engine propagates a landing anchor through an itinerary. The engine holds
// no per-run state, so one instance is safe for concurrent use on distinct
// itineraries.
type Engine struct {
	logger    zerolog.Logger
	durations Durations
}

// NewEngine creates a schedule engine.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		logger:    cfg.Logger,
		durations: cfg.Durations.withDefaults(),
	}
}

// Propagate mutates the itinerary's computed stop times in place and returns
// it for convenience. With an absent or partial anchor it is a no-op.
//
// Propagation is intentionally single-chain and single-pass: only the first
// airport stop found (scanning days in order, then stops in order) anchors a
// cascade, and the cascade covers at most the airport, the immediately
// following transfer stop, and the first stop whose coordinates equal the
// transfer's destination. Computed fields written earlier in a run are never
// overwritten later in the same run, while a fresh run strictly overwrites
// the previous cascade, keeping repeated propagation idempotent.
func (e *Engine) Propagate(itin *itinerary.Itinerary, anchor Anchor) *itinerary.Itinerary {
	if itin == nil || itin.Days == nil {
		return itin
	}
	if !anchor.Complete() {
		e.logger.Debug().Msg("no landing anchor, skipping schedule propagation")
		return itin
	}

	landing, err := time.Parse(anchorLayout, anchor.Date+"T"+anchor.Time)
	if err != nil {
		e.logger.Warn().
			Str("date", anchor.Date).
			Str("time", anchor.Time).
			Msg("unparseable landing anchor, skipping schedule propagation")
		return itin
	}

	for di := range itin.Days {
		day := &itin.Days[di]
		for si := range day.Stops {
			if day.Stops[si].Type != itinerary.StopTypeAirport {
				continue
			}
			e.propagateChain(day, si, landing)
			// Only one airport-anchored chain is resolved per run.
			return itin
		}
	}

	e.logger.Debug().Msg("no airport stop found, schedule left unset")
	return itin
}

// propagateChain cascades times from the airport stop at index si through
// the following transfer stop and its coordinate-matched destination.
func (e *Engine) propagateChain(day *itinerary.Day, si int, landing time.Time) {
	arrivalSet := make(map[*itinerary.Stop]bool)
	departureSet := make(map[*itinerary.Stop]bool)

	airport := &day.Stops[si]
	airportComputed := airport.EnsureComputed()
	airportComputed.ArrivalTime = landing.Format(timeLayout)
	arrivalSet[airport] = true

	departure := landing.Add(time.Duration(e.durations.BaggageClaimMinutes) * time.Minute)
	airportComputed.DepartureTime = departure.Format(timeLayout)
	departureSet[airport] = true

	e.logger.Debug().
		Str("stop", airport.Name).
		Str("arrival", airportComputed.ArrivalTime).
		Str("departure", airportComputed.DepartureTime).
		Msg("anchored airport stop")

	if si+1 >= len(day.Stops) {
		return
	}
	transfer := &day.Stops[si+1]
	if transfer.Type != itinerary.StopTypeTransfer ||
		transfer.Computed == nil || transfer.Computed.DriveMinutes <= 0 {
		return
	}

	arrivalAtDest := departure.Add(time.Duration(transfer.Computed.DriveMinutes) * time.Minute)
	if !departureSet[transfer] {
		transfer.Computed.DepartureTime = departure.Format(timeLayout)
		departureSet[transfer] = true
	}
	if !arrivalSet[transfer] {
		transfer.Computed.ArrivalTime = arrivalAtDest.Format(timeLayout)
		arrivalSet[transfer] = true
	}

	if !transfer.ToCoords.Valid() {
		return
	}

	for sj := range day.Stops {
		stop := &day.Stops[sj]
		if !stop.Coords.Equal(transfer.ToCoords) {
			continue
		}

		computed := stop.EnsureComputed()
		if !arrivalSet[stop] {
			computed.ArrivalTime = arrivalAtDest.Format(timeLayout)
			arrivalSet[stop] = true
		}
		if !departureSet[stop] {
			checkout := arrivalAtDest.Add(time.Duration(e.durations.HotelCheckinMinutes) * time.Minute)
			computed.DepartureTime = checkout.Format(timeLayout)
			departureSet[stop] = true
		}

		e.logger.Debug().
			Str("stop", stop.Name).
			Str("arrival", computed.ArrivalTime).
			Msg("matched transfer destination by coordinates")

		// Only the first coordinate match receives times.
		return
	}
}
