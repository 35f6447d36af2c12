// Package itinerary provides the travel itinerary data model and services.
package itinerary

import (
	"encoding/json"
	"errors"
	"math"
)

// Sentinel errors for itinerary documents.
var (
	// ErrMissingDays indicates the document has no days sequence at all.
	// This is a structural failure, distinct from per-stop or per-segment
	// issues: callers should surface a top-level error state.
	ErrMissingDays = errors.New("itinerary document missing days sequence")

	// ErrItineraryNotFound indicates the requested itinerary does not exist.
	ErrItineraryNotFound = errors.New("itinerary not found")
)

// Stop types recognized by the schedule engine and presentation layer.
const (
	StopTypeAirport   = "airport"
	StopTypeTransfer  = "transfer"
	StopTypeTrain     = "train"
	StopTypeTravelDay = "travel_day"
	StopTypeHotel     = "hotel"
	StopTypeActivity  = "activity"
)

// Transport modes carried by segments.
const (
	ModeDrive = "drive"
	ModeRail  = "rail"
	ModeHike  = "hike"
	ModeWalk  = "walk"
)

// Coordinate is a latitude/longitude pair, serialized as a two-element
// JSON array [lat, lon]. A malformed or absent pair decodes as an invalid
// coordinate rather than failing the whole document, and is never treated
// as (0,0).
type Coordinate struct {
	Lat float64
	Lon float64

	present bool
}

// NewCoordinate returns a present coordinate with the given components.
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Lat: lat, Lon: lon, present: true}
}

// Valid reports whether the coordinate is present and both components are
// finite numbers.
func (c Coordinate) Valid() bool {
	if !c.present {
		return false
	}
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) &&
		!math.IsNaN(c.Lon) && !math.IsInf(c.Lon, 0)
}

// Equal reports exact numeric equality of both components. Both coordinates
// must be valid.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Valid() && other.Valid() && c.Lat == other.Lat && c.Lon == other.Lon
}

// UnmarshalJSON decodes a [lat, lon] array. Anything else (wrong type,
// wrong length, null) leaves the coordinate invalid without returning an
// error, so that one malformed pair cannot abort parsing the document.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		*c = Coordinate{}
		return nil
	}
	if len(pair) != 2 {
		*c = Coordinate{}
		return nil
	}
	*c = Coordinate{Lat: pair[0], Lon: pair[1], present: true}
	return nil
}

// MarshalJSON encodes a valid coordinate as [lat, lon] and an invalid one
// as null.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal([2]float64{c.Lat, c.Lon})
}

// IsZero reports whether the coordinate is absent, letting omitzero drop it
// from serialized documents.
func (c Coordinate) IsZero() bool {
	return !c.present
}

// Computed holds timing fields attached to a stop by the schedule engine.
// Arrival and departure times are "HH:MM" strings, absent until propagation
// runs. DriveMinutes is an input field for transfer stops.
type Computed struct {
	ArrivalTime   string `json:"arrival_time,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	DriveMinutes  int    `json:"drive_minutes,omitempty"`
}

// Stop is a discrete itinerary item (airport, hotel, activity, transfer...)
// with optional coordinates and computed timing. The from/to pairs are used
// when the stop itself represents a transition.
type Stop struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Type        string     `json:"type,omitempty"`
	Subtype     string     `json:"subtype,omitempty"`
	Coords      Coordinate `json:"coords,omitzero"`
	FromCoords  Coordinate `json:"from_coords,omitzero"`
	ToCoords    Coordinate `json:"to_coords,omitzero"`
	Description string     `json:"description,omitempty"`
	Parking     string     `json:"parking,omitempty"`
	PriceText   string     `json:"price_estimate,omitempty"`
	StayMinutes int        `json:"stay_duration_min,omitempty"`
	Computed    *Computed  `json:"computed,omitempty"`
}

// EnsureComputed returns the stop's computed record, allocating it first if
// absent.
func (s *Stop) EnsureComputed() *Computed {
	if s.Computed == nil {
		s.Computed = &Computed{}
	}
	return s.Computed
}

// Endpoint is one end of a travel segment.
type Endpoint struct {
	Name   string     `json:"name,omitempty"`
	Coords Coordinate `json:"coords,omitzero"`
}

// Segment is a directed travel leg between two stops, carrying transport
// mode and optional route geometry. Segments are read-only to the core.
type Segment struct {
	From            Endpoint     `json:"from"`
	To              Endpoint     `json:"to"`
	Mode            string       `json:"mode,omitempty"`
	Polyline        []Coordinate `json:"polyline,omitempty"`
	EncodedPolyline string       `json:"encoded_polyline,omitempty"`
	Summary         string       `json:"summary,omitempty"`
	DistanceText    string       `json:"distance_text,omitempty"`
	DurationText    string       `json:"duration_text,omitempty"`
}

// Day groups the stops and segments of one itinerary day. Order is
// chronological and meaningful.
type Day struct {
	Day         int       `json:"day,omitempty"`
	Date        string    `json:"date,omitempty"`
	Title       string    `json:"title,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	StaySummary string    `json:"stay_summary,omitempty"`
	Stops       []Stop    `json:"stops"`
	Segments    []Segment `json:"segments,omitempty"`
}

// Landing is the flight-landing anchor carried by the document.
type Landing struct {
	Date        string `json:"date,omitempty"`
	ArrivalTime string `json:"arrival_time,omitempty"`
}

// Itinerary is the root document entity.
type Itinerary struct {
	Title      string   `json:"title,omitempty"`
	StartDate  string   `json:"start_date,omitempty"`
	DateAnchor string   `json:"date_anchor,omitempty"`
	Landing    *Landing `json:"landing,omitempty"`
	Days       []Day    `json:"days"`
}

// Validate checks structural integrity of the document. An absent days
// field is rejected with ErrMissingDays; an explicitly empty days array is
// accepted.
func (i *Itinerary) Validate() error {
	if i == nil || i.Days == nil {
		return ErrMissingDays
	}
	return nil
}

// DefaultAnchorDate returns the document-derived landing date: start_date
// when present, otherwise the first day's date.
func (i *Itinerary) DefaultAnchorDate() string {
	if i.StartDate != "" {
		return i.StartDate
	}
	if len(i.Days) > 0 {
		return i.Days[0].Date
	}
	return ""
}

// DefaultAnchorTime returns the document-derived landing time, if any.
func (i *Itinerary) DefaultAnchorTime() string {
	if i.Landing != nil {
		return i.Landing.ArrivalTime
	}
	return ""
}
