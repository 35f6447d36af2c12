// Package render assembles the presentation contract for an itinerary:
// computed stop times plus resolved segment geometry, ready for a map and
// sidebar to consume. It formats no HTML and touches no UI.
package render

import (
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
)

// IconMap maps stop types and subtypes to presentation icon identifiers.
// Subtype entries take precedence over type entries.
type IconMap map[string]string

// Marker is a drawable stop marker. Coords is [lat, lon].
type Marker struct {
	Name    string     `json:"name"`
	Type    string     `json:"type,omitempty"`
	Subtype string     `json:"subtype,omitempty"`
	Icon    string     `json:"icon,omitempty"`
	Coords  [2]float64 `json:"coords"`
}

// Path is a drawable segment path. Points are ordered [lat, lon] pairs.
// Approximated marks fallback straight-line geometry so presentation can
// style it distinctly (dashed).
type Path struct {
	Mode         string       `json:"mode,omitempty"`
	Summary      string       `json:"summary,omitempty"`
	DistanceText string       `json:"distance_text,omitempty"`
	DurationText string       `json:"duration_text,omitempty"`
	Points       [][2]float64 `json:"points"`
	Approximated bool         `json:"approximated"`
}

// Day is one rendered itinerary day.
type Day struct {
	Day         int              `json:"day,omitempty"`
	Date        string           `json:"date,omitempty"`
	Title       string           `json:"title,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	StaySummary string           `json:"stay_summary,omitempty"`
	Stops       []itinerary.Stop `json:"stops"`
	Markers     []Marker         `json:"markers"`
	Paths       []Path           `json:"paths"`

	// SkippedSegments counts segments with no renderable geometry and
	// SkippedMarkers counts stops with no usable coordinates; both were
	// warn-logged and dropped rather than failing the render.
	SkippedSegments int `json:"skipped_segments,omitempty"`
	SkippedMarkers  int `json:"skipped_markers,omitempty"`
}

// Result is a fully rendered itinerary.
type Result struct {
	Title      string `json:"title,omitempty"`
	DateAnchor string `json:"date_anchor,omitempty"`
	AnchorDate string `json:"anchor_date,omitempty"`
	AnchorTime string `json:"anchor_time,omitempty"`
	Days       []Day  `json:"days"`
}
