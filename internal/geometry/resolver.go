// Package geometry resolves the drawable coordinate sequence for itinerary
// segments, falling back deterministically when route data is missing.
package geometry

import (
	"errors"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/pkg/polyline"
)

// ErrNoRenderableGeometry indicates a segment's endpoints carry no valid
// coordinates, so not even a straight-line fallback can be drawn. Callers
// should skip the segment and log a warning; this is not fatal to the
// itinerary.
var ErrNoRenderableGeometry = errors.New("segment has no renderable geometry")

// Path is the resolved geometry for one segment. Approximated is true when
// no authoritative route data existed and the path is the straight line
// between the segment endpoints, so presentation can style it distinctly.
type Path struct {
	Points       []polyline.Coordinate
	Approximated bool
}

// Resolve produces the ordered coordinate sequence used for drawing a
// segment. Priority, first applicable wins:
//
//  1. the segment's raw coordinate list, used verbatim
//  2. the decoded encoded-polyline string, when non-empty
//  3. the two-point straight line between the endpoints (Approximated=true)
//
// Both endpoints must carry valid coordinates or resolution is refused with
// ErrNoRenderableGeometry.
func Resolve(seg itinerary.Segment) (Path, error) {
	if !seg.From.Coords.Valid() || !seg.To.Coords.Valid() {
		return Path{}, ErrNoRenderableGeometry
	}

	if len(seg.Polyline) >= 1 && seg.Polyline[0].Valid() {
		points := make([]polyline.Coordinate, 0, len(seg.Polyline))
		for _, c := range seg.Polyline {
			points = append(points, polyline.Coordinate{Lat: c.Lat, Lon: c.Lon})
		}
		return Path{Points: points}, nil
	}

	if seg.EncodedPolyline != "" {
		if points := polyline.Decode(seg.EncodedPolyline); len(points) > 0 {
			return Path{Points: points}, nil
		}
	}

	return Path{
		Points: []polyline.Coordinate{
			{Lat: seg.From.Coords.Lat, Lon: seg.From.Coords.Lon},
			{Lat: seg.To.Coords.Lat, Lon: seg.To.Coords.Lon},
		},
		Approximated: true,
	}, nil
}
